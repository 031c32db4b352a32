package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// TagTable is one person join table.
type TagTable struct {
	s         *Store
	name      string
	entityCol string
}

// Tag links personIDs to entityID. Existing links are kept.
func (t *TagTable) Tag(ctx context.Context, ownerID, entityID string, personIDs []string) error {
	ids := models.NormalizeIDs(personIDs)
	if len(ids) == 0 {
		return nil
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	rows := make([]map[string]string, 0, len(ids))
	for _, pid := range ids {
		rows = append(rows, map[string]string{t.entityCol: entityID, "person_id": pid, "owner_id": ownerID})
	}

	_, _, err := t.s.from(t.name).Insert(rows, true, t.entityCol+",person_id", "minimal", "").Execute()
	if err != nil {
		return mapError(fmt.Errorf("inserting %s: %w", t.name, err), models.ErrPersonNotFound)
	}
	return nil
}

// Untag removes one link. Removing a missing link is not an error.
func (t *TagTable) Untag(ctx context.Context, ownerID, entityID, personID string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	_, _, err := t.s.from(t.name).Delete("minimal", "").
		Eq(t.entityCol, entityID).Eq("person_id", personID).Eq("owner_id", ownerID).Execute()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", t.name, err)
	}
	return nil
}

// TaggedPersons returns the persons linked to entityID.
func (t *TagTable) TaggedPersons(ctx context.Context, ownerID, entityID string) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	data, _, err := t.s.from(t.name).Select("person_id", "", false).
		Eq(t.entityCol, entityID).Eq("owner_id", ownerID).
		Order("person_id", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.name, err)
	}

	var rows []struct {
		PersonID string `json:"person_id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.name, err)
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PersonID)
	}
	return out, nil
}
