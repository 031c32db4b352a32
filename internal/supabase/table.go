package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
)

type order struct {
	column    string
	ascending bool
}

// table implements domain.Collection over one PostgREST table.
type table[T any] struct {
	s          *Store
	name       string
	notFound   error
	order      []order
	listFields []string
	touch      bool
	decode     func([]byte) ([]T, error)
	checkPatch func(map[string]any) error
	setOwner   func(*T, string)
	id         func(T) string
}

func (t *table[T]) rows(ownerID string, items []T, dropServer bool) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		t.setOwner(&it, ownerID)
		row, err := toRow(it, t.listFields, dropServer)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Create inserts item and returns the stored row.
func (t *table[T]) Create(ctx context.Context, ownerID string, item T) (*T, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	rows, err := t.rows(ownerID, []T{item}, false)
	if err != nil {
		return nil, err
	}

	data, _, err := t.s.from(t.name).Insert(rows[0], false, "", "representation", "").Execute()
	if err != nil {
		return nil, mapError(fmt.Errorf("inserting into %s: %w", t.name, err), t.notFound)
	}

	out, err := t.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.name, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("inserting into %s: got %d rows back", t.name, len(out))
	}
	return &out[0], nil
}

// BulkUpsert inserts or replaces items keyed by id.
func (t *table[T]) BulkUpsert(ctx context.Context, ownerID string, items []T) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	rows, err := t.rows(ownerID, items, true)
	if err != nil {
		return nil, err
	}

	data, _, err := t.s.from(t.name).Upsert(rows, "id", "representation", "").Execute()
	if err != nil {
		return nil, mapError(fmt.Errorf("upserting %s: %w", t.name, err), t.notFound)
	}

	out, err := t.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.name, err)
	}

	t.s.log.WithField("table", t.name).WithField("rows", len(out)).Debug("supabase bulk upsert")

	return out, nil
}

// List returns all of the owner's rows in the collection's order.
func (t *table[T]) List(ctx context.Context, ownerID string) ([]T, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	q := t.s.from(t.name).Select("*", "", false).Eq("owner_id", ownerID)
	for _, o := range t.order {
		q = q.Order(o.column, &postgrest.OrderOpts{Ascending: o.ascending})
	}

	data, _, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.name, err)
	}

	out, err := t.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.name, err)
	}
	return out, nil
}

// Update applies the changed fields to one row.
func (t *table[T]) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	if err := t.checkPatch(fields); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	if t.touch {
		values["updated_at"] = time.Now().UTC()
	}

	data, _, err := t.s.from(t.name).Update(values, "representation", "").
		Eq("id", id).Eq("owner_id", ownerID).Execute()
	if err != nil {
		return mapError(fmt.Errorf("updating %s: %w", t.name, err), t.notFound)
	}

	return t.expectRow(data, id)
}

// Delete removes one row; join rows cascade in the database.
func (t *table[T]) Delete(ctx context.Context, ownerID, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	data, _, err := t.s.from(t.name).Delete("representation", "").
		Eq("id", id).Eq("owner_id", ownerID).Execute()
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", t.name, err)
	}

	return t.expectRow(data, id)
}

// expectRow reports notFound when a write matched no row.
func (t *table[T]) expectRow(data []byte, id string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decoding %s response: %w", t.name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", t.notFound, id)
	}
	return nil
}
