package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

const personColumns = `id, owner_id, name, gender, birth_year, death_year,
	image_url, summary, is_memorial, timeline, memories, source_citations,
	parent_ids, child_ids, spouse_ids, created_at, updated_at`

// PersonStore handles the people table.
type PersonStore struct {
	table[models.Person]
}

// NewPersonStore creates a new PersonStore.
func NewPersonStore(base Base) *PersonStore {
	return &PersonStore{table[models.Person]{
		Base: base,
		spec: tableSpec[models.Person]{
			name: "people",
			columns: []string{
				"id", "owner_id", "name", "gender", "birth_year", "death_year",
				"image_url", "summary", "is_memorial", "timeline", "memories", "source_citations",
				"parent_ids", "child_ids", "spouse_ids", "created_at",
			},
			selectColumns: personColumns,
			keep:          []string{"created_at"},
			orderBy:       "name ASC, id ASC",
			notFound:      models.ErrPersonNotFound,
			touch:         "updated_at = NOW()",
			values:        personValues,
			scan:          scanPerson,
			setters:       personSetters,
		},
	}}
}

func personValues(ownerID string, p *models.Person) ([]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	timeline, err := json.Marshal(nonNil(p.Timeline))
	if err != nil {
		return nil, fmt.Errorf("marshaling timeline: %w", err)
	}

	memories, err := json.Marshal(nonNil(p.Memories))
	if err != nil {
		return nil, fmt.Errorf("marshaling memories: %w", err)
	}

	return []any{
		p.ID, ownerID, p.Name, string(p.Gender), p.BirthYear, p.DeathYear,
		p.ImageURL, p.Summary, p.IsMemorial, timeline, memories, nonNil(p.SourceCitations),
		nonNil(p.ParentIDs), nonNil(p.ChildIDs), nonNil(p.SpouseIDs), nullTime(p.CreatedAt),
	}, nil
}

// scanPerson scans a single row into a models.Person.
func scanPerson(scan func(dest ...any) error) (*models.Person, error) {
	var p models.Person
	var ownerID uuid.UUID
	var gender string
	var timeline, memories []byte

	err := scan(
		&p.ID,
		&ownerID,
		&p.Name,
		&gender,
		&p.BirthYear,
		&p.DeathYear,
		&p.ImageURL,
		&p.Summary,
		&p.IsMemorial,
		&timeline,
		&memories,
		&p.SourceCitations,
		&p.ParentIDs,
		&p.ChildIDs,
		&p.SpouseIDs,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.OwnerID = ownerID.String()
	p.Gender = models.Gender(gender)

	if err := json.Unmarshal(timeline, &p.Timeline); err != nil {
		return nil, fmt.Errorf("unmarshalling timeline: %w", err)
	}

	if err := json.Unmarshal(memories, &p.Memories); err != nil {
		return nil, fmt.Errorf("unmarshalling memories: %w", err)
	}

	p.SourceCitations = emptyToNil(p.SourceCitations)
	p.ParentIDs = emptyToNil(p.ParentIDs)
	p.ChildIDs = emptyToNil(p.ChildIDs)
	p.SpouseIDs = emptyToNil(p.SpouseIDs)
	p.Timeline = emptyToNil(p.Timeline)
	p.Memories = emptyToNil(p.Memories)

	return &p, nil
}

func personSetters(fields map[string]any) ([]assignment, error) {
	patch, err := models.DecodePatch[models.PersonPatch](fields)
	if err != nil {
		return nil, err
	}

	var out []assignment
	add := func(col string, v any) { out = append(out, assignment{column: col, value: v}) }

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Gender != nil {
		add("gender", string(*patch.Gender))
	}
	if patch.BirthYear != nil {
		add("birth_year", *patch.BirthYear)
	}
	if patch.DeathYear != nil {
		add("death_year", *patch.DeathYear)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.IsMemorial != nil {
		add("is_memorial", *patch.IsMemorial)
	}
	if patch.Timeline != nil {
		b, err := json.Marshal(nonNil(*patch.Timeline))
		if err != nil {
			return nil, fmt.Errorf("marshaling timeline: %w", err)
		}
		add("timeline", b)
	}
	if patch.Memories != nil {
		b, err := json.Marshal(nonNil(*patch.Memories))
		if err != nil {
			return nil, fmt.Errorf("marshaling memories: %w", err)
		}
		add("memories", b)
	}
	if patch.SourceCitations != nil {
		add("source_citations", nonNil(*patch.SourceCitations))
	}
	if patch.ParentIDs != nil {
		add("parent_ids", nonNil(models.NormalizeIDs(*patch.ParentIDs)))
	}
	if patch.ChildIDs != nil {
		add("child_ids", nonNil(models.NormalizeIDs(*patch.ChildIDs)))
	}
	if patch.SpouseIDs != nil {
		add("spouse_ids", nonNil(models.NormalizeIDs(*patch.SpouseIDs)))
	}

	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func emptyToNil[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
