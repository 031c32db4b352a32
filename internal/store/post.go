package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

const postColumns = `id, owner_id, author_label, body, attachments, tagged_person_ids, created_at`

// PostStore handles the posts table.
type PostStore struct {
	table[models.Post]
}

// NewPostStore creates a new PostStore.
func NewPostStore(base Base) *PostStore {
	return &PostStore{table[models.Post]{
		Base: base,
		spec: tableSpec[models.Post]{
			name:          "posts",
			columns:       []string{"id", "owner_id", "author_label", "body", "attachments", "tagged_person_ids", "created_at"},
			selectColumns: postColumns,
			keep:          []string{"created_at"},
			orderBy:       "created_at DESC, id ASC",
			notFound:      models.ErrPostNotFound,
			values:        postValues,
			scan:          scanPost,
			setters:       postSetters,
		},
	}}
}

func postValues(ownerID string, p *models.Post) ([]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	attachments, err := json.Marshal(nonNil(p.Attachments))
	if err != nil {
		return nil, fmt.Errorf("marshaling attachments: %w", err)
	}

	return []any{
		p.ID, ownerID, p.AuthorLabel, p.Body, attachments,
		nonNil(models.NormalizeIDs(p.TaggedPersonIDs)), nullTime(p.CreatedAt),
	}, nil
}

// scanPost scans a single row into a models.Post.
func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var p models.Post
	var ownerID uuid.UUID
	var attachments []byte

	err := scan(&p.ID, &ownerID, &p.AuthorLabel, &p.Body, &attachments, &p.TaggedPersonIDs, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.OwnerID = ownerID.String()

	if err := json.Unmarshal(attachments, &p.Attachments); err != nil {
		return nil, fmt.Errorf("unmarshalling attachments: %w", err)
	}

	p.Attachments = emptyToNil(p.Attachments)
	p.TaggedPersonIDs = emptyToNil(p.TaggedPersonIDs)

	return &p, nil
}

func postSetters(fields map[string]any) ([]assignment, error) {
	patch, err := models.DecodePatch[models.PostPatch](fields)
	if err != nil {
		return nil, err
	}

	var out []assignment
	if patch.AuthorLabel != nil {
		out = append(out, assignment{column: "author_label", value: *patch.AuthorLabel})
	}
	if patch.Body != nil {
		out = append(out, assignment{column: "body", value: *patch.Body})
	}
	if patch.Attachments != nil {
		b, err := json.Marshal(nonNil(*patch.Attachments))
		if err != nil {
			return nil, fmt.Errorf("marshaling attachments: %w", err)
		}
		out = append(out, assignment{column: "attachments", value: b})
	}
	if patch.TaggedPersonIDs != nil {
		out = append(out, assignment{column: "tagged_person_ids", value: nonNil(models.NormalizeIDs(*patch.TaggedPersonIDs))})
	}

	return out, nil
}
