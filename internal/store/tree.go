package store

import (
	"github.com/google/uuid"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

const treeColumns = `id, owner_id, name, home_person_id, member_ids, created_at`

// TreeStore handles the trees table. The trees_home_is_member constraint
// keeps the home person inside the member list.
type TreeStore struct {
	table[models.Tree]
}

// NewTreeStore creates a new TreeStore.
func NewTreeStore(base Base) *TreeStore {
	return &TreeStore{table[models.Tree]{
		Base: base,
		spec: tableSpec[models.Tree]{
			name:          "trees",
			columns:       []string{"id", "owner_id", "name", "home_person_id", "member_ids", "created_at"},
			selectColumns: treeColumns,
			keep:          []string{"created_at"},
			orderBy:       "created_at DESC, id ASC",
			notFound:      models.ErrTreeNotFound,
			values:        treeValues,
			scan:          scanTree,
			setters:       treeSetters,
		},
	}}
}

func treeValues(ownerID string, t *models.Tree) ([]any, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	return []any{t.ID, ownerID, t.Name, t.HomePersonID, nonNil(t.MemberIDs), nullTime(t.CreatedAt)}, nil
}

// scanTree scans a single row into a models.Tree.
func scanTree(scan func(dest ...any) error) (*models.Tree, error) {
	var t models.Tree
	var ownerID uuid.UUID

	if err := scan(&t.ID, &ownerID, &t.Name, &t.HomePersonID, &t.MemberIDs, &t.CreatedAt); err != nil {
		return nil, err
	}

	t.OwnerID = ownerID.String()
	t.MemberIDs = emptyToNil(t.MemberIDs)

	return &t, nil
}

func treeSetters(fields map[string]any) ([]assignment, error) {
	patch, err := models.DecodePatch[models.TreePatch](fields)
	if err != nil {
		return nil, err
	}

	var out []assignment
	if patch.Name != nil {
		out = append(out, assignment{column: "name", value: *patch.Name})
	}
	if patch.MemberIDs != nil {
		out = append(out, assignment{column: "member_ids", value: nonNil(*patch.MemberIDs)})
	}
	if patch.HomePersonID.Set {
		out = append(out, assignment{column: "home_person_id", value: patch.HomePersonID.Value})
	}

	return out, nil
}
