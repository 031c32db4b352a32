package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Nullable is a patch field that distinguishes "absent" from "set to null".
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only invoked when the key is present.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// PersonPatch carries the changed fields of a person.
type PersonPatch struct {
	Name            *string          `json:"name"`
	Gender          *Gender          `json:"gender"`
	BirthYear       *string          `json:"birth_year"`
	DeathYear       *string          `json:"death_year"`
	ImageURL        *string          `json:"image_url"`
	Summary         *string          `json:"summary"`
	IsMemorial      *bool            `json:"is_memorial"`
	Timeline        *[]TimelineEvent `json:"timeline"`
	Memories        *[]Memory        `json:"memories"`
	SourceCitations *[]string        `json:"source_citations"`
	ParentIDs       *[]string        `json:"parent_ids"`
	ChildIDs        *[]string        `json:"child_ids"`
	SpouseIDs       *[]string        `json:"spouse_ids"`
}

// Validate checks PersonPatch fields.
func (p *PersonPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if p.Name != nil && len(*p.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	if p.Gender != nil && !p.Gender.Valid() {
		return ErrInvalidGender
	}

	if p.Summary != nil && len(*p.Summary) > 20000 {
		return ErrFieldTooLong("summary", 20000)
	}

	if p.ImageURL != nil && len(*p.ImageURL) > 2048 {
		return ErrFieldTooLong("image_url", 2048)
	}

	return nil
}

// Apply copies the set fields of the patch onto person.
func (p *PersonPatch) Apply(person *Person) {
	setIf(&person.Name, p.Name)
	setIf(&person.Gender, p.Gender)
	setIf(&person.BirthYear, p.BirthYear)
	setIf(&person.DeathYear, p.DeathYear)
	setIf(&person.ImageURL, p.ImageURL)
	setIf(&person.Summary, p.Summary)
	setIf(&person.IsMemorial, p.IsMemorial)
	setIf(&person.Timeline, p.Timeline)
	setIf(&person.Memories, p.Memories)
	setIf(&person.SourceCitations, p.SourceCitations)
	if p.ParentIDs != nil {
		person.ParentIDs = NormalizeIDs(*p.ParentIDs)
	}
	if p.ChildIDs != nil {
		person.ChildIDs = NormalizeIDs(*p.ChildIDs)
	}
	if p.SpouseIDs != nil {
		person.SpouseIDs = NormalizeIDs(*p.SpouseIDs)
	}
}

// TreePatch carries the changed fields of a tree.
type TreePatch struct {
	Name         *string          `json:"name"`
	HomePersonID Nullable[string] `json:"home_person_id"`
	MemberIDs    *[]string        `json:"member_ids"`
}

// Validate checks TreePatch fields.
func (p *TreePatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if p.Name != nil && len(*p.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	return nil
}

// Apply copies the set fields of the patch onto tree and re-checks the home
// person invariant.
func (p *TreePatch) Apply(tree *Tree) error {
	setIf(&tree.Name, p.Name)
	setIf(&tree.MemberIDs, p.MemberIDs)
	if p.HomePersonID.Set {
		tree.HomePersonID = p.HomePersonID.Value
	}
	if tree.HomePersonID != nil && !tree.HasMember(*tree.HomePersonID) {
		return ErrHomeNotMember
	}
	return nil
}

// PostPatch carries the changed fields of a post.
type PostPatch struct {
	AuthorLabel     *string     `json:"author_label"`
	Body            *string     `json:"body"`
	Attachments     *[]MediaRef `json:"attachments"`
	TaggedPersonIDs *[]string   `json:"tagged_person_ids"`
}

// Validate checks PostPatch fields.
func (p *PostPatch) Validate() error {
	if p.Body != nil && len(*p.Body) > 20000 {
		return ErrFieldTooLong("body", 20000)
	}

	if p.AuthorLabel != nil && len(*p.AuthorLabel) > 255 {
		return ErrFieldTooLong("author_label", 255)
	}

	return nil
}

// Apply copies the set fields of the patch onto post.
func (p *PostPatch) Apply(post *Post) {
	setIf(&post.AuthorLabel, p.AuthorLabel)
	setIf(&post.Body, p.Body)
	setIf(&post.Attachments, p.Attachments)
	if p.TaggedPersonIDs != nil {
		post.TaggedPersonIDs = NormalizeIDs(*p.TaggedPersonIDs)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
