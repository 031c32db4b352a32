package models

import (
	"slices"
	"time"
)

// Tree is a named view over a subset of persons.
type Tree struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	HomePersonID *string   `json:"home_person_id"`
	MemberIDs    []string  `json:"member_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// EntityID returns the tree's id.
func (t Tree) EntityID() string { return t.ID }

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	c := t
	if t.HomePersonID != nil {
		home := *t.HomePersonID
		c.HomePersonID = &home
	}
	c.MemberIDs = slices.Clone(t.MemberIDs)
	return c
}

// HasMember reports whether personID belongs to the tree.
func (t *Tree) HasMember(personID string) bool {
	return slices.Contains(t.MemberIDs, personID)
}

// SetHomePerson marks personID as the tree's home person. The person must
// already be a member.
func (t *Tree) SetHomePerson(personID string) error {
	if !t.HasMember(personID) {
		return ErrHomeNotMember
	}
	t.HomePersonID = &personID
	return nil
}

// AddMember appends personID unless it is already present.
func (t *Tree) AddMember(personID string) {
	if !t.HasMember(personID) {
		t.MemberIDs = append(t.MemberIDs, personID)
	}
}

// RemoveMember drops personID from the tree and clears the home person when
// it pointed at the removed member. It reports whether anything changed.
func (t *Tree) RemoveMember(personID string) bool {
	i := slices.Index(t.MemberIDs, personID)
	if i < 0 {
		return false
	}
	t.MemberIDs = slices.Delete(slices.Clone(t.MemberIDs), i, i+1)
	if t.HomePersonID != nil && *t.HomePersonID == personID {
		t.HomePersonID = nil
	}
	return true
}

// Validate checks required fields and the home-member invariant.
func (t *Tree) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}

	if len(t.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if t.Name == "" {
		return ErrMissingName
	}

	if len(t.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	if t.HomePersonID != nil && !t.HasMember(*t.HomePersonID) {
		return ErrHomeNotMember
	}

	return nil
}
