// Package models defines the family graph entities shared by the importer,
// the reconciliation cache and the remote stores.
package models

import (
	"slices"
	"time"
)

// Gender of a person as recorded in the source data.
type Gender string

// Known genders.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// MediaRef points at a stored photo, recording or document.
type MediaRef struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Kind    string `json:"kind,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// TimelineEvent is one dated entry in a person's life.
type TimelineEvent struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Date       string     `json:"date,omitempty"`
	Place      string     `json:"place,omitempty"`
	SpouseName string     `json:"spouse_name,omitempty"`
	Media      []MediaRef `json:"media,omitempty"`
}

// Memory is a free-text story attached to a person.
type Memory struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Person is a vertex in the family graph.
//
// ParentIDs, ChildIDs and SpouseIDs are sets kept sorted and free of
// duplicates. They must stay symmetric across the graph: a child link on one
// person is matched by a parent link on the other, and spouse links exist on
// both sides. Use the mutators in relations.go to change them.
type Person struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Name            string          `json:"name"`
	Gender          Gender          `json:"gender"`
	BirthYear       string          `json:"birth_year"`
	DeathYear       string          `json:"death_year"`
	ImageURL        string          `json:"image_url"`
	Summary         string          `json:"summary"`
	IsMemorial      bool            `json:"is_memorial"`
	Timeline        []TimelineEvent `json:"timeline,omitempty"`
	Memories        []Memory        `json:"memories,omitempty"`
	SourceCitations []string        `json:"source_citations,omitempty"`
	ParentIDs       []string        `json:"parent_ids,omitempty"`
	ChildIDs        []string        `json:"child_ids,omitempty"`
	SpouseIDs       []string        `json:"spouse_ids,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitzero"`
	UpdatedAt       time.Time       `json:"updated_at,omitzero"`
}

// EntityID returns the person's id.
func (p Person) EntityID() string { return p.ID }

// Clone returns a deep copy of p.
func (p Person) Clone() Person {
	c := p
	c.Timeline = make([]TimelineEvent, 0, len(p.Timeline))
	for _, ev := range p.Timeline {
		ev.Media = slices.Clone(ev.Media)
		c.Timeline = append(c.Timeline, ev)
	}
	if len(c.Timeline) == 0 {
		c.Timeline = nil
	}
	c.Memories = slices.Clone(p.Memories)
	c.SourceCitations = slices.Clone(p.SourceCitations)
	c.ParentIDs = slices.Clone(p.ParentIDs)
	c.ChildIDs = slices.Clone(p.ChildIDs)
	c.SpouseIDs = slices.Clone(p.SpouseIDs)
	return c
}

// Validate checks required fields and limits on a person.
func (p *Person) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}

	if len(p.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if p.Name == "" {
		return ErrMissingName
	}

	if len(p.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	if p.Gender == "" {
		p.Gender = GenderUnknown
	}

	if !p.Gender.Valid() {
		return ErrInvalidGender
	}

	if len(p.BirthYear) > 100 {
		return ErrFieldTooLong("birth_year", 100)
	}

	if len(p.DeathYear) > 100 {
		return ErrFieldTooLong("death_year", 100)
	}

	if len(p.ImageURL) > 2048 {
		return ErrFieldTooLong("image_url", 2048)
	}

	if len(p.Summary) > 20000 {
		return ErrFieldTooLong("summary", 20000)
	}

	for _, ids := range [][]string{p.ParentIDs, p.ChildIDs, p.SpouseIDs} {
		if slices.Contains(ids, p.ID) {
			return ErrSelfRelation
		}
	}

	for _, m := range p.Memories {
		if len(m.Text) > 20000 {
			return ErrFieldTooLong("memory", 20000)
		}
	}

	return nil
}
