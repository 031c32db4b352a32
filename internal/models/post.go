package models

import (
	"slices"
	"time"
)

// Post is a social entry that may tag persons and carry media.
type Post struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	AuthorLabel     string     `json:"author_label"`
	Body            string     `json:"body"`
	Attachments     []MediaRef `json:"attachments,omitempty"`
	TaggedPersonIDs []string   `json:"tagged_person_ids,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitzero"`
}

// EntityID returns the post's id.
func (p Post) EntityID() string { return p.ID }

// Clone returns a deep copy of p.
func (p Post) Clone() Post {
	c := p
	c.Attachments = slices.Clone(p.Attachments)
	c.TaggedPersonIDs = slices.Clone(p.TaggedPersonIDs)
	return c
}

// Validate checks required fields and limits on a post.
func (p *Post) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}

	if len(p.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if p.Body == "" && len(p.Attachments) == 0 {
		return ErrMissingBody
	}

	if len(p.Body) > 20000 {
		return ErrFieldTooLong("body", 20000)
	}

	if len(p.AuthorLabel) > 255 {
		return ErrFieldTooLong("author_label", 255)
	}

	if len(p.Attachments) > 50 {
		return ErrFieldTooLong("attachments", 50)
	}

	return nil
}

// PostTag links a person to a post.
type PostTag struct {
	PostID   string `json:"post_id"`
	PersonID string `json:"person_id"`
}

// MediaTag links a person to a media item.
type MediaTag struct {
	MediaID  string `json:"media_id"`
	PersonID string `json:"person_id"`
}
