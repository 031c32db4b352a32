package client

import (
	"context"
	"net/url"
)

// TagService handles one person join relation.
type TagService struct {
	c      *Client
	entity string
}

func (s *TagService) path(entityID string) string {
	return "/api/v1/" + s.entity + "/" + url.PathEscape(entityID) + "/tags"
}

// List returns the persons tagged on entityID.
func (s *TagService) List(ctx context.Context, entityID string) ([]string, error) {
	var resp struct {
		PersonIDs []string `json:"person_ids"`
	}
	if err := s.c.get(ctx, s.path(entityID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.PersonIDs, nil
}

// Tag links personIDs to entityID. Existing links are kept.
func (s *TagService) Tag(ctx context.Context, entityID string, personIDs []string) error {
	return s.c.put(ctx, s.path(entityID), map[string][]string{"person_ids": personIDs}, nil)
}

// Untag removes one link.
func (s *TagService) Untag(ctx context.Context, entityID, personID string) error {
	return s.c.del(ctx, s.path(entityID)+"/"+url.PathEscape(personID))
}
