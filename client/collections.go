package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// CollectionService handles one collection (people, trees or posts). The
// owner is the one bound to the client's API key.
type CollectionService[T any] struct {
	c      *Client
	plural string
}

func (s *CollectionService[T]) path() string { return "/api/v1/" + s.plural }

func (s *CollectionService[T]) itemPath(id string) string {
	return s.path() + "/" + url.PathEscape(id)
}

// decodeList extracts the items stored under the plural key.
func (s *CollectionService[T]) decodeList(raw map[string]json.RawMessage) ([]T, error) {
	var items []T
	if data, ok := raw[s.plural]; ok {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.plural, err)
		}
	}
	return items, nil
}

// List returns every item: people by name, trees and posts newest first.
func (s *CollectionService[T]) List(ctx context.Context) ([]T, error) {
	var raw map[string]json.RawMessage
	if err := s.c.get(ctx, s.path(), nil, &raw); err != nil {
		return nil, err
	}
	return s.decodeList(raw)
}

// Create inserts item and returns the stored row.
func (s *CollectionService[T]) Create(ctx context.Context, item T) (*T, error) {
	var out T
	if err := s.c.post(ctx, s.path(), item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkUpsert inserts or replaces items keyed by id.
func (s *CollectionService[T]) BulkUpsert(ctx context.Context, items []T) ([]T, error) {
	var raw map[string]json.RawMessage
	if err := s.c.post(ctx, "/api/v1/bulk/"+s.plural, map[string][]T{s.plural: items}, &raw); err != nil {
		return nil, err
	}
	return s.decodeList(raw)
}

// Update applies changed fields, keyed by wire name, to one item.
func (s *CollectionService[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	return s.c.patch(ctx, s.itemPath(id), fields, nil)
}

// Delete removes one item and its tags.
func (s *CollectionService[T]) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, s.itemPath(id))
}
