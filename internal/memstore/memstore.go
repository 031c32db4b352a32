// Package memstore is an in-process remote store. It backs dry-run imports
// and the tests of packages that push to a store, and records every call it
// receives.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// Call is one recorded store call.
type Call struct {
	Kind   string
	Op     string
	Owner  string
	ID     string
	IDs    []string
	Fields map[string]any
}

// Hook runs before every call. A non-nil error fails the call without
// touching stored data. Hooks may block to simulate a slow store.
type Hook func(ctx context.Context, call Call) error

// Store holds rows per owner in memory.
type Store struct {
	mu    sync.Mutex
	calls []Call
	hook  Hook
	now   func() time.Time

	people *collection[models.Person]
	trees  *collection[models.Tree]
	posts  *collection[models.Post]

	postTags  *TagTable
	mediaTags *TagTable
}

// New returns an empty store.
func New() *Store {
	s := &Store{now: time.Now}
	s.people = &collection[models.Person]{
		s: s, kind: "person", rows: make(map[string]models.Person), notFound: models.ErrPersonNotFound,
		apply: func(p *models.Person, fields map[string]any) error {
			patch, err := models.DecodePatch[models.PersonPatch](fields)
			if err != nil {
				return err
			}
			patch.Apply(p)
			return nil
		},
		less: func(a, b models.Person) int { return cmp.Compare(a.Name, b.Name) },
	}
	s.trees = &collection[models.Tree]{
		s: s, kind: "tree", rows: make(map[string]models.Tree), notFound: models.ErrTreeNotFound,
		apply: func(t *models.Tree, fields map[string]any) error {
			patch, err := models.DecodePatch[models.TreePatch](fields)
			if err != nil {
				return err
			}
			return patch.Apply(t)
		},
		less: func(a, b models.Tree) int { return b.CreatedAt.Compare(a.CreatedAt) },
	}
	s.posts = &collection[models.Post]{
		s: s, kind: "post", rows: make(map[string]models.Post), notFound: models.ErrPostNotFound,
		apply: func(p *models.Post, fields map[string]any) error {
			patch, err := models.DecodePatch[models.PostPatch](fields)
			if err != nil {
				return err
			}
			patch.Apply(p)
			return nil
		},
		less: func(a, b models.Post) int { return b.CreatedAt.Compare(a.CreatedAt) },
	}
	s.postTags = &TagTable{s: s, kind: "post_tags", links: make(map[string]map[string]bool)}
	s.mediaTags = &TagTable{s: s, kind: "media_tags", links: make(map[string]map[string]bool)}
	return s
}

// SetHook installs h for every later call.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Calls returns every recorded call in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsFor returns the recorded calls matching kind and op.
func (s *Store) CallsFor(kind, op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Kind == kind && c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// People implements domain.RemoteStore.
func (s *Store) People() domain.Collection[models.Person] { return s.people }

// Trees implements domain.RemoteStore.
func (s *Store) Trees() domain.Collection[models.Tree] { return s.trees }

// Posts implements domain.RemoteStore.
func (s *Store) Posts() domain.Collection[models.Post] { return s.posts }

// PostTags implements domain.RemoteStore.
func (s *Store) PostTags() domain.TagRelation { return s.postTags }

// MediaTags implements domain.RemoteStore.
func (s *Store) MediaTags() domain.TagRelation { return s.mediaTags }

// PostTagTable returns the post_tags table for direct reads.
func (s *Store) PostTagTable() *TagTable { return s.postTags }

// MediaTagTable returns the media_tags table for direct reads.
func (s *Store) MediaTagTable() *TagTable { return s.mediaTags }

// TaggedPersons returns the persons tagged on a post.
func (s *Store) TaggedPersons(postID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.postTags.links[postID]))
}

func (s *Store) record(ctx context.Context, call Call) error {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		return hook(ctx, call)
	}
	return nil
}

type entity[T any] interface {
	EntityID() string
	Clone() T
}

type collection[T entity[T]] struct {
	s     *Store
	kind  string
	rows  map[string]T
	owner map[string]string
	apply func(*T, map[string]any) error
	less  func(a, b T) int

	notFound error
}

func (c *collection[T]) stamp(item *T) {
	switch v := any(item).(type) {
	case *models.Person:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = c.s.now().UTC()
		}
		v.UpdatedAt = c.s.now().UTC()
	case *models.Tree:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = c.s.now().UTC()
		}
	case *models.Post:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = c.s.now().UTC()
		}
	}
}

func (c *collection[T]) put(ownerID string, item T) T {
	if c.owner == nil {
		c.owner = make(map[string]string)
	}
	c.stamp(&item)
	c.rows[item.EntityID()] = item.Clone()
	c.owner[item.EntityID()] = ownerID
	return item
}

func (c *collection[T]) Create(ctx context.Context, ownerID string, item T) (*T, error) {
	if err := c.s.record(ctx, Call{Kind: c.kind, Op: "create", Owner: ownerID, ID: item.EntityID()}); err != nil {
		return nil, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, exists := c.rows[item.EntityID()]; exists {
		return nil, fmt.Errorf("%s %s: %w", c.kind, item.EntityID(), models.ErrDuplicateKey)
	}
	stored := c.put(ownerID, item)
	return &stored, nil
}

func (c *collection[T]) BulkUpsert(ctx context.Context, ownerID string, items []T) ([]T, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.EntityID())
	}
	if err := c.s.record(ctx, Call{Kind: c.kind, Op: "bulk_upsert", Owner: ownerID, IDs: ids}); err != nil {
		return nil, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]T, 0, len(items))
	for _, it := range items {
		if o, ok := c.owner[it.EntityID()]; ok && o != ownerID {
			return nil, fmt.Errorf("%s %s: %w", c.kind, it.EntityID(), models.ErrDuplicateKey)
		}
		out = append(out, c.put(ownerID, it))
	}
	return out, nil
}

func (c *collection[T]) List(ctx context.Context, ownerID string) ([]T, error) {
	if err := c.s.record(ctx, Call{Kind: c.kind, Op: "list", Owner: ownerID}); err != nil {
		return nil, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []T
	for id, row := range c.rows {
		if c.owner[id] == ownerID {
			out = append(out, row.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if r := c.less(a, b); r != 0 {
			return r
		}
		return cmp.Compare(a.EntityID(), b.EntityID())
	})
	return out, nil
}

func (c *collection[T]) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	if err := c.s.record(ctx, Call{Kind: c.kind, Op: "update", Owner: ownerID, ID: id, Fields: fields}); err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.rows[id]
	if !ok || c.owner[id] != ownerID {
		return fmt.Errorf("%s %s: %w", c.kind, id, c.notFound)
	}
	if err := c.apply(&row, fields); err != nil {
		return err
	}
	c.put(ownerID, row)
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, ownerID, id string) error {
	if err := c.s.record(ctx, Call{Kind: c.kind, Op: "delete", Owner: ownerID, ID: id}); err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.rows[id]; !ok || c.owner[id] != ownerID {
		return fmt.Errorf("%s %s: %w", c.kind, id, c.notFound)
	}
	delete(c.rows, id)
	delete(c.owner, id)

	// Join rows go with either side.
	for _, t := range []*TagTable{c.s.postTags, c.s.mediaTags} {
		delete(t.links, id)
		for _, persons := range t.links {
			delete(persons, id)
		}
	}
	return nil
}

// TagTable is an in-memory join table.
type TagTable struct {
	s     *Store
	kind  string
	links map[string]map[string]bool
}

// Tag links personIDs to entityID.
func (t *TagTable) Tag(ctx context.Context, ownerID, entityID string, personIDs []string) error {
	if err := t.s.record(ctx, Call{Kind: t.kind, Op: "tag", Owner: ownerID, ID: entityID, IDs: personIDs}); err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.links[entityID] == nil {
		t.links[entityID] = make(map[string]bool)
	}
	for _, p := range personIDs {
		t.links[entityID][p] = true
	}
	return nil
}

// Untag removes one link.
func (t *TagTable) Untag(ctx context.Context, ownerID, entityID, personID string) error {
	if err := t.s.record(ctx, Call{Kind: t.kind, Op: "untag", Owner: ownerID, ID: entityID, IDs: []string{personID}}); err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	delete(t.links[entityID], personID)
	return nil
}

// TaggedPersons returns the persons linked to entityID, sorted.
func (t *TagTable) TaggedPersons(ctx context.Context, ownerID, entityID string) ([]string, error) {
	if err := t.s.record(ctx, Call{Kind: t.kind, Op: "list", Owner: ownerID, ID: entityID}); err != nil {
		return nil, err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return slices.Sorted(maps.Keys(t.links[entityID])), nil
}
