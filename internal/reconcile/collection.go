package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// entity is implemented by models.Person, models.Tree and models.Post.
type entity[T any] interface {
	EntityID() string
	Clone() T
}

// Diff describes what a mutation changed relative to the snapshot.
type Diff struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty reports whether the mutation produced no remote work.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0
}

type change[T any] struct {
	before T
	after  T
}

// Collection is the working copy of one remote collection.
//
// snapshot holds, per id, the value most recently handed to the store; new
// mutations are diffed against it. confirmed holds the value the store last
// acknowledged, which is where snapshot falls back to when a write fails so
// that the next mutation retries it.
type Collection[T entity[T]] struct {
	kind   Kind
	cache  *Cache
	remote domain.Collection[T]

	mu        sync.Mutex
	items     []T
	snapshot  map[string]T
	confirmed map[string]T

	refresh singleflight.Group
}

func newCollection[T entity[T]](c *Cache, kind Kind, remote domain.Collection[T]) *Collection[T] {
	return &Collection[T]{
		kind:      kind,
		cache:     c,
		remote:    remote,
		snapshot:  make(map[string]T),
		confirmed: make(map[string]T),
	}
}

func cloneAll[T entity[T]](items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

// Items returns a copy of the working set in order.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.items)
}

// Get returns a copy of the item with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.EntityID() == id {
			return it.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of items in the working set.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ReplaceAll loads items as both the working set and the snapshot. It issues
// no writes.
func (c *Collection[T]) ReplaceAll(items []T) {
	if c.cache.closed.Load() {
		return
	}

	items = dedupe(items, c.cache.log, c.kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = cloneAll(items)
	c.snapshot = make(map[string]T, len(items))
	c.confirmed = make(map[string]T, len(items))
	for _, it := range items {
		c.snapshot[it.EntityID()] = it.Clone()
		c.confirmed[it.EntityID()] = it.Clone()
	}
}

// Refresh lists the collection from the store and replaces the working set.
// Concurrent refreshes share one List call.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("list", func() (any, error) {
		items, err := c.remote.List(ctx, c.cache.ownerID)
		if err != nil {
			countPush(string(c.kind), OpList, err)
			return nil, &StoreError{Kind: c.kind, Op: OpList, Chunk: -1, Err: err}
		}
		countPush(string(c.kind), OpList, nil)
		c.ReplaceAll(items)
		return nil, nil
	})
	return err
}

// Mutate applies update to a copy of the working set, stores the result and
// schedules the writes that bring the store in line with it. It returns the
// new working set without waiting for the store.
//
// Items dropped by update are not deleted remotely; use Delete for that.
// update runs under the collection lock and must not call back into it.
func (c *Collection[T]) Mutate(update func(items []T) []T) ([]T, Diff) {
	if c.cache.closed.Load() {
		return c.Items(), Diff{}
	}

	c.mu.Lock()
	next := dedupe(update(cloneAll(c.items)), c.cache.log, c.kind)
	c.items = cloneAll(next)

	var (
		diff    Diff
		added   []T
		changed []change[T]
	)
	present := make(map[string]bool, len(next))
	for _, it := range next {
		id := it.EntityID()
		present[id] = true
		before, known := c.snapshot[id]
		switch {
		case !known:
			added = append(added, it.Clone())
			diff.Added = append(diff.Added, id)
		case !models.Equal(before, it):
			changed = append(changed, change[T]{before: before, after: it.Clone()})
			diff.Changed = append(diff.Changed, id)
		default:
			continue
		}
		c.snapshot[id] = it.Clone()
	}
	for id := range c.snapshot {
		if !present[id] {
			diff.Removed = append(diff.Removed, id)
		}
	}
	result := cloneAll(c.items)
	c.mu.Unlock()

	if len(diff.Removed) > 0 {
		slices.Sort(diff.Removed)
		c.cache.log.WithFields(logrus.Fields{
			"kind":    c.kind,
			"removed": len(diff.Removed),
		}).Debug("items dropped by mutation are kept remotely until deleted")
	}

	switch len(added) {
	case 0:
	case 1:
		c.pushCreate(added[0], false)
	default:
		c.pushBulk(added)
	}
	for _, ch := range changed {
		c.pushUpdate(ch.before, ch.after)
	}

	return result, diff
}

// CreateOptimistic adds item to the working set and creates it remotely. If
// the store rejects the create the item is removed again and the failure is
// reported.
func (c *Collection[T]) CreateOptimistic(item T) (T, error) {
	if c.cache.closed.Load() {
		return item, ErrClosed
	}

	id := item.EntityID()

	c.mu.Lock()
	if slices.ContainsFunc(c.items, func(it T) bool { return it.EntityID() == id }) {
		c.mu.Unlock()
		return item, fmt.Errorf("%w: %s %s", ErrDuplicateID, c.kind, id)
	}
	c.items = append(c.items, item.Clone())
	c.snapshot[id] = item.Clone()
	c.mu.Unlock()

	c.pushCreate(item.Clone(), true)
	return item, nil
}

// Delete removes id from the working set and deletes it remotely. A failed
// remote delete is reported but the local removal stands.
func (c *Collection[T]) Delete(id string) error {
	if c.cache.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(it T) bool { return it.EntityID() == id })
	_, inSnapshot := c.snapshot[id]
	_, inConfirmed := c.confirmed[id]
	delete(c.snapshot, id)
	delete(c.confirmed, id)
	c.mu.Unlock()

	if !inSnapshot && !inConfirmed {
		return nil
	}

	c.cache.disp.submit([]string{key(c.kind, id)}, func(ctx context.Context) {
		err := c.remote.Delete(ctx, c.cache.ownerID, id)
		c.count(OpDelete, err)
		if err != nil {
			c.cache.report(&StoreError{Kind: c.kind, Op: OpDelete, IDs: []string{id}, Chunk: -1, Err: err})
		}
	})
	return nil
}

func (c *Collection[T]) pushCreate(item T, rollback bool) {
	id := item.EntityID()
	c.cache.disp.submit([]string{key(c.kind, id)}, func(ctx context.Context) {
		_, err := c.remote.Create(ctx, c.cache.ownerID, item)
		c.count(OpCreate, err)
		if c.cache.closed.Load() {
			return
		}
		if err != nil {
			c.revert(id)
			if rollback {
				c.removeLocal(id)
			}
			c.cache.report(&StoreError{Kind: c.kind, Op: OpCreate, IDs: []string{id}, Chunk: -1, Err: err})
			return
		}
		c.confirm(item)
	})
}

func (c *Collection[T]) pushUpdate(before, after T) {
	id := after.EntityID()
	fields, err := models.ChangedFields(before, after)
	if err != nil {
		c.cache.report(&StoreError{Kind: c.kind, Op: OpUpdate, IDs: []string{id}, Chunk: -1, Err: err})
		return
	}
	if len(fields) == 0 {
		return
	}

	c.cache.disp.submit([]string{key(c.kind, id)}, func(ctx context.Context) {
		err := c.remote.Update(ctx, c.cache.ownerID, id, fields)
		c.count(OpUpdate, err)
		if c.cache.closed.Load() {
			return
		}
		if err != nil {
			c.revert(id)
			c.cache.report(&StoreError{Kind: c.kind, Op: OpUpdate, IDs: []string{id}, Chunk: -1, Err: err})
			return
		}
		c.confirm(after)
	})
}

// pushBulk writes items in sequential chunks within one job. The first
// failing chunk stops the job; it and every later chunk are left for the
// next mutation to retry.
func (c *Collection[T]) pushBulk(items []T) {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, key(c.kind, it.EntityID()))
	}

	size := c.cache.chunkSize
	c.cache.disp.submit(keys, func(ctx context.Context) {
		committed := 0
		for i, chunk := range chunks(items, size) {
			_, err := c.remote.BulkUpsert(ctx, c.cache.ownerID, chunk)
			c.count(OpBulkUpsert, err)
			if c.cache.closed.Load() {
				continue
			}
			if err != nil {
				rest := items[committed:]
				for _, it := range rest {
					c.revert(it.EntityID())
				}
				c.cache.report(&StoreError{
					Kind:      c.kind,
					Op:        OpBulkUpsert,
					IDs:       ids(chunk),
					Chunk:     i,
					Committed: committed,
					Err:       err,
				})
				return
			}
			for _, it := range chunk {
				c.confirm(it)
			}
			committed += len(chunk)
		}
		c.cache.log.WithFields(logrus.Fields{
			"kind":      c.kind,
			"committed": committed,
		}).Debug("bulk push complete")
	})
}

func (c *Collection[T]) confirm(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmed[item.EntityID()] = item.Clone()
}

// revert points the snapshot back at the last acknowledged value so the next
// mutation re-issues the write.
func (c *Collection[T]) revert(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.confirmed[id]; ok {
		c.snapshot[id] = v.Clone()
		return
	}
	delete(c.snapshot, id)
}

func (c *Collection[T]) removeLocal(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.DeleteFunc(c.items, func(it T) bool { return it.EntityID() == id })
}

func (c *Collection[T]) count(op Op, err error) {
	countPush(string(c.kind), op, err)
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func ids[T entity[T]](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.EntityID())
	}
	return out
}

// dedupe keeps the first item for every id.
func dedupe[T entity[T]](items []T, log *logrus.Logger, kind Kind) []T {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		id := it.EntityID()
		if seen[id] {
			log.WithFields(logrus.Fields{"kind": kind, "id": id}).Warn("duplicate id in collection, keeping first")
			continue
		}
		seen[id] = true
		out = append(out, it)
	}
	return out
}
