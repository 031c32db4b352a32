// Package reconcile keeps an in-memory working copy of an owner's family
// graph and pushes its changes to a remote store in the background.
//
// Every mutation returns immediately with the new local state. The cache
// diffs the result against the last state handed to the store and issues
// only the writes needed to converge: creates for new ids, updates carrying
// the changed fields for modified ids. Writes for one entity are issued in
// mutation order; writes for different entities run concurrently. Failures
// are reported on the error channel and never undo local edits, except for
// an optimistic create that the store rejected.
package reconcile

import (
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/metrics"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

const defaultErrorBuffer = 64

// Cache is the working copy of one owner's persons, trees and posts.
type Cache struct {
	People *Collection[models.Person]
	Trees  *Collection[models.Tree]
	Posts  *Collection[models.Post]

	store     domain.RemoteStore
	ownerID   string
	log       *logrus.Logger
	disp      *dispatcher
	errs      chan error
	onError   func(error)
	closed    atomic.Bool
	chunkSize int
}

type config struct {
	chunkSize   int
	concurrency int
	errorBuffer int
	onError     func(error)
}

// Option configures a Cache.
type Option func(*config)

// WithChunkSize sets how many items one bulk write carries.
func WithChunkSize(n int) Option {
	return func(c *config) { c.chunkSize = n }
}

// WithConcurrency bounds how many pushes run at once.
func WithConcurrency(n int) Option {
	return func(c *config) { c.concurrency = n }
}

// WithErrorBuffer sets the capacity of the error channel.
func WithErrorBuffer(n int) Option {
	return func(c *config) { c.errorBuffer = n }
}

// WithErrorHandler registers fn to receive every reported error in addition
// to the error channel. fn runs on a push goroutine and must not block.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

// New creates an empty cache for ownerID backed by store.
func New(store domain.RemoteStore, ownerID string, log *logrus.Logger, opts ...Option) *Cache {
	cfg := config{
		chunkSize:   domain.BulkChunkSize,
		errorBuffer: defaultErrorBuffer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = domain.BulkChunkSize
	}
	if cfg.errorBuffer <= 0 {
		cfg.errorBuffer = defaultErrorBuffer
	}

	c := &Cache{
		store:     store,
		ownerID:   ownerID,
		log:       log,
		disp:      newDispatcher(log, cfg.concurrency),
		errs:      make(chan error, cfg.errorBuffer),
		onError:   cfg.onError,
		chunkSize: cfg.chunkSize,
	}
	c.People = newCollection(c, KindPerson, store.People())
	c.Trees = newCollection(c, KindTree, store.Trees())
	c.Posts = newCollection(c, KindPost, store.Posts())
	return c
}

// OwnerID returns the owner whose data the cache holds.
func (c *Cache) OwnerID() string { return c.ownerID }

// Errors returns the channel on which push failures are delivered. When the
// channel is full further errors are logged and dropped. It is never closed.
func (c *Cache) Errors() <-chan error { return c.errs }

// Wait blocks until every push issued so far has finished.
func (c *Cache) Wait() { c.disp.wait() }

// Close tears the cache down. Pushes already issued still reach the store,
// but their results are discarded: nothing in memory changes and no error is
// reported after Close returns. Later writes fail with ErrClosed.
func (c *Cache) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.log.WithField("owner_id", c.ownerID).Debug("reconciliation cache closed")
}

// Closed reports whether Close has been called.
func (c *Cache) Closed() bool { return c.closed.Load() }

func (c *Cache) report(err error) {
	if c.closed.Load() {
		return
	}

	fields := logrus.Fields{"owner_id": c.ownerID}
	var se *StoreError
	var te *PartialTagError
	switch {
	case errors.As(err, &se):
		fields["kind"] = se.Kind
		fields["op"] = se.Op
		metrics.ErrorsTotal.WithLabelValues("reconcile_store").Inc()
	case errors.As(err, &te):
		fields["relation"] = te.Relation
		fields["entity_id"] = te.EntityID
		metrics.ErrorsTotal.WithLabelValues("reconcile_tag").Inc()
	}
	c.log.WithError(err).WithFields(fields).Warn("remote write failed")

	if c.onError != nil {
		c.onError(err)
	}

	select {
	case c.errs <- err:
	default:
		metrics.DroppedErrors.Inc()
		c.log.WithError(err).Warn("reconcile error channel full, dropping error")
	}
}

func key(kind Kind, id string) string {
	return string(kind) + ":" + id
}

func countPush(kind string, op Op, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.PushesTotal.WithLabelValues(kind, string(op), result).Inc()
}
