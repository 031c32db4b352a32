package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/reconcile"
)

// FailureRecorder persists sync failures.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, ownerID string, f models.SyncFailure) error
}

// FailureWorker drains a cache's error channel and records each failure via a
// single goroutine.
type FailureWorker struct {
	recorder FailureRecorder
	log      *logrus.Logger
	ownerID  string
	errs     <-chan error
	now      func() time.Time
}

// NewFailureWorker creates a FailureWorker reading from cache.Errors().
func NewFailureWorker(cache *reconcile.Cache, recorder FailureRecorder, log *logrus.Logger) *FailureWorker {
	return &FailureWorker{
		recorder: recorder,
		log:      log,
		ownerID:  cache.OwnerID(),
		errs:     cache.Errors(),
		now:      time.Now,
	}
}

// Run records failures until the context is cancelled, then drains what is
// already buffered.
func (w *FailureWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case err := <-w.errs:
			w.process(err)
		}
	}
}

func (w *FailureWorker) drain() {
	for {
		select {
		case err := <-w.errs:
			w.process(err)
		default:
			return
		}
	}
}

func (w *FailureWorker) process(err error) {
	f := FailureFromError(err, w.now())
	if recErr := w.recorder.RecordFailure(context.Background(), w.ownerID, f); recErr != nil {
		w.log.WithError(recErr).WithField("kind", f.Kind).Warn("sync failure record failed")
	}
}

// FailureFromError flattens a reconcile error into a SyncFailure.
func FailureFromError(err error, at time.Time) models.SyncFailure {
	f := models.SyncFailure{Message: err.Error(), Chunk: -1, OccurredAt: at.UTC()}

	var se *reconcile.StoreError
	var te *reconcile.PartialTagError
	switch {
	case errors.As(err, &se):
		f.Kind = string(se.Kind)
		f.Op = string(se.Op)
		f.EntityIDs = se.IDs
		f.Chunk = se.Chunk
	case errors.As(err, &te):
		f.Kind = te.Relation
		f.Op = string(reconcile.OpTag)
		f.EntityIDs = []string{te.EntityID}
	default:
		f.Kind = "unknown"
	}
	return f
}
