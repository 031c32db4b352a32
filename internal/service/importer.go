package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/reconcile"
)

// ErrTreeNotStored means the store rejected the imported tree, so the import
// left no tree behind. Persons written before the failure stay stored.
var ErrTreeNotStored = errors.New("imported tree was not stored")

// importErrorBuffer holds every failure of one import; an import issues at
// most a handful of jobs per chunk.
const importErrorBuffer = 1024

// ImportOutcome is the result of a server-side import once every write has
// settled.
type ImportOutcome struct {
	Tree     models.Tree          `json:"tree"`
	People   []models.Person      `json:"people"`
	Added    int                  `json:"added"`
	Updated  int                  `json:"updated"`
	Skipped  int                  `json:"skipped"`
	Failures []models.SyncFailure `json:"failures,omitempty"`
}

// Importer runs GEDCOM imports for any owner against a remote store. Each
// import loads the owner's persons first so a re-import merges instead of
// overwriting edits made since.
type Importer struct {
	store          domain.RemoteStore
	recorder       FailureRecorder
	log            *logrus.Logger
	maxGenerations int
}

// NewImporter creates an Importer. recorder may be nil. A negative
// maxGenerations selects DefaultMaxGenerations.
func NewImporter(store domain.RemoteStore, recorder FailureRecorder, log *logrus.Logger, maxGenerations int) *Importer {
	if maxGenerations < 0 {
		maxGenerations = DefaultMaxGenerations
	}
	return &Importer{store: store, recorder: recorder, log: log, maxGenerations: maxGenerations}
}

// Import parses text for ownerID and waits for the resulting writes. A
// negative maxGenerations (DefaultGenerations) selects the importer's bound.
// Person write failures do not fail the import; they are returned in the
// outcome and recorded. A rejected tree fails it with ErrTreeNotStored.
func (im *Importer) Import(ctx context.Context, ownerID, text string, maxGenerations int, opts ...gedcom.Option) (*ImportOutcome, error) {
	if maxGenerations < 0 {
		maxGenerations = im.maxGenerations
	}

	cache := reconcile.New(im.store, ownerID, im.log, reconcile.WithErrorBuffer(importErrorBuffer))
	defer cache.Close()

	if err := cache.People.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("loading people: %w", err)
	}

	svc := NewFamilyService(cache, im.log, maxGenerations)
	rep, err := svc.ImportGEDCOM(text, opts...)
	if err != nil {
		return nil, err
	}
	cache.Wait()

	out := &ImportOutcome{
		Tree:    rep.Tree,
		Added:   rep.Added,
		Updated: rep.Updated,
		Skipped: rep.Skipped,
	}
	for _, id := range rep.Tree.MemberIDs {
		if p, ok := cache.People.Get(id); ok {
			out.People = append(out.People, p)
		}
	}

	now := time.Now()
drain:
	for {
		select {
		case err := <-cache.Errors():
			f := FailureFromError(err, now)
			out.Failures = append(out.Failures, f)
			if im.recorder == nil {
				continue
			}
			if recErr := im.recorder.RecordFailure(ctx, ownerID, f); recErr != nil {
				im.log.WithError(recErr).Warn("sync failure record failed")
			}
		default:
			break drain
		}
	}

	if _, ok := cache.Trees.Get(rep.Tree.ID); !ok {
		return nil, fmt.Errorf("%w: %s (%d failed writes)", ErrTreeNotStored, rep.Tree.ID, len(out.Failures))
	}

	return out, nil
}
