package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/client"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/config"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/reconcile"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/supabase"
)

const (
	backendHTTP     = "http"
	backendSupabase = "supabase"
	backendMemory   = "memory"
)

// session is an open cache over the selected backend plus the worker that
// records its failures.
type session struct {
	cfg     *config.Config
	cache   *reconcile.Cache
	svc     *service.FamilyService
	failed  int
	stop    context.CancelFunc
	stopped chan struct{}
}

// countingRecorder counts failures before handing them on.
type countingRecorder struct {
	s     *session
	inner service.FailureRecorder
}

func (r *countingRecorder) RecordFailure(ctx context.Context, ownerID string, f models.SyncFailure) error {
	r.s.failed++
	return r.inner.RecordFailure(ctx, ownerID, f)
}

// logRecorder records failures to the log only.
type logRecorder struct{ log *logrus.Logger }

func (r logRecorder) RecordFailure(_ context.Context, _ string, f models.SyncFailure) error {
	r.log.WithFields(logrus.Fields{
		"kind":  f.Kind,
		"op":    f.Op,
		"ids":   f.EntityIDs,
		"chunk": f.Chunk,
	}).Warn(f.Message)
	return nil
}

func newAPIClient() *client.Client {
	var opts []client.Option
	if flagKey != "" {
		opts = append(opts, client.WithAPIKey(flagKey))
	}
	opts = append(opts,
		client.WithTimeout(60*time.Second),
		client.WithCircuitBreaker("eternal-api", 5, 30*time.Second),
	)
	return client.New(flagURL, opts...)
}

// openRemote returns the store for the selected backend, the owner id to
// scope the cache to, and where its failures go.
func openRemote(ctx context.Context, cfg *config.Config) (domain.RemoteStore, string, service.FailureRecorder, error) {
	switch flagBackend {
	case backendHTTP:
		c := newAPIClient()
		ownerID, err := c.OwnerID(ctx)
		if err != nil {
			return nil, "", nil, fmt.Errorf("resolving owner: %w", err)
		}
		return client.Remote(c), ownerID, c.SyncFailures, nil
	case backendSupabase:
		if !cfg.HasSupabase() {
			return nil, "", nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
		if flagOwner == "" {
			return nil, "", nil, fmt.Errorf("--owner is required for the supabase backend")
		}
		s, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey.Value(), log)
		if err != nil {
			return nil, "", nil, err
		}
		return s, flagOwner, logRecorder{log}, nil
	case backendMemory:
		return memstore.New(), "dry-run", logRecorder{log}, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown backend %q (want http, supabase or memory)", flagBackend)
	}
}

// openSession loads the owner's people and trees into a fresh cache and
// starts recording failures. A negative generations selects MAX_GENERATIONS.
func openSession(ctx context.Context, generations int) (*session, error) {
	cfg, err := config.LoadSync()
	if err != nil {
		return nil, err
	}

	remote, ownerID, recorder, err := openRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache := reconcile.New(remote, ownerID, log,
		reconcile.WithChunkSize(cfg.BulkChunkSize),
		reconcile.WithConcurrency(cfg.SyncConcurrency),
	)

	if err := cache.People.Refresh(ctx); err != nil {
		cache.Close()
		return nil, fmt.Errorf("loading people: %w", err)
	}
	if err := cache.Trees.Refresh(ctx); err != nil {
		cache.Close()
		return nil, fmt.Errorf("loading trees: %w", err)
	}

	if generations < 0 {
		generations = cfg.MaxGenerations
	}

	s := &session{
		cfg:     cfg,
		cache:   cache,
		svc:     service.NewFamilyService(cache, log, generations),
		stopped: make(chan struct{}),
	}

	workerCtx, stop := context.WithCancel(context.Background())
	s.stop = stop
	worker := service.NewFailureWorker(cache, &countingRecorder{s: s, inner: recorder}, log)
	go func() {
		defer close(s.stopped)
		worker.Run(workerCtx)
	}()

	return s, nil
}

// close waits for every pending write, drains the failures and returns how
// many writes failed.
func (s *session) close() int {
	s.cache.Wait()
	s.stop()
	<-s.stopped
	s.cache.Close()
	return s.failed
}
