package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/config"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/db"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/db/migrations"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/store"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = time.Hour
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the self-hosted family store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), dbpool.Options{MaxConns: dbpool.ConnsFor(cfg.SyncConcurrency), Log: log})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	remote := store.NewRemote(base)
	failures := store.NewFailureStore(base)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Store:         remote,
		PostTags:      remote.PostTagStore(),
		MediaTags:     remote.MediaTagStore(),
		Importer:      service.NewImporter(remote, failures, log, cfg.MaxGenerations),
		Failures:      failures,
		OwnerLookup:   store.NewOwnerStore(pool),
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		SchemaVersion: db.SchemaVersion(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		purgeFailures(gctx, failures, cfg.FailureRetention)
		return nil
	})

	return g.Wait()
}

// purgeFailures removes expired sync failures once per interval until ctx
// is done.
func purgeFailures(ctx context.Context, failures *store.FailureStore, retention time.Duration) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := failures.PurgeFailures(ctx, retention)
			if err != nil {
				log.WithError(err).Warn("purging sync failures")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Info("purged sync failures")
			}
		}
	}
}
