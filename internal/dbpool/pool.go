// Package dbpool opens the PostgreSQL pool shared by the owner, family and
// sync failure stores.
package dbpool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxConns         = 10
	defaultStatementTimeout = 30 * time.Second

	// readHeadroom is kept free for API reads while imports push.
	readHeadroom = 4
)

// Options tunes a pool. Zero values select the defaults.
type Options struct {
	// MaxConns bounds open connections. Every push of a server-side import
	// holds one connection for its transaction, so serve derives this from
	// SYNC_CONCURRENCY with ConnsFor.
	MaxConns int32

	// StatementTimeout caps one statement. A full bulk chunk is the slowest
	// statement the stores issue.
	StatementTimeout time.Duration

	// Log receives a line when the pool is ready. Nil disables it.
	Log *logrus.Logger
}

// ConnsFor sizes a pool for syncConcurrency concurrent pushes.
func ConnsFor(syncConcurrency int) int32 {
	if syncConcurrency < 1 {
		syncConcurrency = 1
	}
	return int32(syncConcurrency + readHeadroom) //nolint:gosec // config caps SYNC_CONCURRENCY at 64.
}

// Pool wraps a pgxpool.Pool. The underlying pool is unexported so stores go
// through Begin/BeginTx and set the owner context on every transaction.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL and pings it before returning.
func NewPool(ctx context.Context, databaseURL string, opts Options) (*Pool, error) {
	cfg, err := poolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if opts.Log != nil {
		opts.Log.WithFields(logrus.Fields{
			"host":      cfg.ConnConfig.Host,
			"database":  cfg.ConnConfig.Database,
			"max_conns": cfg.MaxConns,
		}).Info("database pool ready")
	}

	return &Pool{pool: pool}, nil
}

func poolConfig(databaseURL string, opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	timeout := opts.StatementTimeout
	if timeout <= 0 {
		timeout = defaultStatementTimeout
	}
	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	cfg.ConnConfig.RuntimeParams["application_name"] = "eternal"

	cfg.MaxConns = opts.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultMaxConns
	}
	cfg.MinConns = min(2, cfg.MaxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return cfg, nil
}

// Exec executes a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, arguments...)
}

// QueryRow executes a query that returns at most one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Begin starts a read-write transaction.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// BeginTx starts a transaction with the given options.
func (p *Pool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) { //nolint:gocritic // matching pgxpool.Pool signature.
	return p.pool.BeginTx(ctx, txOptions)
}

// HealthCheck runs a trivial query so readiness reflects a usable connection,
// not just an open socket.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}
	return nil
}

// ConnString returns the connection string goose migrations reopen.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Close closes every connection.
func (p *Pool) Close() {
	p.pool.Close()
}
