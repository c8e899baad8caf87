package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// connStringVars are the environment variables checked, in priority order,
// for the Postgres connection string.
var connStringVars = []string{
	"DATABASE_URL",
	"POSTGRES_URL",
	"POSTGRES_CONNECTION_STRING",
}

// ErrNotConfigured is returned when none of the connection string
// environment variables is set. It is surfaced verbatim and never retried.
var ErrNotConfigured = errors.New(
	"DATABASE_URL is not set. Provide a Postgres connection string to enable database access")

const (
	maxConns        = 5
	maxConnIdleTime = 30 * time.Second
)

// PingResult is the health probe response: server time and database name.
type PingResult struct {
	OK       bool   `json:"ok"`
	Now      string `json:"now"`
	Database string `json:"database"`
}

// Manager owns the process-wide connection pool. The pool is constructed
// lazily on first Get and can be torn down with Close, after which Get
// re-initializes. All methods are safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewManager returns a manager whose pool is built from the environment on
// first use.
func NewManager() *Manager {
	return &Manager{}
}

// ManagerForPool wraps an already-constructed pool. Used by tests and
// one-shot tools that build their own pool.
func ManagerForPool(pool *pgxpool.Pool) *Manager {
	return &Manager{pool: pool}
}

func connString() string {
	for _, name := range connStringVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Get returns the shared pool, constructing it on first use.
func (m *Manager) Get(ctx context.Context) (*pgxpool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		return m.pool, nil
	}

	connStr := connString()
	if connStr == "" {
		return nil, ErrNotConfigured
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	config.MaxConns = maxConns
	config.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	m.pool = pool
	return pool, nil
}

// Close tears down the pool and resets the manager so Get can
// re-initialize. Safe to call on a manager that was never used.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
}

// Ping runs a trivial round-trip query and reports server time and the
// connected database name.
func (m *Manager) Ping(ctx context.Context) (*PingResult, error) {
	pool, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}

	var now time.Time
	var database string
	if err := pool.QueryRow(ctx,
		"SELECT now() AS now, current_database() AS database",
	).Scan(&now, &database); err != nil {
		return nil, fmt.Errorf("ping query: %w", err)
	}

	return &PingResult{
		OK:       true,
		Now:      now.UTC().Format(time.RFC3339),
		Database: database,
	}, nil
}
