package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"goldwatch/internal/config"
)

const (
	createSnapshotTableSQL = `CREATE TABLE IF NOT EXISTS snapshots (
        key        TEXT PRIMARY KEY,
        body       TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	selectSnapshotSQL = `SELECT body FROM snapshots WHERE key = $1;`

	upsertSnapshotSQL = `INSERT INTO snapshots (key, body, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE
    SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at;`
)

// PostgresStore keeps the snapshot as a single keyed row.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresStore connects a pool and ensures the snapshots table exists.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createSnapshotTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}

	key := cfg.SnapshotKey
	if key == "" {
		key = "gold"
	}

	return &PostgresStore{pool: pool, key: key}, nil
}

// Fetch reads the snapshot row. A missing row yields ErrNotFound.
func (p *PostgresStore) Fetch(ctx context.Context) (string, error) {
	var body string
	err := p.pool.QueryRow(ctx, selectSnapshotSQL, p.key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select snapshot: %w", err)
	}
	return body, nil
}

// Put upserts the snapshot row.
func (p *PostgresStore) Put(ctx context.Context, text string) error {
	if _, err := p.pool.Exec(ctx, upsertSnapshotSQL, p.key, text); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

var _ Remote = (*PostgresStore)(nil)
