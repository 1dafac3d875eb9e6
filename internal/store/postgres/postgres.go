// Package postgres implements the state store on a single PostgreSQL
// table. Durability is the database's responsibility; the core only
// sees the store.KV contract.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nftwatch/mewatch/internal/config"
	"github.com/nftwatch/mewatch/internal/store"
)

// schema is applied on connect. One row per namespaced key.
const schema = `
CREATE TABLE IF NOT EXISTS watch_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// KV is a PostgreSQL-backed implementation of store.KV.
type KV struct {
	pool *pgxpool.Pool
}

// Connect creates a connection pool, verifies it, and ensures the
// state table exists.
func Connect(ctx context.Context, cfg config.DBConfig) (*KV, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &KV{pool: pool}, nil
}

// Close closes the connection pool.
func (s *KV) Close() {
	s.pool.Close()
}

// Ping verifies the connection is healthy.
func (s *KV) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Get returns the value at key, or store.ErrNotFound.
func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM watch_state WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value at key, creating or overwriting.
func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *KV) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM watch_state WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Scan returns all entries whose key starts with prefix. The prefix is
// matched literally: collection symbols contain underscores, which LIKE
// would otherwise treat as single-character wildcards.
func (s *KV) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM watch_state WHERE key LIKE $1 || '%' ESCAPE '\'`,
		escapeLike(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %q: %w", prefix, err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %q: %w", prefix, err)
	}
	return out, nil
}

// escapeLike escapes LIKE metacharacters so a prefix matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var _ store.KV = (*KV)(nil)
