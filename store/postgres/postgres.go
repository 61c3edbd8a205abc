// Package postgres provides a PostgreSQL-backed Store for usagemeter.
//
// Records live in a single key/value table with an optional expiry
// column. The adapter exposes exactly the Store contract: plain reads
// and upsert writes, no transactions spanning calls. PostgreSQL could of
// course serialize the metering core's read-modify-write cycles, but the
// core is written against non-atomic primitives; hardening a deployment
// means moving those cycles into SQL, not widening this adapter.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ineyio/usagemeter"
)

// Store is a PostgreSQL-backed usagemeter.Store.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

var _ usagemeter.Store = (*Store)(nil)

// Option configures Store.
type Option func(*Store)

// WithTable sets the table name (default "usagemeter_kv").
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// New creates a new PostgreSQL-backed Store.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:  pool,
		table: "usagemeter_kv",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the required table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at TIMESTAMPTZ
		);
	`, s.table)
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("usagemeter/postgres: ensure schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key. Expired rows read as absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, s.table),
		key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %q: %v", usagemeter.ErrStoreUnavailable, key, err)
	}
	return value, true, nil
}

// Put writes value under key. A ttl of zero means no expiry.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, value, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`, s.table),
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: put %q: %v", usagemeter.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Sweep deletes expired rows. Expiry is otherwise enforced at read time;
// run Sweep periodically to keep the table from accumulating dead rows.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= now()`, s.table),
	)
	if err != nil {
		return 0, fmt.Errorf("usagemeter/postgres: sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
