package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/customer-registry/internal/domain/repository"
)

var _ repository.KeyValueStore = (*KVStore)(nil)

// Querier subconjunto común de *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KVStore implementación de KeyValueStore sobre la tabla kv_store (usable con pool o tx).
type KVStore struct {
	q Querier
}

// NewKVStore construye el adaptador. Pasar pool o tx (Querier).
func NewKVStore(q Querier) *KVStore {
	return &KVStore{q: q}
}

// Migrate crea la tabla kv_store si no existe.
func (s *KVStore) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("crear tabla kv_store: %w", err)
	}
	return nil
}

// Get obtiene el valor de key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.q.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		if isUndefinedTable(err) {
			return "", false, fmt.Errorf("get kv_store (¿falta Migrate?): %w", err)
		}
		return "", false, fmt.Errorf("get kv_store: %w", err)
	}
	return value, true, nil
}

// Set sobrescribe el valor de key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set kv_store: %w", err)
	}
	return nil
}
