package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // driver sqlite en Go puro

	"github.com/jhoicas/customer-registry/internal/domain/repository"
)

var _ repository.KeyValueStore = (*SQLStore)(nil)

// SQLStore guarda el slot en una tabla kv(key, value) vía database/sql.
// Con SQLite es el equivalente local de un localStorage: un archivo en disco.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite abre (o crea) el archivo SQLite en path y prepara la tabla.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = "customers.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("crear directorio sqlite: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	// un solo escritor; evita "database is locked" con :memory: y conexiones múltiples
	db.SetMaxOpenConns(1)
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore construye el store sobre una conexión existente (no crea la tabla).
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate crea la tabla kv si no existe.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("crear tabla kv: %w", err)
	}
	return nil
}

// Get obtiene el valor de key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get kv: %w", err)
	}
	return value, true, nil
}

// Set sobrescribe el valor de key (upsert).
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set kv: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
