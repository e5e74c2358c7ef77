package kvstore

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/customer-registry/internal/domain/repository"
	"github.com/jhoicas/customer-registry/internal/infrastructure/postgres"
	"github.com/jhoicas/customer-registry/pkg/config"
)

// Store slot clave/valor con recursos que liberar al apagar.
type Store interface {
	repository.KeyValueStore
	io.Closer
}

// Open construye el backend indicado por STORE_DRIVER.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLite.Path)
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		kv := postgres.NewKVStore(pool)
		if err := kv.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &pgStore{KVStore: kv, pool: pool}, nil
	case config.DriverRedis:
		return NewRedisStore(ctx, RedisConfig{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
			Prefix:       cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("kvstore: driver desconocido %q", cfg.Store.Driver)
	}
}

// pgStore ata el KVStore de postgres a su pool para poder cerrarlo.
type pgStore struct {
	*postgres.KVStore
	pool *pgxpool.Pool
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
