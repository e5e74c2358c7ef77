package kvstore_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/customer-registry/internal/domain/repository"
	"github.com/jhoicas/customer-registry/internal/infrastructure/kvstore"
	"github.com/jhoicas/customer-registry/pkg/config"
)

// contractTest verifica el contrato de KeyValueStore: ausente, set, sobrescritura.
func contractTest(t *testing.T, store repository.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "customers")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "customers", `[{"id":1}]`))
	v, found, err := store.Get(ctx, "customers")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, store.Set(ctx, "customers", `[]`))
	v, _, err = store.Get(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "Set sobrescribe, no combina")

	_, found, err = store.Get(ctx, "otra")
	require.NoError(t, err)
	assert.False(t, found, "las claves son independientes")
}

func TestMemoryStore_Contrato(t *testing.T) {
	contractTest(t, kvstore.NewMemoryStore())
}

func TestSQLiteStore_Contrato(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "customers.db")
	store, err := kvstore.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	contractTest(t, store)
}

func TestSQLiteStore_SobreviveReapertura(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "customers.db")

	store, err := kvstore.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "customers", `[{"id":7}]`))
	require.NoError(t, store.Close())

	reopened, err := kvstore.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	v, found, err := reopened.Get(ctx, "customers")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":7}]`, v)
}

func TestSQLStore_ErroresSeEnvuelven(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := kvstore.NewSQLStore(db)
	mock.ExpectQuery("SELECT value FROM kv").WithArgs("customers").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("INSERT INTO kv").WithArgs("customers", "[]").
		WillReturnError(errors.New("database is locked"))

	_, _, err = store.Get(context.Background(), "customers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get kv")

	err = store.Set(context.Background(), "customers", "[]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set kv")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// fakeS3 bucket en memoria que implementa kvstore.S3API.
type fakeS3 struct {
	objects map[string]string
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(b)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Contrato(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	contractTest(t, kvstore.NewS3StoreWithClient(fake, "crm-bucket", "crm/"))

	require.NotEmpty(t, fake.puts)
	assert.Equal(t, "crm-bucket", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "crm/customers.json", aws.ToString(fake.puts[0].Key))
	assert.Equal(t, "application/json", aws.ToString(fake.puts[0].ContentType))
}

func TestNewS3Store_RequiereBucket(t *testing.T) {
	_, err := kvstore.NewS3Store(context.Background(), kvstore.S3Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestRedisStore_SinServidor_DevuelveError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := kvstore.NewRedisStoreWithClient(client, "crm:")
	t.Cleanup(func() { _ = store.Close() })

	_, _, err := store.Get(context.Background(), "customers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get")

	err = store.Set(context.Background(), "customers", "[]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}

func TestOpen_Memory(t *testing.T) {
	store, err := kvstore.Open(context.Background(), &config.Config{
		Store: config.StoreConfig{Driver: config.DriverMemory, Key: "customers"},
	})
	require.NoError(t, err)
	defer store.Close()
	contractTest(t, store)
}

func TestOpen_SQLite(t *testing.T) {
	store, err := kvstore.Open(context.Background(), &config.Config{
		Store:  config.StoreConfig{Driver: config.DriverSQLite, Key: "customers"},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "crm.db")},
	})
	require.NoError(t, err)
	defer store.Close()
	contractTest(t, store)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := kvstore.Open(context.Background(), &config.Config{
		Store: config.StoreConfig{Driver: "etcd"},
	})
	assert.Error(t, err)
}
