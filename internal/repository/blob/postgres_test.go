package blob

import (
	"context"
	"errors"
	"os"
	"testing"

	"cartify/internal/domain"
	"cartify/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE kv_blobs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	repo := NewPostgres(pool, "till-1", nil)
	other := NewPostgres(pool, "till-2", nil)

	if err := repo.Set(ctx, KeyUser, `{"name":"Ana"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, KeyUser, `{"name":"Bo"}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := repo.Get(ctx, KeyUser)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"name":"Bo"}` {
		t.Fatalf("unexpected value %q", got)
	}

	if _, err := other.Get(ctx, KeyUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("namespaces leaked: %v", err)
	}

	if err := repo.Remove(ctx, KeyUser); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.Get(ctx, KeyUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Remove(ctx, KeyUser); err != nil {
		t.Fatalf("Remove of missing key: %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
