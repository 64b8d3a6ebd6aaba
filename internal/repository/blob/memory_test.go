package blob

import (
	"context"
	"errors"
	"testing"

	"cartify/internal/domain"
)

func TestMemory_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	if err := repo.Set(ctx, KeyCart, "a"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, KeyCart, "b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := repo.Get(ctx, KeyCart)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "b" {
		t.Fatalf("expected last write, got %q", got)
	}

	if err := repo.Remove(ctx, KeyCart); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.Get(ctx, KeyCart); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}
