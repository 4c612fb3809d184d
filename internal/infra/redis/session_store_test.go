package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"formbuilder-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	if err := store.Create(ctx, "tok-1", 42); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !mr.Exists("session:tok-1") {
		t.Fatalf("expected redis key to be set")
	}

	userID, err := store.Lookup(ctx, "tok-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}

	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("session:tok-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	if err := store.Create(ctx, "tok-2", 7); err != nil {
		t.Fatalf("create session: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := store.Lookup(ctx, "tok-2"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after expiry, got %v", err)
	}
}

func TestSessionStoreUnknownToken(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	if _, err := store.Lookup(context.Background(), "missing"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
