//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ineyio/usagemeter"
	storepg "github.com/ineyio/usagemeter/store/postgres"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "postgres://localhost:5432/usagemeter_test?sslmode=disable"
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("pgxpool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("postgres not available: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func newTestStore(t *testing.T, pool *pgxpool.Pool) *storepg.Store {
	t.Helper()
	// Use a unique table per test to avoid collisions.
	table := fmt.Sprintf("test_%s_kv", strings.ToLower(t.Name()))
	s := storepg.New(pool, storepg.WithTable(table))

	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})
	return s
}

func TestPutGet(t *testing.T) {
	pool := newTestPool(t)
	s := newTestStore(t, pool)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("missing key reported present")
	}

	if err := s.Put(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	val, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || val != "v1" {
		t.Fatalf("got (%q, %v), want (\"v1\", true)", val, ok)
	}

	// Upsert.
	if err := s.Put(ctx, "k1", "v2", 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	val, _, _ = s.Get(ctx, "k1")
	if val != "v2" {
		t.Fatalf("got %q after upsert, want \"v2\"", val)
	}
}

func TestExpiry(t *testing.T) {
	pool := newTestPool(t)
	s := newTestStore(t, pool)
	ctx := context.Background()

	if err := s.Put(ctx, "k1", "v1", time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("key present after expiry")
	}

	swept, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept %d rows, want 1", swept)
	}
}

func TestServiceOverPostgres(t *testing.T) {
	pool := newTestPool(t)
	s := newTestStore(t, pool)
	ctx := context.Background()

	svc, err := usagemeter.NewService(usagemeter.Config{}, s)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.CreditBalance(ctx, "u1", 1000); err != nil {
		t.Fatalf("credit: %v", err)
	}

	receipt, err := svc.Consume(ctx, "u1", "r1", usagemeter.Usage{InputUnits: 100, OutputUnits: 50})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if receipt.NewBalance != 850 {
		t.Fatalf("balance = %d, want 850", receipt.NewBalance)
	}

	replay, err := svc.Consume(ctx, "u1", "r1", usagemeter.Usage{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadySettled {
		t.Fatal("replay not reported as already settled")
	}
}
