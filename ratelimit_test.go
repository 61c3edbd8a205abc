package usagemeter

import (
	"context"
	"testing"
	"time"
)

// memStore is a minimal in-process Store; the store package is not
// imported here to avoid a cycle in in-package tests.
type memStore struct {
	items map[string]string
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key, value string, _ time.Duration) error {
	s.items[key] = value
	return nil
}

func newTestLimiter(max int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(newMemStore(), window, max, "window:")
	l.now = func() time.Time { return now }
	return l, &now
}

// Test 1: N requests within the window are admitted, the N+1th is rejected
func TestAllow_WindowExhaustion(t *testing.T) {
	const max = 5
	l, _ := newTestLimiter(max, time.Minute)
	ctx := context.Background()

	for i := 0; i < max; i++ {
		ok, err := l.Allow(ctx, "u1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d rejected, want admitted", i)
		}
	}

	ok, err := l.Allow(ctx, "u1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatal("request beyond max admitted, want rejected")
	}
}

// Test 2: the counter resets once the window has elapsed
func TestAllow_WindowRollover(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("first request: ok=%v err=%v", ok, err)
	}
	ok, _ = l.Allow(ctx, "u1")
	if ok {
		t.Fatal("second request in window admitted, want rejected")
	}

	*now = now.Add(time.Minute)

	ok, err = l.Allow(ctx, "u1")
	if err != nil {
		t.Fatalf("allow after rollover: %v", err)
	}
	if !ok {
		t.Fatal("request after rollover rejected, want admitted")
	}
}

// Test 3: accounts are limited independently
func TestAllow_AccountsIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "u1")
	if !ok {
		t.Fatal("u1 rejected")
	}
	ok, _ = l.Allow(ctx, "u2")
	if !ok {
		t.Fatal("u2 rejected, accounts should not share a window")
	}
}

// Test 4: a malformed window record starts a fresh window
func TestAllow_MalformedRecordResets(t *testing.T) {
	ms := newMemStore()
	l := NewLimiter(ms, time.Minute, 1, "window:")
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ms.items["window:u1"] = "garbage"

	ok, err := l.Allow(ctx, "u1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatal("request on malformed record rejected, want fresh window")
	}

	if got := ms.items["window:u1"]; got != "1700000000:1" {
		t.Fatalf("window record = %q, want fresh window", got)
	}
}

// Test 5: a failed bookkeeping write on a fresh window still admits
func TestAllow_FreshWindowWriteBestEffort(t *testing.T) {
	l := NewLimiter(failPutStore{}, time.Minute, 1, "window:")

	ok, err := l.Allow(context.Background(), "u1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatal("fresh-window request rejected on write failure, want admitted")
	}
}

type failPutStore struct{}

func (failPutStore) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (failPutStore) Put(context.Context, string, string, time.Duration) error {
	return ErrStoreUnavailable
}
