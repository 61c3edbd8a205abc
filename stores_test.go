package usagemeter_test

import (
	"context"
	"strings"
	"time"

	um "github.com/ineyio/usagemeter"
	"github.com/ineyio/usagemeter/store"
)

// errStore fails every operation.
type errStore struct{}

func (errStore) Get(context.Context, string) (string, bool, error) {
	return "", false, um.ErrStoreUnavailable
}

func (errStore) Put(context.Context, string, string, time.Duration) error {
	return um.ErrStoreUnavailable
}

// faultStore wraps a MemoryStore and fails operations on keys containing
// the configured fragments. Lets a test break one step of the pipeline
// while the rest keeps working.
type faultStore struct {
	*store.MemoryStore
	failGet string
	failPut string
}

func (s *faultStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet != "" && strings.Contains(key, s.failGet) {
		return "", false, um.ErrStoreUnavailable
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *faultStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.failPut != "" && strings.Contains(key, s.failPut) {
		return um.ErrStoreUnavailable
	}
	return s.MemoryStore.Put(ctx, key, value, ttl)
}
