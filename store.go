package usagemeter

import (
	"context"
	"time"
)

// Store is the key/value capability the metering core runs on.
//
// The contract is deliberately minimal: plain reads and writes, optional
// expiry, and nothing else. No compare-and-swap, no increment-and-fetch,
// no cross-key transactions. Read-after-write consistency is not assumed;
// a Get may observe a value older than the most recent Put when the
// backend is replicated. Every component above this interface is written
// for those primitives and documents the races that follow from them.
type Store interface {
	// Get returns the value stored under key, and whether the key exists.
	// A missing key is ("", false, nil), not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes value under key. A ttl of zero means no expiry. Backends
	// that cannot expire keys may ignore ttl; callers that depend on
	// expiry must also encode enough state to detect stale records.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}
