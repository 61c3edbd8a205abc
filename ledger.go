package usagemeter

import (
	"context"
	"fmt"
	"strconv"
)

// Ledger maintains per-account prepaid balances as single store keys.
//
// Every operation is a fresh read-modify-write cycle against the store;
// the Ledger holds no state between calls. Because the store offers no
// atomic increment, two concurrent Credit calls on the same account can
// both read the same prior balance and each write independently, losing
// one update. That anomaly is accepted: the store's primitives cannot
// prevent it, and serializing writers would belong to a backend with
// stronger primitives, not here.
type Ledger struct {
	store  Store
	prefix string
}

// NewLedger creates a Ledger over the given store. Balance records are
// stored under prefix + account.
func NewLedger(store Store, prefix string) *Ledger {
	return &Ledger{store: store, prefix: prefix}
}

func (l *Ledger) key(account string) string {
	return l.prefix + account
}

// Balance returns the stored balance for an account. An absent or
// unparsable record reads as zero, never as an error: a malformed value
// should degrade to an empty balance rather than fail every request
// touching the account.
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	val, ok, err := l.store.Get(ctx, l.key(account))
	if err != nil {
		return 0, fmt.Errorf("usagemeter: read balance: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Credit adds delta to the account balance and returns the result.
// delta may be negative; Debit is the conventional spelling for that.
// The account record is created implicitly on first credit.
func (l *Ledger) Credit(ctx context.Context, account string, delta int64) (int64, error) {
	cur, err := l.Balance(ctx, account)
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if err := l.store.Put(ctx, l.key(account), strconv.FormatInt(next, 10), 0); err != nil {
		return 0, fmt.Errorf("usagemeter: write balance: %w", err)
	}
	return next, nil
}

// Debit removes amount from the account balance and returns the result.
// The Ledger performs no sufficiency check: that decision belongs to the
// orchestration layer, which must act on a balance read taken before
// committing to deduct. A Debit can therefore drive a balance negative.
func (l *Ledger) Debit(ctx context.Context, account string, amount int64) (int64, error) {
	return l.Credit(ctx, account, -amount)
}
