package usagemeter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Limiter bounds requests per account with a fixed-window counter.
//
// The window record is a single store value "windowStartUnix:count". A
// fixed window approximates a sliding one: a burst at the trailing edge
// of one window plus the leading edge of the next can admit up to twice
// the configured maximum within one window length of real time. That is
// the accepted tradeoff for coarse abuse prevention over get/put
// primitives.
//
// The read-then-write is itself racy under concurrent requests from the
// same account. The worst case is temporary over-admission; a lone
// legitimate request is never incorrectly rejected.
type Limiter struct {
	store  Store
	prefix string
	window time.Duration
	max    int

	now func() time.Time
}

// NewLimiter creates a Limiter admitting at most max requests per account
// per window. Window records are stored under prefix + account.
func NewLimiter(store Store, window time.Duration, max int, prefix string) *Limiter {
	return &Limiter{
		store:  store,
		prefix: prefix,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow reports whether a request for the account is admitted, and
// records the admission.
func (l *Limiter) Allow(ctx context.Context, account string) (bool, error) {
	key := l.prefix + account
	now := l.now().Unix()
	windowSecs := int64(l.window / time.Second)

	val, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("usagemeter: read rate window: %w", err)
	}

	start, count, valid := parseWindow(val)
	if !ok || !valid || now-start >= windowSecs {
		// First request in a fresh window. The bookkeeping write is
		// best-effort: failing to record one admission must not turn
		// into a rejection.
		_ = l.store.Put(ctx, key, encodeWindow(now, 1), l.window)
		return true, nil
	}

	if count >= l.max {
		return false, nil
	}

	remaining := time.Duration(windowSecs-(now-start)) * time.Second
	if err := l.store.Put(ctx, key, encodeWindow(start, count+1), remaining); err != nil {
		return false, fmt.Errorf("usagemeter: write rate window: %w", err)
	}
	return true, nil
}

func encodeWindow(start int64, count int) string {
	return strconv.FormatInt(start, 10) + ":" + strconv.Itoa(count)
}

// parseWindow decodes a window record. A malformed record is reported
// invalid and the caller starts a fresh window.
func parseWindow(val string) (start int64, count int, valid bool) {
	s, c, found := strings.Cut(val, ":")
	if !found {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	count, err = strconv.Atoi(c)
	if err != nil || count < 0 {
		return 0, 0, false
	}
	return start, count, true
}
