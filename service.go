package usagemeter

import (
	"context"
	"fmt"
	"time"
)

// Service orchestrates one consumption request through rate limiting,
// idempotency, pricing, and the balance ledger. It is the only component
// that sequences the others.
//
// The store underneath offers no transactions, so the pipeline cannot be
// atomic end to end. Rejections (bad input, rate limit, insufficient
// balance) all happen before any balance mutation. The residual window
// is between a debit succeeding and the settlement marker being written:
// a crash there leaves the work ID unsettled with the balance already
// moved, and a retry of the same work ID debits again. No compensating
// rollback is attempted; see IsRetrySafe for the caller-facing rule.
type Service struct {
	cfg     Config
	ledger  *Ledger
	guard   *Guard
	limiter *Limiter
	rates   *RateSource
	convert Converter
	monitor Monitor
}

// Option configures a Service.
type Option func(*Service)

// WithMonitor sets the monitor.
func WithMonitor(m Monitor) Option {
	return func(s *Service) { s.monitor = m }
}

// WithConverter sets the billing policy.
func WithConverter(c Converter) Option {
	return func(s *Service) { s.convert = c }
}

// WithLimiter replaces the config-built rate limiter.
func WithLimiter(l *Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates a Service over the given store. Zero-valued config
// fields fall back to DefaultConfig; default components (DefaultConvert,
// a config-built Limiter, a no-op monitor) are used unless overridden
// via options.
func NewService(cfg Config, store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("usagemeter: a store is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		ledger: NewLedger(store, cfg.KeyPrefix+"balance:"),
		guard:  NewGuard(store, cfg.KeyPrefix+"settled:"),
		rates:  NewRateSource(store, cfg.KeyPrefix+"pricing:", cfg.Rates),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Apply defaults after options.
	if s.limiter == nil {
		window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		s.limiter = NewLimiter(store, window, cfg.RateLimit.MaxRequests, cfg.KeyPrefix+"window:")
	}
	if s.convert == nil {
		s.convert = DefaultConvert
	}
	if s.monitor == nil {
		s.monitor = noopMonitor{}
	}

	return s, nil
}

// Consume bills one unit of work against an account.
//
// The pipeline is: validate → rate check → settlement check → price →
// balance check → debit → settle. A work ID that is already settled
// returns a Receipt with AlreadySettled set and touches nothing, which
// makes Consume safe to retry after transient failures that happened
// before the debit step.
func (s *Service) Consume(ctx context.Context, account, workID string, usage Usage) (Receipt, error) {
	start := time.Now()

	fail := func(step string, outcome Outcome, err error) (Receipt, error) {
		merr := &MeterError{Err: err, Account: account, WorkID: workID, Step: step}
		s.monitor.OnConsume(ConsumeEvent{
			Account:  account,
			WorkID:   workID,
			Usage:    usage,
			Outcome:  outcome,
			Duration: time.Since(start),
			Err:      merr,
		})
		return Receipt{}, merr
	}

	if account == "" {
		return fail(StepValidate, OutcomeInvalidInput, fmt.Errorf("%w: account is required", ErrInvalidInput))
	}
	if workID == "" {
		return fail(StepValidate, OutcomeInvalidInput, fmt.Errorf("%w: work ID is required", ErrInvalidInput))
	}
	if usage.InputUnits < 0 || usage.OutputUnits < 0 {
		return fail(StepValidate, OutcomeInvalidInput, fmt.Errorf("%w: usage must be non-negative", ErrInvalidInput))
	}
	if usage.OutputUnits > s.cfg.MaxOutputUnits {
		return fail(StepValidate, OutcomeInvalidInput,
			fmt.Errorf("%w: output units %d exceed per-request cap %d", ErrInvalidInput, usage.OutputUnits, s.cfg.MaxOutputUnits))
	}

	allowed, err := s.limiter.Allow(ctx, account)
	if err != nil {
		return fail(StepRate, OutcomeStoreError, err)
	}
	if !allowed {
		return fail(StepRate, OutcomeRateLimited, ErrRateLimited)
	}

	settled, err := s.guard.Settled(ctx, workID)
	if err != nil {
		return fail(StepDedup, OutcomeStoreError, err)
	}
	if settled {
		s.monitor.OnConsume(ConsumeEvent{
			Account:  account,
			WorkID:   workID,
			Usage:    usage,
			Outcome:  OutcomeAlreadySettled,
			Duration: time.Since(start),
		})
		return Receipt{AlreadySettled: true}, nil
	}

	cost := s.convert(usage, s.rates.Resolve(ctx))

	balance, err := s.ledger.Balance(ctx, account)
	if err != nil {
		return fail(StepBalance, OutcomeStoreError, err)
	}
	if balance < cost.BillableUnits {
		return fail(StepBalance, OutcomeInsufficientBalance,
			fmt.Errorf("%w: balance %d, need %d", ErrInsufficientBalance, balance, cost.BillableUnits))
	}

	newBalance, err := s.ledger.Debit(ctx, account, cost.BillableUnits)
	if err != nil {
		return fail(StepDebit, OutcomeStoreError, err)
	}

	if err := s.guard.Settle(ctx, workID); err != nil {
		// The debit already applied. Surfacing the error here is what
		// tells the caller that retrying the same work ID may double
		// debit (IsRetrySafe returns false for this step).
		return fail(StepSettle, OutcomeStoreError, err)
	}

	s.monitor.OnConsume(ConsumeEvent{
		Account:       account,
		WorkID:        workID,
		Usage:         usage,
		Outcome:       OutcomeSettled,
		BillableUnits: cost.BillableUnits,
		ProviderCost:  cost.ProviderCost,
		NewBalance:    newBalance,
		Duration:      time.Since(start),
	})

	return Receipt{
		Deducted:     cost.BillableUnits,
		NewBalance:   newBalance,
		ProviderCost: cost.ProviderCost,
	}, nil
}

// CreditBalance adds delta to an account balance and returns the result.
// delta may be negative.
func (s *Service) CreditBalance(ctx context.Context, account string, delta int64) (int64, error) {
	if account == "" {
		return 0, fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	newBalance, err := s.ledger.Credit(ctx, account, delta)
	s.monitor.OnCredit(CreditEvent{Account: account, Delta: delta, NewBalance: newBalance, Err: err})
	return newBalance, err
}

// DebitBalance removes amount from an account balance and returns the
// result. No sufficiency check is performed; Consume is the metered path.
func (s *Service) DebitBalance(ctx context.Context, account string, amount int64) (int64, error) {
	return s.CreditBalance(ctx, account, -amount)
}

// Balance returns the current balance for an account. An account never
// credited reads as zero.
func (s *Service) Balance(ctx context.Context, account string) (int64, error) {
	return s.ledger.Balance(ctx, account)
}

// CheckRate reports whether a request for the account would be admitted,
// and records the admission.
func (s *Service) CheckRate(ctx context.Context, account string) (bool, error) {
	return s.limiter.Allow(ctx, account)
}

// Settled reports whether a work ID has already been billed.
func (s *Service) Settled(ctx context.Context, workID string) (bool, error) {
	return s.guard.Settled(ctx, workID)
}

// Settle marks a work ID as billed without touching the ledger. Intended
// for backfill and repair; Consume settles as part of its pipeline.
func (s *Service) Settle(ctx context.Context, workID string) error {
	return s.guard.Settle(ctx, workID)
}

// ConvertUsage prices usage under the effective rates, including any
// stored overrides.
func (s *Service) ConvertUsage(ctx context.Context, usage Usage) Cost {
	return s.convert(usage, s.rates.Resolve(ctx))
}

// SetRateOverride writes an administrative pricing override. Callers are
// responsible for authenticating the administrator.
func (s *Service) SetRateOverride(ctx context.Context, name string, rate float64) error {
	return s.rates.SetOverride(ctx, name, rate)
}

// noopMonitor is a monitor that does nothing.
type noopMonitor struct{}

func (noopMonitor) OnConsume(ConsumeEvent) {}
func (noopMonitor) OnCredit(CreditEvent)   {}
