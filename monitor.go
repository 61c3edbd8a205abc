package usagemeter

import "time"

// Monitor observes metering events for monitoring/logging.
type Monitor interface {
	// OnConsume is called once per consumption request, on every outcome.
	OnConsume(event ConsumeEvent)

	// OnCredit is called when a balance is credited or debited directly.
	OnCredit(event CreditEvent)
}

// Outcome classifies how a consumption request ended.
type Outcome int

const (
	OutcomeSettled Outcome = iota
	OutcomeAlreadySettled
	OutcomeInvalidInput
	OutcomeRateLimited
	OutcomeInsufficientBalance
	OutcomeStoreError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeAlreadySettled:
		return "already_settled"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeInsufficientBalance:
		return "insufficient_balance"
	case OutcomeStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// ConsumeEvent describes the outcome of one consumption request.
type ConsumeEvent struct {
	Account       string
	WorkID        string
	Usage         Usage
	Outcome       Outcome
	BillableUnits int64
	ProviderCost  float64
	NewBalance    int64
	Duration      time.Duration
	Err           error
}

// CreditEvent describes a direct balance adjustment.
type CreditEvent struct {
	Account    string
	Delta      int64
	NewBalance int64
	Err        error
}
