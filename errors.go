package usagemeter

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrInvalidInput        = errors.New("usagemeter: invalid input")
	ErrRateLimited         = errors.New("usagemeter: rate limited")
	ErrInsufficientBalance = errors.New("usagemeter: insufficient balance")
	ErrStoreUnavailable    = errors.New("usagemeter: store unavailable")
)

// Steps of a consumption request, recorded on MeterError so callers can
// tell how far the pipeline got before failing.
const (
	StepValidate = "validate"
	StepRate     = "rate"
	StepDedup    = "dedup"
	StepBalance  = "balance"
	StepDebit    = "debit"
	StepSettle   = "settle"
)

// MeterError wraps an error with metering context.
type MeterError struct {
	Err     error
	Account string
	WorkID  string
	Step    string
}

func (e *MeterError) Error() string {
	return fmt.Sprintf("usagemeter: account=%s work=%s step=%s: %v",
		e.Account, e.WorkID, e.Step, e.Err)
}

func (e *MeterError) Unwrap() error {
	return e.Err
}

// IsRetrySafe returns true if the whole consumption operation can be
// retried with the same work ID without risking a double debit. That is
// the case only for store failures that happened before the debit step:
// a failure at or after the debit may have already moved the balance
// while the settlement marker for that work ID was not written yet.
func IsRetrySafe(err error) bool {
	var me *MeterError
	if !errors.As(err, &me) {
		return false
	}
	if !errors.Is(me.Err, ErrStoreUnavailable) {
		return false
	}
	switch me.Step {
	case StepValidate, StepRate, StepDedup, StepBalance:
		return true
	}
	return false
}
