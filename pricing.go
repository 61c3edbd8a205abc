package usagemeter

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// RateScale is the rate denominator: rates are quoted per RateScale raw
// units (cost per one million units).
const RateScale = 1_000_000

// Names of the pricing parameters an override may target.
const (
	RateParamIn  = "rate_in"
	RateParamOut = "rate_out"
)

// Rates are the per-RateScale-unit prices for input and output units.
type Rates struct {
	In  float64 `yaml:"in"`
	Out float64 `yaml:"out"`
}

// Cost is the priced form of a Usage.
type Cost struct {
	// ProviderCost is what the upstream provider charges for the work,
	// in the currency the rates are quoted in.
	ProviderCost float64

	// BillableUnits is what the account's ledger is debited.
	BillableUnits int64
}

// Converter turns raw usage into cost under some billing policy. It is
// the single seam for alternative policies (margin multipliers, per-model
// multipliers); the rest of the pipeline never looks inside.
type Converter func(usage Usage, rates Rates) Cost

// DefaultConvert is the stock billing policy: provider cost follows the
// quoted rates, and billable units map 1:1 onto raw units.
func DefaultConvert(usage Usage, rates Rates) Cost {
	return Cost{
		ProviderCost: float64(usage.InputUnits)*rates.In/RateScale +
			float64(usage.OutputUnits)*rates.Out/RateScale,
		BillableUnits: usage.InputUnits + usage.OutputUnits,
	}
}

// RateSource resolves effective rates at call time: a stored override
// per parameter if one exists and parses to a positive finite number,
// else the compiled-in default. Overrides that are missing, malformed,
// or unreadable fall back to defaults rather than failing the request.
type RateSource struct {
	store    Store
	prefix   string
	defaults Rates
}

// NewRateSource creates a RateSource. Override records are stored under
// prefix + parameter name.
func NewRateSource(store Store, prefix string, defaults Rates) *RateSource {
	return &RateSource{store: store, prefix: prefix, defaults: defaults}
}

// Resolve returns the effective rates for a request.
func (r *RateSource) Resolve(ctx context.Context) Rates {
	rates := r.defaults
	if v, ok := r.lookup(ctx, RateParamIn); ok {
		rates.In = v
	}
	if v, ok := r.lookup(ctx, RateParamOut); ok {
		rates.Out = v
	}
	return rates
}

func (r *RateSource) lookup(ctx context.Context, name string) (float64, bool) {
	val, ok, err := r.store.Get(ctx, r.prefix+name)
	if err != nil || !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// SetOverride writes a pricing override. name must be one of the rate
// parameter names and rate must be a positive finite number.
func (r *RateSource) SetOverride(ctx context.Context, name string, rate float64) error {
	if name != RateParamIn && name != RateParamOut {
		return fmt.Errorf("%w: unknown pricing parameter %q", ErrInvalidInput, name)
	}
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return fmt.Errorf("%w: rate must be a positive finite number, got %v", ErrInvalidInput, rate)
	}
	val := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := r.store.Put(ctx, r.prefix+name, val, 0); err != nil {
		return fmt.Errorf("usagemeter: write pricing override: %w", err)
	}
	return nil
}
