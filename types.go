package usagemeter

// Usage represents raw provider-metered quantities for one unit of work.
type Usage struct {
	InputUnits  int64 `json:"input_units"`
	OutputUnits int64 `json:"output_units"`
}

// Total returns the combined raw unit count.
func (u Usage) Total() int64 {
	return u.InputUnits + u.OutputUnits
}

// Receipt describes the outcome of a successful consumption request.
type Receipt struct {
	// Deducted is the number of billable units removed from the balance.
	// Zero when AlreadySettled is true.
	Deducted int64

	// NewBalance is the balance observed after the debit. Zero when
	// AlreadySettled is true; the balance was not touched.
	NewBalance int64

	// ProviderCost is the upstream cost of the work in rate-quoted
	// currency terms. Informational only; the ledger moves in billable
	// units, never in provider cost.
	ProviderCost float64

	// AlreadySettled reports that this work ID was billed by an earlier
	// request and the call was an idempotent no-op.
	AlreadySettled bool
}
