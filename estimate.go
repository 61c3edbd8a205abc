package usagemeter

// EstimateUnits provides a rough unit count estimate for text parts.
// Uses the approximation: ~4 chars per unit + overhead per part. Useful
// for pre-sizing a request before the provider reports actual usage.
func EstimateUnits(parts ...string) int64 {
	var total int64
	for _, p := range parts {
		// ~4 chars per unit
		total += int64(len(p)) / 4
		// overhead per part (role, formatting)
		total += 4
	}
	// base overhead for the request
	total += 3
	return total
}
