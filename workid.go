package usagemeter

import "github.com/google/uuid"

// NewWorkID returns a fresh work-unit identifier for callers that have
// no natural unique ID for the billable event. A work ID must be minted
// once per event and reused across retries of that same event; minting a
// new ID per retry defeats the idempotency guard.
func NewWorkID() string {
	return uuid.New().String()
}
