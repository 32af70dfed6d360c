package offline

import "time"

// Request outcomes reported to Metrics
const (
	OutcomeNetwork = "network" // API class, forwarded
	OutcomeHit     = "hit"     // static class, served from cache
	OutcomeMiss    = "miss"    // static class, fetched from network
	OutcomeError   = "error"   // network failure surfaced to the caller
)

// Metrics receives manager observations.
// A nil Metrics disables instrumentation entirely.
type Metrics interface {
	ObserveRequest(class RequestClass, outcome string)
	ObserveFill(err error)
	ObserveInstall(assets int, duration time.Duration, err error)
	ObserveActivate(deleted, failed int)
}
