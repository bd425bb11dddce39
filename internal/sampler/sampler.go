// Package sampler turns raw host counters and remote payloads into display
// text for the status line.
//
// Every sampler keeps its interval-to-interval state privately; the only way
// in is Update and the only way out is Render. Render never fails: before the
// first successful Update, or after a failure under a "blank on failure"
// policy, it returns Fallback.
package sampler

//go:generate mockgen -source=sampler.go -destination=mocks/mock_sampler.go -package=mocks

import (
	"context"
	"time"
)

// Fallback is rendered by a sampler that has nothing meaningful to show.
const Fallback = "N/A"

type Sampler interface {
	// Update refreshes internal state from a fresh read. A returned error is
	// informational; the sampler stays usable.
	Update(ctx context.Context) error
	// Render is a pure function of the current state.
	Render() string
}

// Clock returns the current instant. Tests replace it to drive elapsed time.
type Clock func() time.Time

func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
