package restapi

import "time"

const defaultStaleThreshold = 30 * time.Minute

// StaleDetector decides whether a board is too old to show.
type StaleDetector struct {
	threshold time.Duration
}

func NewStaleDetector(threshold time.Duration) *StaleDetector {
	if threshold <= 0 {
		threshold = defaultStaleThreshold
	}
	return &StaleDetector{threshold: threshold}
}

func (d *StaleDetector) Threshold() time.Duration {
	return d.threshold
}

// Check reports whether a board updated at updated is stale at currentTime.
// A board without an update time is always stale.
func (d *StaleDetector) Check(updated, currentTime time.Time) bool {
	return d.Age(updated, currentTime) > d.threshold
}

func (d *StaleDetector) Age(updated, currentTime time.Time) time.Duration {
	if updated.IsZero() {
		return d.threshold + 1
	}
	return currentTime.Sub(updated)
}
