package motion

import "time"

// MovingThresholdKmh separates real movement from GPS speed noise. Readings
// at or below the threshold count as stationary.
const MovingThresholdKmh = 5.0

// StaleAfter is how long a vehicle may go without a sample before its
// displayed status degrades to powered-off.
const StaleAfter = 5 * time.Minute

func IsMoving(speedKmh float64) bool {
	return speedKmh > MovingThresholdKmh
}

// IsStale reports whether lastUpdate is old enough (relative to now) for the
// vehicle to be considered powered off. A zero lastUpdate means the vehicle
// has never reported and is always stale.
func IsStale(lastUpdate, now time.Time) bool {
	if lastUpdate.IsZero() {
		return true
	}
	return now.Sub(lastUpdate) > StaleAfter
}
