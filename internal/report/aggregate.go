package report

import (
	"math"
	"time"

	"github.com/Tah5721312/gps-tracking/internal/motion"
	"github.com/Tah5721312/gps-tracking/internal/shared/geo"
	"github.com/Tah5721312/gps-tracking/internal/vehicle"
)

// Aggregate computes the daily report from one vehicle-day of samples, which
// must be sorted ascending by timestamp. It returns nil for an empty day; a
// single sample yields a degenerate report with zero distance and duration.
// The computation is pure and touches no shared state, so it can run
// concurrently across vehicle-days.
func Aggregate(vehicleID string, date time.Time, samples []vehicle.Sample) *DailyReport {
	if len(samples) == 0 {
		return nil
	}

	first := samples[0]
	last := samples[len(samples)-1]

	var totalDistance, maxSpeed, speedSum float64
	var movingCount, stops int
	var movingSec, stoppedSec float64
	var stopStart *time.Time
	var longestStopMin float64

	for i, s := range samples {
		moving := motion.IsMoving(s.Speed)

		if s.Speed > maxSpeed {
			maxSpeed = s.Speed
		}
		if moving {
			speedSum += s.Speed
			movingCount++
		}

		if i > 0 {
			prev := samples[i-1]
			totalDistance += geo.HaversineKm(prev.Latitude, prev.Longitude, s.Latitude, s.Longitude)
			dt := s.Timestamp.Sub(prev.Timestamp).Seconds()
			if moving {
				movingSec += dt
			} else {
				stoppedSec += dt
			}
		}

		if !moving && stopStart == nil {
			// stop opens at the motion boundary: the previous sample's
			// timestamp, or this one's for a day that starts stationary
			at := s.Timestamp
			if i > 0 {
				at = samples[i-1].Timestamp
			}
			stopStart = &at
			stops++
		}
		if moving && stopStart != nil {
			if d := s.Timestamp.Sub(*stopStart).Minutes(); d > longestStopMin {
				longestStopMin = d
			}
			stopStart = nil
		}
	}

	// close a trailing open stop against the last sample
	if stopStart != nil {
		if d := last.Timestamp.Sub(*stopStart).Minutes(); d > longestStopMin {
			longestStopMin = d
		}
	}

	avgSpeed := 0.0
	if movingCount > 0 {
		avgSpeed = speedSum / float64(movingCount)
	}

	return &DailyReport{
		VehicleID:        vehicleID,
		Date:             dateOnly(date),
		TotalDistance:    round2(totalDistance),
		TotalDuration:    int(last.Timestamp.Sub(first.Timestamp).Minutes()),
		TotalStoppedTime: int(stoppedSec / 60),
		TotalMovingTime:  int(movingSec / 60),
		MaxSpeed:         round2(maxSpeed),
		AvgSpeed:         round2(avgSpeed),
		NumberOfStops:    stops,
		LongestStop:      int(longestStopMin),
		FirstMovement:    first.Timestamp,
		LastMovement:     last.Timestamp,
		StartLat:         first.Latitude,
		StartLng:         first.Longitude,
		EndLat:           last.Latitude,
		EndLng:           last.Longitude,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
