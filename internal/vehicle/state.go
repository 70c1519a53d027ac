package vehicle

import (
	"time"

	"github.com/Tah5721312/gps-tracking/internal/motion"
)

// NextState applies one sample to the previous live state and returns the new
// state plus whether a stop interval closed. Samples are applied in arrival
// order; a sample whose timestamp lies behind prev.LastUpdate is not
// reordered or rejected, its effect on the accumulators is simply clamped at
// zero. Retransmissions and clock skew are accepted as-is.
func NextState(prev State, s Sample) (State, bool) {
	next := prev
	next.LastLatitude = s.Latitude
	next.LastLongitude = s.Longitude
	next.LastSpeed = s.Speed
	next.LastUpdate = s.Timestamp

	if motion.IsMoving(s.Speed) {
		closed := false
		if prev.Status == StatusStopped && prev.StoppedAt != nil {
			if d := s.Timestamp.Sub(*prev.StoppedAt); d > 0 {
				next.TotalStoppedTime += int64(d.Seconds())
			}
			closed = true
		}
		next.Status = StatusMoving
		next.StoppedAt = nil
		return next, closed
	}

	// A powered-off vehicle stays powered off on low-speed pings; it has to
	// actually move to come back.
	if prev.Status == StatusPoweredOff {
		next.Status = StatusPoweredOff
		return next, false
	}

	next.Status = StatusStopped
	if prev.Status != StatusStopped || prev.StoppedAt == nil {
		at := s.Timestamp
		next.StoppedAt = &at
	}
	return next, false
}

// DeriveDisplayStatus overlays the staleness-based powered-off state on top
// of the stored status. The stored value stays authoritative for
// moving/stopped; powered-off is recomputed at read time.
func DeriveDisplayStatus(st State, now time.Time) Status {
	if motion.IsStale(st.LastUpdate, now) {
		return StatusPoweredOff
	}
	return st.Status
}
