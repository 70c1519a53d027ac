package trip

import (
	"time"

	"github.com/Tah5721312/gps-tracking/internal/shared/geo"
)

// ArrivalRadiusKm is the distance to a trip destination below which the
// vehicle counts as arrived (100 m).
const ArrivalRadiusKm = 0.1

// CheckArrival returns the trips that just arrived at their destination given
// the vehicle's current position. Arrival is a one-shot transition: trips
// already arrived are skipped, and nothing here ever moves a trip back, so a
// vehicle leaving and re-entering the radius cannot re-trigger.
func CheckArrival(lat, lng float64, at time.Time, trips []Trip) []Trip {
	var arrived []Trip
	for _, t := range trips {
		if t.ArrivalStatus == ArrivalArrived {
			continue
		}
		if t.DestinationLat == nil || t.DestinationLng == nil {
			continue
		}
		if geo.HaversineKm(lat, lng, *t.DestinationLat, *t.DestinationLng) < ArrivalRadiusKm {
			t.ArrivalStatus = ArrivalArrived
			ts := at
			t.ArrivalTime = &ts
			arrived = append(arrived, t)
		}
	}
	return arrived
}
