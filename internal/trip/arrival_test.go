package trip

import (
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func TestCheckArrivalWithinRadius(t *testing.T) {
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	trips := []Trip{{
		ID:             "trip-1",
		ArrivalStatus:  ArrivalInProgress,
		DestinationLat: ptr(24.7136),
		DestinationLng: ptr(46.6753),
	}}

	// ~50 m north of the destination
	arrived := CheckArrival(24.7140, 46.6753, at, trips)
	if len(arrived) != 1 {
		t.Fatalf("expected one arrival, got %d", len(arrived))
	}
	if arrived[0].ArrivalStatus != ArrivalArrived {
		t.Fatalf("expected arrived status")
	}
	if arrived[0].ArrivalTime == nil || !arrived[0].ArrivalTime.Equal(at) {
		t.Fatalf("arrival time should be the sample timestamp")
	}
}

func TestCheckArrivalOutsideRadius(t *testing.T) {
	trips := []Trip{{
		ID:             "trip-1",
		ArrivalStatus:  ArrivalInProgress,
		DestinationLat: ptr(24.7136),
		DestinationLng: ptr(46.6753),
	}}

	// ~2 km away
	if arrived := CheckArrival(24.7316, 46.6753, time.Now(), trips); len(arrived) != 0 {
		t.Fatalf("expected no arrivals")
	}
}

func TestCheckArrivalOneShot(t *testing.T) {
	trips := []Trip{{
		ID:             "trip-1",
		ArrivalStatus:  ArrivalArrived,
		DestinationLat: ptr(24.7136),
		DestinationLng: ptr(46.6753),
	}}

	// sitting on the destination, but already arrived
	if arrived := CheckArrival(24.7136, 46.6753, time.Now(), trips); len(arrived) != 0 {
		t.Fatalf("arrived trips must not re-trigger")
	}
}

func TestCheckArrivalNoDestination(t *testing.T) {
	trips := []Trip{
		{ID: "trip-1", ArrivalStatus: ArrivalNotSet},
		{ID: "trip-2", ArrivalStatus: ArrivalInProgress, DestinationLat: ptr(24.7)},
	}

	if arrived := CheckArrival(24.7, 46.6, time.Now(), trips); len(arrived) != 0 {
		t.Fatalf("trips without full destination must be skipped")
	}
}

func TestCheckArrivalNotSetWithDestination(t *testing.T) {
	trips := []Trip{{
		ID:             "trip-1",
		ArrivalStatus:  ArrivalNotSet,
		DestinationLat: ptr(24.7136),
		DestinationLng: ptr(46.6753),
	}}

	if arrived := CheckArrival(24.7136, 46.6753, time.Now(), trips); len(arrived) != 1 {
		t.Fatalf("not_set trips with destinations are still checked")
	}
}
