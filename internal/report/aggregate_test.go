package report

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Tah5721312/gps-tracking/internal/shared/geo"
	"github.com/Tah5721312/gps-tracking/internal/vehicle"
)

var day = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 10, h, m, 0, 0, time.UTC)
}

func point(ts time.Time, lat, lng, speed float64) vehicle.Sample {
	return vehicle.Sample{VehicleID: "veh-1", Latitude: lat, Longitude: lng, Speed: speed, BatteryLevel: 90, Timestamp: ts}
}

func commuteDay() []vehicle.Sample {
	return []vehicle.Sample{
		point(at(8, 0), 24.7000, 46.6700, 40),
		point(at(8, 10), 24.7300, 46.6900, 42),
		point(at(8, 22), 24.7600, 46.7100, 0.2),
		point(at(8, 38), 24.7900, 46.7300, 48),
		point(at(8, 55), 24.8200, 46.7500, 0),
	}
}

func TestAggregateCommuteDay(t *testing.T) {
	r := Aggregate("veh-1", day, commuteDay())
	if r == nil {
		t.Fatalf("expected report")
	}

	if r.NumberOfStops != 2 {
		t.Fatalf("numberOfStops = %d, want 2", r.NumberOfStops)
	}
	if r.MaxSpeed != 48 {
		t.Fatalf("maxSpeed = %v, want 48", r.MaxSpeed)
	}
	// average over the moving samples only: (40+42+48)/3
	if r.AvgSpeed != 43.33 {
		t.Fatalf("avgSpeed = %v, want 43.33", r.AvgSpeed)
	}
	if r.TotalDistance <= 0 {
		t.Fatalf("expected positive distance")
	}
	if r.TotalDuration != 55 {
		t.Fatalf("totalDuration = %d, want 55", r.TotalDuration)
	}
	// the 08:22 dip opens a stop at 08:10 which closes at 08:38
	if r.LongestStop != 28 {
		t.Fatalf("longestStop = %d, want 28", r.LongestStop)
	}
	if r.TotalMovingTime != 26 || r.TotalStoppedTime != 29 {
		t.Fatalf("moving/stopped = %d/%d, want 26/29", r.TotalMovingTime, r.TotalStoppedTime)
	}
	if !r.FirstMovement.Equal(at(8, 0)) || !r.LastMovement.Equal(at(8, 55)) {
		t.Fatalf("unexpected movement bounds")
	}
	if r.StartLat != 24.7000 || r.EndLng != 46.7500 {
		t.Fatalf("unexpected start/end coordinates")
	}
	if !r.Date.Equal(day) {
		t.Fatalf("report date should be midnight-aligned")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	a := Aggregate("veh-1", day, commuteDay())
	b := Aggregate("veh-1", day, commuteDay())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregation must be deterministic:\n%+v\n%+v", a, b)
	}
}

func TestAggregateTimeBucketsSumToDuration(t *testing.T) {
	r := Aggregate("veh-1", day, commuteDay())
	sum := r.TotalMovingTime + r.TotalStoppedTime
	if diff := r.TotalDuration - sum; diff < -1 || diff > 1 {
		t.Fatalf("moving+stopped (%d) strays more than a minute from duration (%d)", sum, r.TotalDuration)
	}
}

func TestAggregateEmptyDay(t *testing.T) {
	if r := Aggregate("veh-1", day, nil); r != nil {
		t.Fatalf("empty day must produce no report")
	}
}

func TestAggregateSingleSample(t *testing.T) {
	r := Aggregate("veh-1", day, []vehicle.Sample{point(at(9, 0), 24.7, 46.67, 30)})
	if r == nil {
		t.Fatalf("single sample should produce a degenerate report")
	}
	if r.TotalDistance != 0 || r.TotalDuration != 0 {
		t.Fatalf("degenerate report must have zero distance and duration")
	}
	if r.NumberOfStops != 0 {
		t.Fatalf("a moving sample opens no stop")
	}
	if r.AvgSpeed != 30 || r.MaxSpeed != 30 {
		t.Fatalf("speeds should reflect the lone sample")
	}

	r = Aggregate("veh-1", day, []vehicle.Sample{point(at(9, 0), 24.7, 46.67, 0)})
	if r.NumberOfStops != 1 || r.LongestStop != 0 {
		t.Fatalf("a stationary day opens one zero-length stop, got %d/%d", r.NumberOfStops, r.LongestStop)
	}
}

func TestAggregateTwoPointDistance(t *testing.T) {
	p1 := point(at(10, 0), 24.7000, 46.6700, 30)
	p2 := point(at(10, 15), 24.7500, 46.7000, 35)

	r := Aggregate("veh-1", day, []vehicle.Sample{p1, p2})
	want := round2(geo.HaversineKm(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude))
	if math.Abs(r.TotalDistance-want) > 1e-6 {
		t.Fatalf("totalDistance = %v, want %v", r.TotalDistance, want)
	}
}

func TestAggregateTrailingOpenStop(t *testing.T) {
	samples := []vehicle.Sample{
		point(at(16, 0), 24.70, 46.67, 50),
		point(at(16, 30), 24.75, 46.70, 0),
		point(at(17, 10), 24.75, 46.70, 0),
	}
	r := Aggregate("veh-1", day, samples)
	if r.NumberOfStops != 1 {
		t.Fatalf("expected one stop, got %d", r.NumberOfStops)
	}
	// stop opens at 16:00 (the motion boundary) and closes against 17:10
	if r.LongestStop != 70 {
		t.Fatalf("longestStop = %d, want 70", r.LongestStop)
	}
}
