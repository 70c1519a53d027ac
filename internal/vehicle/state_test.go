package vehicle

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func sampleAt(ts time.Time, speed float64) Sample {
	return Sample{Latitude: 24.71, Longitude: 46.67, Speed: speed, BatteryLevel: 90, Timestamp: ts}
}

func TestNextStateMovingToStopped(t *testing.T) {
	prev := State{Status: StatusMoving, LastUpdate: t0}
	s := sampleAt(t0.Add(time.Minute), 0)

	next, closed := NextState(prev, s)
	if next.Status != StatusStopped {
		t.Fatalf("expected stopped, got %s", next.Status)
	}
	if closed {
		t.Fatalf("opening a stop must not report a closed interval")
	}
	if next.StoppedAt == nil || !next.StoppedAt.Equal(s.Timestamp) {
		t.Fatalf("stoppedAt should be the sample timestamp")
	}
	if next.TotalStoppedTime != 0 {
		t.Fatalf("opening a stop must not accumulate time")
	}
}

func TestNextStateStoppedStaysStopped(t *testing.T) {
	stopStart := t0
	prev := State{Status: StatusStopped, StoppedAt: &stopStart, LastUpdate: t0.Add(2 * time.Minute), TotalStoppedTime: 30}
	s := sampleAt(t0.Add(4*time.Minute), 1.5)

	next, closed := NextState(prev, s)
	if next.Status != StatusStopped || closed {
		t.Fatalf("expected still stopped")
	}
	if next.StoppedAt == nil || !next.StoppedAt.Equal(stopStart) {
		t.Fatalf("open stop must keep its original start")
	}
	if next.TotalStoppedTime != 30 {
		t.Fatalf("open interval must not be accumulated yet")
	}
	if !next.LastUpdate.Equal(s.Timestamp) || next.LastSpeed != 1.5 {
		t.Fatalf("last fields must always be overwritten")
	}
}

func TestNextStateStopClosesOnMovement(t *testing.T) {
	stopStart := t0
	prev := State{Status: StatusStopped, StoppedAt: &stopStart, LastUpdate: t0.Add(3 * time.Minute), TotalStoppedTime: 120}
	s := sampleAt(t0.Add(5*time.Minute), 40)

	next, closed := NextState(prev, s)
	if next.Status != StatusMoving {
		t.Fatalf("expected moving, got %s", next.Status)
	}
	if !closed {
		t.Fatalf("expected stop interval to close")
	}
	if next.StoppedAt != nil {
		t.Fatalf("stoppedAt must be cleared")
	}
	if want := int64(120 + 300); next.TotalStoppedTime != want {
		t.Fatalf("totalStoppedTime = %d, want %d", next.TotalStoppedTime, want)
	}
}

func TestNextStateBackwardTimestampClamped(t *testing.T) {
	stopStart := t0
	prev := State{Status: StatusStopped, StoppedAt: &stopStart, LastUpdate: t0, TotalStoppedTime: 60}
	s := sampleAt(t0.Add(-10*time.Second), 40)

	next, _ := NextState(prev, s)
	if next.TotalStoppedTime != 60 {
		t.Fatalf("negative duration must not be accumulated")
	}
	if !next.LastUpdate.Equal(s.Timestamp) {
		t.Fatalf("last update still follows arrival order")
	}
}

func TestNextStatePoweredOff(t *testing.T) {
	prev := State{Status: StatusPoweredOff, LastUpdate: t0}

	next, closed := NextState(prev, sampleAt(t0.Add(time.Minute), 0.4))
	if next.Status != StatusPoweredOff || closed {
		t.Fatalf("low-speed ping must not wake a powered-off vehicle")
	}

	next, closed = NextState(prev, sampleAt(t0.Add(time.Minute), 25))
	if next.Status != StatusMoving || closed {
		t.Fatalf("movement must bring a powered-off vehicle back to moving")
	}
	if next.StoppedAt != nil || next.TotalStoppedTime != 0 {
		t.Fatalf("leaving powered-off must not touch stop accounting")
	}
}

func TestNextStateMovingStaysMoving(t *testing.T) {
	prev := State{Status: StatusMoving, LastUpdate: t0}
	next, closed := NextState(prev, sampleAt(t0.Add(time.Minute), 60))
	if next.Status != StatusMoving || closed || next.StoppedAt != nil {
		t.Fatalf("unexpected transition")
	}
}

func TestDeriveDisplayStatus(t *testing.T) {
	now := t0.Add(10 * time.Minute)

	fresh := State{Status: StatusMoving, LastUpdate: now.Add(-time.Minute)}
	if got := DeriveDisplayStatus(fresh, now); got != StatusMoving {
		t.Fatalf("fresh state should keep stored status, got %s", got)
	}

	stale := State{Status: StatusStopped, LastUpdate: now.Add(-6 * time.Minute)}
	if got := DeriveDisplayStatus(stale, now); got != StatusPoweredOff {
		t.Fatalf("stale state should display powered-off, got %s", got)
	}
}
