package motion

import (
	"testing"
	"time"
)

func TestIsMoving(t *testing.T) {
	cases := []struct {
		speed float64
		want  bool
	}{
		{0, false},
		{0.2, false},
		{5, false}, // threshold itself is not moving
		{5.01, true},
		{40, true},
	}
	for _, c := range cases {
		if got := IsMoving(c.speed); got != c.want {
			t.Fatalf("IsMoving(%v) = %v, want %v", c.speed, got, c.want)
		}
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	if IsStale(now.Add(-time.Minute), now) {
		t.Fatalf("fresh update should not be stale")
	}
	if !IsStale(now.Add(-6*time.Minute), now) {
		t.Fatalf("6 minute old update should be stale")
	}
	if IsStale(now.Add(-StaleAfter), now) {
		t.Fatalf("exactly at the window should not be stale")
	}
	if !IsStale(time.Time{}, now) {
		t.Fatalf("never-reported vehicle should be stale")
	}
}
