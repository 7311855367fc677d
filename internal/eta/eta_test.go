package eta

import "testing"

func TestEstimateMinutesFloor(t *testing.T) {
	if got := EstimateMinutes(0, DefaultSpeedKmh); got != MinMinutes {
		t.Fatalf("got %f, want %f", got, MinMinutes)
	}
	// 2 km at 40 km/h is 3 minutes, still floored.
	if got := EstimateMinutes(2, 40); got != MinMinutes {
		t.Fatalf("got %f, want %f", got, MinMinutes)
	}
}

func TestEstimateMinutesLinear(t *testing.T) {
	if got := EstimateMinutes(40, 40); got != 60 {
		t.Fatalf("got %f, want 60", got)
	}
	if got := EstimateMinutes(10, 40); got != 15 {
		t.Fatalf("got %f, want 15", got)
	}
}

func TestEstimateMinutesBadSpeedFallsBack(t *testing.T) {
	if got := EstimateMinutes(40, 0); got != 60 {
		t.Fatalf("got %f, want 60 at default speed", got)
	}
}
