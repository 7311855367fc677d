package freshness

import (
	"math/rand"
	"testing"
	"time"
)

// lowSource always returns the minimum draw, forcing downward drift.
type lowSource struct{}

func (lowSource) Intn(n int) int { return 0 }
func (lowSource) Float64() float64 { return 0 }

// highSource always returns the maximum draw, forcing upward drift.
type highSource struct{}

func (highSource) Intn(n int) int { return n - 1 }
func (highSource) Float64() float64 { return 0.999999 }

func TestSimulatorInitialState(t *testing.T) {
	s := NewSimulator("l1", rand.New(rand.NewSource(42)))
	r := s.Next(time.Now())
	if r.ListingID != "l1" {
		t.Fatalf("listing id = %q", r.ListingID)
	}
	// one step from the seeded ranges can move at most 2 outwards
	if r.Freshness < 83 || r.Freshness > 100 {
		t.Fatalf("freshness %d out of expected range", r.Freshness)
	}
	if r.TemperatureC < 3.7 || r.TemperatureC > 12.3 {
		t.Fatalf("temperature %v out of expected range", r.TemperatureC)
	}
	if r.Humidity < 38 || r.Humidity > 72 {
		t.Fatalf("humidity %d out of expected range", r.Humidity)
	}
}

func TestSimulatorClampsFloors(t *testing.T) {
	s := NewSimulator("l1", lowSource{})
	var last int
	for i := 0; i < 200; i++ {
		r := s.Next(time.Now())
		last = r.Freshness
		if r.Freshness < 50 {
			t.Fatalf("freshness fell below floor: %d", r.Freshness)
		}
		if r.TemperatureC < 0 {
			t.Fatalf("temperature below 0: %v", r.TemperatureC)
		}
		if r.Humidity < 20 {
			t.Fatalf("humidity below 20: %d", r.Humidity)
		}
	}
	if last != 50 {
		t.Fatalf("expected freshness to settle at the 50 floor, got %d", last)
	}
}

func TestSimulatorClampsCeilings(t *testing.T) {
	s := NewSimulator("l1", highSource{})
	for i := 0; i < 200; i++ {
		if r := s.Next(time.Now()); r.Humidity > 90 {
			t.Fatalf("humidity above 90: %d", r.Humidity)
		}
	}
}

func TestSimulatorTimestampsUTC(t *testing.T) {
	s := NewSimulator("l1", rand.New(rand.NewSource(1)))
	r := s.Next(time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)))
	if r.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", r.Timestamp)
	}
}
