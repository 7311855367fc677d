package freshness

import (
	"math"
	"math/rand"
	"time"

	"github.com/example/connectfood/internal/models"
)

// Source is the subset of math/rand the simulator draws from,
// injectable so tests can drive the drift deterministically.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Simulator produces a drifting stream of sensor readings for one
// listing, standing in for real freshness telemetry hardware.
type Simulator struct {
	listingID string
	rnd       Source

	freshness int
	tempC     float64
	humidity  int
}

// NewSimulator seeds the initial sensor state: freshness in [85,99],
// temperature in [4.0,12.0) C, humidity in [40,70].
func NewSimulator(listingID string, rnd Source) *Simulator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		listingID: listingID,
		rnd:       rnd,
		freshness: 85 + rnd.Intn(15),
		tempC:     4.0 + rnd.Float64()*8.0,
		humidity:  40 + rnd.Intn(31),
	}
}

// Next drifts the sensor state one step and returns the reading.
// Freshness decays by -2..+1 with a floor of 50; temperature moves
// within ±0.3 C floored at 0; humidity moves within ±2 clamped to [20,90].
func (s *Simulator) Next(now time.Time) models.FreshnessReading {
	s.freshness += s.rnd.Intn(4) - 2 // -2..1
	if s.freshness < 50 {
		s.freshness = 50
	}
	s.tempC += s.rnd.Float64()*0.6 - 0.3
	if s.tempC < 0 {
		s.tempC = 0
	}
	s.humidity += s.rnd.Intn(5) - 2 // -2..2
	if s.humidity < 20 {
		s.humidity = 20
	}
	if s.humidity > 90 {
		s.humidity = 90
	}
	return models.FreshnessReading{
		ListingID:    s.listingID,
		Freshness:    s.freshness,
		TemperatureC: math.Round(s.tempC*10) / 10,
		Humidity:     s.humidity,
		Timestamp:    now.UTC(),
	}
}
