package eta

import "math"

const (
	// DefaultSpeedKmh assumes flat urban travel; real routing is out of scope.
	DefaultSpeedKmh = 40.0
	// MinMinutes is the floor applied regardless of distance.
	MinMinutes = 5.0
)

// EstimateMinutes converts a distance to a travel-time estimate at a
// constant speed, never returning less than MinMinutes.
func EstimateMinutes(distKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return math.Max(MinMinutes, distKm/speedKmh*60.0)
}

// RoundMinutes rounds an ETA to 1 decimal place for responses and
// persisted matches.
func RoundMinutes(min float64) float64 {
	return math.Round(min*10) / 10
}
