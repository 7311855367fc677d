package geo

import (
	"math"

	"github.com/example/connectfood/internal/models"
)

// EarthRadiusKm is the spherical-Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers. Symmetric, and zero only for identical coordinates
// (longitude wraparound at the antimeridian is not special-cased).
func HaversineKm(a, b models.Coord) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// RoundKm rounds a distance to 2 decimal places, the precision exposed
// in API responses and persisted on matches.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
