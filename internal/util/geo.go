package util

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	var angle s1.Angle = s2.LatLngFromDegrees(lat1, lon1).Distance(s2.LatLngFromDegrees(lat2, lon2))
	return angle.Radians() * earthRadiusMeters
}

// RoundToKilometers converts meters to kilometers rounded to three decimals.
func RoundToKilometers(meters float64) float64 {
	return math.Round(meters) / 1000
}
