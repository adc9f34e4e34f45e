package geo

import (
	"github.com/umahmood/haversine"
)

// DistanceMeters returns the great-circle distance between two WGS84
// points in meters, via the same haversine implementation the rest of
// the GTFS-adjacent ecosystem reaches for rather than hand-rolling the
// formula at every call site.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: lat1, Lon: lon1},
		haversine.Coord{Lat: lat2, Lon: lon2},
	)
	return km * 1000
}

// ValidateCoordinates reports whether a (lat, lon) pair falls within
// valid WGS84 bounds.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
