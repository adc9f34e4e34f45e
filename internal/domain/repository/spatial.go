package repository

import "github.com/geomatic-pipeline/pipeline/internal/domain"

// SpatialStopIndex is the in-memory grid nearest-neighbor query surface
// the orchestrator (C7) queries once per newly-seen location.
type SpatialStopIndex interface {
	// FindNearby returns stops within radiusM of (lat, lon), sorted by
	// ascending distance.
	FindNearby(lat, lon, radiusM float64) []domain.NearbyStop

	// StopByID returns the full stop record for an id surfaced by
	// FindNearby.
	StopByID(id string) (domain.Stop, bool)
}
