package spatial

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/domain/repository"
	"github.com/geomatic-pipeline/pipeline/internal/pkg/geo"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
)

const cellSize = 0.01

type cellKey struct {
	latCell int
	lonCell int
}

// StopIndex is the in-memory grid nearest-neighbor index over queryable
// stops (location_type 0, 1, or null), built once after P1 (C6).
type StopIndex struct {
	cells map[cellKey][]domain.Stop
	byID  map[string]domain.Stop
}

// Build loads every queryable stop from the store and buckets it by
// 0.01-degree grid cell.
func Build(ctx context.Context, store repository.Store, logger *zap.Logger) (*StopIndex, error) {
	var stops []domain.Stop
	query := `SELECT stop_id, stop_name, stop_lat, stop_lon, location_type,
		dataset_id, resource_id, dataset_datagouv_id, resource_datagouv_id, dataset_custom_title
		FROM transport_stops WHERE location_type IS NULL OR location_type IN (0, 1)`
	if err := store.Select(ctx, &stops, query); err != nil {
		return nil, pipelineerrors.NewSpatialLookupError(fmt.Sprintf("loading queryable stops: %v", err))
	}

	idx := &StopIndex{
		cells: make(map[cellKey][]domain.Stop),
		byID:  make(map[string]domain.Stop, len(stops)),
	}
	for _, s := range stops {
		k := keyFor(s.Lat, s.Lon)
		idx.cells[k] = append(idx.cells[k], s)
		idx.byID[s.StopID] = s
	}

	logger.Info("spatial stop index built", zap.Int("stops", len(stops)), zap.Int("cells", len(idx.cells)))
	return idx, nil
}

func keyFor(lat, lon float64) cellKey {
	return cellKey{
		latCell: int(math.Floor(lat / cellSize)),
		lonCell: int(math.Floor(lon / cellSize)),
	}
}

// FindNearby scans the grid cells overlapping a radiusM circle around
// (lat, lon) and returns queryable stops within that radius, sorted by
// ascending distance.
func (idx *StopIndex) FindNearby(lat, lon, radiusM float64) []domain.NearbyStop {
	rangeCells := int(math.Ceil(radiusM / 111000 / cellSize))
	center := keyFor(lat, lon)
	marginDeg := (radiusM + 50) / 111000

	var candidates []domain.Stop
	for dLat := -rangeCells; dLat <= rangeCells; dLat++ {
		for dLon := -rangeCells; dLon <= rangeCells; dLon++ {
			k := cellKey{latCell: center.latCell + dLat, lonCell: center.lonCell + dLon}
			candidates = append(candidates, idx.cells[k]...)
		}
	}

	var results []domain.NearbyStop
	for _, s := range candidates {
		if math.Abs(s.Lat-lat) > marginDeg || math.Abs(s.Lon-lon) > marginDeg {
			continue
		}
		d := geo.DistanceMeters(lat, lon, s.Lat, s.Lon)
		if d <= radiusM {
			results = append(results, domain.NearbyStop{ID: s.StopID, DistanceM: d})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].DistanceM < results[j].DistanceM })
	return results
}

// StopByID returns the full stop record for a stop id found by
// FindNearby, used to populate the global stops-ref map the first time
// a stop is referenced.
func (idx *StopIndex) StopByID(id string) (domain.Stop, bool) {
	s, ok := idx.byID[id]
	return s, ok
}
