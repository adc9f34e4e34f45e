package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
)

func buildIndex(stops []domain.Stop) *StopIndex {
	idx := &StopIndex{
		cells: make(map[cellKey][]domain.Stop),
		byID:  make(map[string]domain.Stop, len(stops)),
	}
	for _, s := range stops {
		idx.cells[keyFor(s.Lat, s.Lon)] = append(idx.cells[keyFor(s.Lat, s.Lon)], s)
		idx.byID[s.StopID] = s
	}
	return idx
}

func TestFindNearby_SortedAscendingAndWithinRadius(t *testing.T) {
	idx := buildIndex([]domain.Stop{
		{StopID: "near", Lat: 48.8567, Lon: 2.3523},
		{StopID: "mid", Lat: 48.8600, Lon: 2.3550},
		{StopID: "far", Lat: 49.0000, Lon: 2.5000},
	})

	results := idx.FindNearby(48.8566, 2.3522, 2000)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, "near")
	assert.NotContains(t, ids, "far")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].DistanceM, results[i-1].DistanceM)
	}
}

func TestStopByID(t *testing.T) {
	idx := buildIndex([]domain.Stop{{StopID: "s1", Lat: 48.8566, Lon: 2.3522, Name: "Chatelet"}})

	stop, ok := idx.StopByID("s1")
	assert.True(t, ok)
	assert.Equal(t, "Chatelet", stop.Name)

	_, ok = idx.StopByID("missing")
	assert.False(t, ok)
}
