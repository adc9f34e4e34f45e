package accessibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/gtfs"
)

func datasetWithModes(modes map[string][]string) *gtfs.Dataset {
	ds := &gtfs.Dataset{
		StopModes: make(map[string]map[string]bool),
		StopLines: make(map[string]map[string]bool),
	}
	for stopID, ms := range modes {
		set := make(map[string]bool, len(ms))
		for _, m := range ms {
			set[m] = true
		}
		ds.StopModes[stopID] = set
	}
	return ds
}

func TestScore_NearMetroStopScoresHigherThanFarBusStop(t *testing.T) {
	companies := map[string]*domain.CompanyLocation{
		"loc1": {StorageID: "loc1"},
	}
	stopLinks := map[string]*domain.StopLink{
		"loc1": {
			Radius: 2000,
			Stations: []domain.NearbyStop{
				{ID: "stop-metro", DistanceM: 120},
				{ID: "stop-bus", DistanceM: 1500},
			},
		},
	}
	stopsRef := map[string]domain.StopRef{
		"stop-metro": {DatasetID: "ds1"},
		"stop-bus":   {DatasetID: "ds1"},
	}
	cache := Cache{
		"ds1": datasetWithModes(map[string][]string{
			"stop-metro": {domain.ModeMetro},
			"stop-bus":   {domain.ModeBus},
		}),
	}

	Score(companies, stopLinks, stopsRef, cache)

	loc := companies["loc1"]
	// base=5.0, decay=1-0.120/1.7 => 4.65
	assert.InDelta(t, 4.65, loc.TransportScore, 0.01)
	assert.Contains(t, loc.TransportModes, domain.ModeMetro)
	assert.Contains(t, loc.TransportModes, domain.ModeBus)
	assert.Equal(t, []string{domain.ModeMetro}, stopLinks["loc1"].Stations[0].Modes)
}

func TestScoreStop_ClampsDecayAtZeroBeyondRange(t *testing.T) {
	score := scoreStop([]string{domain.ModeBus}, 5000)
	assert.Equal(t, 0.0, score)
}

func TestScoreStop_MissingModesDefaultToBus(t *testing.T) {
	modes, _ := lookup("unknown-stop", map[string]domain.StopRef{}, Cache{})
	assert.Equal(t, []string{domain.ModeBus}, modes)
}
