package graphbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/gtfs"
)

func syntheticDataset() *gtfs.Dataset {
	return &gtfs.Dataset{
		Stops: map[string]domain.GTFSStop{
			"platform-a": {StopID: "platform-a", StopName: "Gare A - Voie 1", StopLat: "48.8566", StopLon: "2.3522", ParentStation: "station-a"},
			"platform-b": {StopID: "platform-b", StopName: "Gare B", StopLat: "48.8600", StopLon: "2.3600"},
		},
		TripRoute:    map[string]string{"trip1": "route1"},
		TripHeadsign: map[string]string{"trip1": "Gare B"},
		RouteType:    map[string]string{"route1": "2"}, // Train
		RouteLabel:   map[string]string{"route1": "RER A"},
		StopTimes: []domain.GTFSStopTime{
			{TripID: "trip1", StopID: "platform-a", StopSequence: "1"},
			{TripID: "trip1", StopID: "platform-b", StopSequence: "2"},
		},
	}
}

func TestBuild_ConsolidatesParentStationAndEmitsTransitEdge(t *testing.T) {
	ds := Dataset{ID: "ds1", Parsed: syntheticDataset()}
	graph := Build([]Dataset{ds}, zap.NewNop())

	assert.Contains(t, graph.Nodes, "station-a", "the platform's parent_station must become the master node id")
	assert.Contains(t, graph.Nodes, "platform-b", "a stop with no parent_station is its own master node")

	edges := graph.Adjacency["station-a"]
	var transit *domain.TransitEdge
	for _, e := range edges {
		if e.Mode == domain.ModeTrain {
			transit = e
		}
	}
	if assert.NotNil(t, transit) {
		assert.Equal(t, "platform-b", transit.Target)
		assert.Equal(t, "RER A", transit.Line)
		assert.Equal(t, "Gare B", transit.Headsign, "trip_headsign from trips.txt must reach the transit edge")
		assert.Greater(t, transit.WeightS, 0)
	}
}

func TestBuild_NoWalkingTransferBeyondWalkRadius(t *testing.T) {
	ds := Dataset{ID: "ds1", Parsed: syntheticDataset()}
	graph := Build([]Dataset{ds}, zap.NewNop())

	found := false
	for _, e := range graph.Adjacency["station-a"] {
		if e.Mode == domain.ModeWalk {
			found = true
			assert.Equal(t, domain.LineCorrespondance, e.Line)
			assert.Equal(t, domain.HeadsignMarche, e.Headsign)
		}
	}
	// station-a and platform-b are ~0.7km apart, outside the 0.2km walk
	// radius, so no walking edge should appear between them here.
	assert.False(t, found)
}
