// Package graphbuild implements the graph builder (C12): master-node
// consolidation, transit-edge emission and walking-transfer synthesis
// over every parsed GTFS dataset.
package graphbuild

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/gtfs"
	"github.com/geomatic-pipeline/pipeline/internal/pkg/geo"
)

const (
	walkRadiusKm   = 0.2
	walkSpeedMPerS = 1.25
	walkDwellS     = 120
	transitDwellS  = 25
	busSpeedKMH    = 20
	fastSpeedKMH   = 55
)

// Dataset pairs a parsed GTFS feed with the dataset id its stop refs
// carry, so the raw-stop-to-master lookup of one feed never resolves a
// raw stop id of another feed. Master node ids themselves are not
// prefixed: feeds sharing a raw or parent station id share that node.
type Dataset struct {
	ID     string
	Parsed *gtfs.Dataset
}

// Build consolidates every dataset into master nodes, emits transit
// edges per dataset, then a single cross-dataset pass of walking
// transfers.
func Build(datasets []Dataset, logger *zap.Logger) *domain.Graph {
	graph := domain.NewGraph()
	rawToMaster := make(map[string]string)

	for _, ds := range datasets {
		if err := processDataset(graph, rawToMaster, ds); err != nil {
			logger.Error("gtfs dataset graph build failed", zap.String("dataset", ds.ID), zap.Error(err))
			continue
		}
	}

	addWalkingTransfers(graph)

	logger.Info("graph built",
		zap.Int("nodes", len(graph.Nodes)),
		zap.Int("edges", countEdges(graph)),
		zap.Int("isolated_nodes", countIsolated(graph)),
	)
	return graph
}

// countIsolated counts master nodes with no outgoing edge at all, the
// diagnostic operators use to sanity-check a GTFS ingestion before
// handing the graph to the downstream planner.
func countIsolated(graph *domain.Graph) int {
	n := 0
	for id := range graph.Nodes {
		if len(graph.Adjacency[id]) == 0 {
			n++
		}
	}
	return n
}

func processDataset(graph *domain.Graph, rawToMaster map[string]string, ds Dataset) error {
	for rawID, stop := range ds.Parsed.Stops {
		masterID := stop.ParentStation
		if masterID == "" {
			masterID = rawID
		}
		rawToMaster[datasetKey(ds.ID, rawID)] = masterID

		node, exists := graph.Nodes[masterID]
		if !exists {
			lat, lon := parseCoord(stop.StopLat), parseCoord(stop.StopLon)
			node = &domain.GraphNode{ID: masterID, Name: stop.StopName, Lat: lat, Lon: lon}
			graph.Nodes[masterID] = node
		}
		node.Children = append(node.Children, rawID)
	}

	for i := 0; i+1 < len(ds.Parsed.StopTimes); i++ {
		cur, next := ds.Parsed.StopTimes[i], ds.Parsed.StopTimes[i+1]
		if cur.TripID != next.TripID {
			continue
		}

		srcMaster := rawToMaster[datasetKey(ds.ID, cur.StopID)]
		dstMaster := rawToMaster[datasetKey(ds.ID, next.StopID)]
		if srcMaster == "" || dstMaster == "" || srcMaster == dstMaster {
			continue
		}

		srcNode, dstNode := graph.Nodes[srcMaster], graph.Nodes[dstMaster]
		if srcNode == nil || dstNode == nil {
			continue
		}

		routeID := ds.Parsed.TripRoute[cur.TripID]
		routeType := ds.Parsed.RouteType[routeID]
		mode := domain.ModeForRouteType(routeType)

		speedKMH := fastSpeedKMH
		if mode == domain.ModeBus {
			speedKMH = busSpeedKMH
		}

		distanceM := geo.DistanceMeters(srcNode.Lat, srcNode.Lon, dstNode.Lat, dstNode.Lon)
		weight := int(math.Round(distanceM/1000/(float64(speedKMH)/3600))) + transitDwellS

		line := ds.Parsed.RouteLabel[routeID]
		headsign := ds.Parsed.TripHeadsign[cur.TripID]

		graph.AddEdge(&domain.TransitEdge{
			Source:   srcMaster,
			Target:   dstMaster,
			WeightS:  weight,
			Mode:     mode,
			Line:     line,
			Headsign: headsign,
		})
	}

	return nil
}

// addWalkingTransfers builds one KD-tree over every master node and
// emits a walking edge between any pair within walkRadiusKm, run once
// after every dataset's transit edges are in place.
func addWalkingTransfers(graph *domain.Graph) {
	ids := make([]string, 0, len(graph.Nodes))
	points := make([]geo.Point, 0, len(graph.Nodes))
	for id, node := range graph.Nodes {
		ids = append(ids, id)
		points = append(points, geo.Point{Lon: node.Lon, Lat: node.Lat})
	}
	index := geo.New(points)

	for i, id := range ids {
		node := graph.Nodes[id]
		neighbors := index.Around(node.Lon, node.Lat, len(ids), walkRadiusKm)
		for _, j := range neighbors {
			if j == i {
				continue
			}
			other := graph.Nodes[ids[j]]
			distanceM := geo.DistanceMeters(node.Lat, node.Lon, other.Lat, other.Lon)
			weight := int(math.Round(distanceM/walkSpeedMPerS)) + walkDwellS
			graph.AddEdge(&domain.TransitEdge{
				Source:   id,
				Target:   ids[j],
				WeightS:  weight,
				Mode:     domain.ModeWalk,
				Line:     domain.LineCorrespondance,
				Headsign: domain.HeadsignMarche,
			})
		}
	}
}

func countEdges(graph *domain.Graph) int {
	n := 0
	for _, edges := range graph.Adjacency {
		n += len(edges)
	}
	return n
}

func datasetKey(datasetID, rawStopID string) string {
	return datasetID + ":" + rawStopID
}

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
