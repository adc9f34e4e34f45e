package gtfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
)

// Dataset is one parsed GTFS feed: the raw tables plus the per-stop
// mode/line accumulation the accessibility scorer and graph builder
// consume.
type Dataset struct {
	Stops     map[string]domain.GTFSStop
	StopModes map[string]map[string]bool
	StopLines map[string]map[string]bool
	StopTimes    []domain.GTFSStopTime
	TripRoute    map[string]string
	TripHeadsign map[string]string
	RouteType    map[string]string
	RouteLabel   map[string]string
}

// Parse reads stops.txt, routes.txt, trips.txt and stop_times.txt from
// dir in that order, accumulates per-stop modes/lines, and propagates
// them across parent/child station links.
func Parse(dir string) (*Dataset, error) {
	var stops []domain.GTFSStop
	if err := readCSV(filepath.Join(dir, "stops.txt"), &stops); err != nil {
		return nil, err
	}
	var routes []domain.GTFSRoute
	if err := readCSV(filepath.Join(dir, "routes.txt"), &routes); err != nil {
		return nil, err
	}
	var trips []domain.GTFSTrip
	if err := readCSV(filepath.Join(dir, "trips.txt"), &trips); err != nil {
		return nil, err
	}
	var stopTimes []domain.GTFSStopTime
	if err := readCSV(filepath.Join(dir, "stop_times.txt"), &stopTimes); err != nil {
		return nil, err
	}

	ds := &Dataset{
		Stops:      make(map[string]domain.GTFSStop, len(stops)),
		StopModes:    make(map[string]map[string]bool),
		StopLines:    make(map[string]map[string]bool),
		TripRoute:    make(map[string]string, len(trips)),
		TripHeadsign: make(map[string]string, len(trips)),
		RouteType:    make(map[string]string, len(routes)),
		RouteLabel:   make(map[string]string, len(routes)),
	}
	for _, s := range stops {
		ds.Stops[s.StopID] = s
	}
	for _, r := range routes {
		ds.RouteType[r.RouteID] = r.RouteType
		label := r.RouteShortName
		if label == "" {
			label = r.RouteLongName
		}
		ds.RouteLabel[r.RouteID] = label
	}
	for _, t := range trips {
		ds.TripRoute[t.TripID] = t.RouteID
		ds.TripHeadsign[t.TripID] = t.TripHeadsign
	}

	sort.Slice(stopTimes, func(i, j int) bool {
		if stopTimes[i].TripID != stopTimes[j].TripID {
			return stopTimes[i].TripID < stopTimes[j].TripID
		}
		return stopTimes[i].StopSeq() < stopTimes[j].StopSeq()
	})
	ds.StopTimes = stopTimes

	for _, st := range stopTimes {
		routeID, ok := ds.TripRoute[st.TripID]
		if !ok {
			continue
		}
		mode := domain.ModeForRouteType(ds.RouteType[routeID])
		ds.addMode(st.StopID, mode)
		if label := ds.RouteLabel[routeID]; label != "" {
			ds.addLine(st.StopID, label)
		}
	}

	ds.propagateStations()
	return ds, nil
}

func (ds *Dataset) addMode(stopID, mode string) {
	if ds.StopModes[stopID] == nil {
		ds.StopModes[stopID] = make(map[string]bool)
	}
	ds.StopModes[stopID][mode] = true
}

func (ds *Dataset) addLine(stopID, line string) {
	if ds.StopLines[stopID] == nil {
		ds.StopLines[stopID] = make(map[string]bool)
	}
	ds.StopLines[stopID][line] = true
}

// propagateStations merges modes/lines between each child stop and its
// parent station in both directions, so a station's accessibility
// reflects the union of all its platforms and vice versa.
func (ds *Dataset) propagateStations() {
	for childID, stop := range ds.Stops {
		parentID := stop.ParentStation
		if parentID == "" {
			continue
		}
		for mode := range ds.StopModes[childID] {
			ds.addMode(parentID, mode)
		}
		for line := range ds.StopLines[childID] {
			ds.addLine(parentID, line)
		}
	}
	for childID, stop := range ds.Stops {
		parentID := stop.ParentStation
		if parentID == "" {
			continue
		}
		for mode := range ds.StopModes[parentID] {
			ds.addMode(childID, mode)
		}
		for line := range ds.StopLines[parentID] {
			ds.addLine(childID, line)
		}
	}
}

// ModesFor returns the sorted mode labels known for a stop, defaulting
// to ["Bus"] when the stop was never seen in stop_times.
func (ds *Dataset) ModesFor(stopID string) []string {
	set := ds.StopModes[stopID]
	if len(set) == 0 {
		return []string{domain.ModeBus}
	}
	return sortedKeys(set)
}

// LinesFor returns the sorted line labels known for a stop.
func (ds *Dataset) LinesFor(stopID string) []string {
	return sortedKeys(ds.StopLines[stopID])
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MapTargets implements the mapping-mode diagnostic: for each
// configured target stop (id, name), it records every GTFS stop id that
// either contains or is contained by the target id, or whose normalized
// name contains a target name longer than 3 characters.
func (ds *Dataset) MapTargets(targets map[string]string) map[string][]string {
	matches := make(map[string][]string)
	for targetID, targetName := range targets {
		normalizedTarget := strings.ToLower(strings.TrimSpace(targetName))
		for stopID, stop := range ds.Stops {
			matched := strings.Contains(stopID, targetID) || strings.Contains(targetID, stopID)
			if !matched && len(normalizedTarget) > 3 {
				matched = strings.Contains(strings.ToLower(stop.StopName), normalizedTarget)
			}
			if matched {
				matches[targetID] = append(matches[targetID], stopID)
			}
		}
	}
	return matches
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return pipelineerrors.NewGtfsParseError(fmt.Sprintf("opening %s: %v", path, err))
	}
	defer f.Close()
	if err := gocsv.Unmarshal(f, out); err != nil {
		return pipelineerrors.NewGtfsParseError(fmt.Sprintf("parsing %s: %v", path, err))
	}
	return nil
}
