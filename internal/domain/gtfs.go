package domain

import "strconv"

// GTFSStop is one row of a GTFS feed's stops.txt.
type GTFSStop struct {
	StopID        string `csv:"stop_id"`
	StopName      string `csv:"stop_name"`
	StopLat       string `csv:"stop_lat"`
	StopLon       string `csv:"stop_lon"`
	ParentStation string `csv:"parent_station"`
	LocationType  string `csv:"location_type"`
}

// GTFSRoute is one row of routes.txt.
type GTFSRoute struct {
	RouteID        string `csv:"route_id"`
	RouteShortName string `csv:"route_short_name"`
	RouteLongName  string `csv:"route_long_name"`
	RouteType      string `csv:"route_type"`
}

// GTFSTrip is one row of trips.txt.
type GTFSTrip struct {
	TripID       string `csv:"trip_id"`
	RouteID      string `csv:"route_id"`
	TripHeadsign string `csv:"trip_headsign"`
}

// GTFSStopTime is one row of stop_times.txt.
type GTFSStopTime struct {
	TripID       string `csv:"trip_id"`
	StopID       string `csv:"stop_id"`
	StopSequence string `csv:"stop_sequence"`
}

// StopSeq parses the stop_sequence field, defaulting to zero on a
// malformed value rather than aborting the whole feed.
func (st *GTFSStopTime) StopSeq() int {
	n, err := strconv.Atoi(st.StopSequence)
	if err != nil {
		return 0
	}
	return n
}

// ModeForRouteType maps a GTFS route_type to the pipeline's mode label.
// Route-type ranges follow the [100,199] inclusive convention for Train.
func ModeForRouteType(routeType string) string {
	rt, err := strconv.Atoi(routeType)
	if err != nil {
		return ModeBus
	}
	switch {
	case rt == 1 || (rt >= 400 && rt <= 404):
		return ModeMetro
	case rt == 0 || (rt >= 900 && rt <= 906):
		return ModeTram
	case rt == 2 || (rt >= 100 && rt <= 199):
		return ModeTrain
	case rt == 3:
		return ModeBus
	case rt == 4 || rt == 1000:
		return ModeFerry
	case rt == 5 || rt == 7 || rt == 1400:
		return ModeFunicular
	default:
		return ModeBus
	}
}

// GTFSDataset describes one GTFS resource needed to enrich the output,
// as surfaced by the dataset aggregator (C8).
type GTFSDataset struct {
	DatasetID          string
	ResourceID          string
	DatasetDatagouvID   string
	ResourceDatagouvID  string
	DatasetCustomTitle  string
}

// URL builds the primary download URL for a dataset resource.
func (d GTFSDataset) URL() string {
	return "https://www.data.gouv.fr/fr/datasets/r/" + d.ResourceDatagouvID
}

// FallbackURL builds the secondary download URL, used when the primary
// is ambiguous or fails.
func (d GTFSDataset) FallbackURL() string {
	return "https://transport.data.gouv.fr/resources/" + d.ResourceID + "/download"
}
