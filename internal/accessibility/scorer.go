// Package accessibility implements the accessibility scorer (C11): it
// joins per-stop GTFS modes with per-location stop links and computes a
// distance-decayed score.
package accessibility

import (
	"math"
	"sort"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/gtfs"
)

const decayKm = 1.7

// Cache looks up a parsed GTFS dataset by the dataset id a stop ref
// carries, keyed `<dataset_id>:<stop_id>` conceptually but indexed here
// by dataset id alone since each Dataset already maps its own stop ids.
type Cache map[string]*gtfs.Dataset

// Score enriches every StopLink's stations with their GTFS modes/lines
// and updates each CompanyLocation's transport_score and
// transport_modes in place.
func Score(companies map[string]*domain.CompanyLocation, stopLinks map[string]*domain.StopLink, stopsRef map[string]domain.StopRef, cache Cache) {
	for storageID, link := range stopLinks {
		loc, ok := companies[storageID]
		if !ok {
			continue
		}

		best := 0.0
		modeSet := make(map[string]bool)

		for i := range link.Stations {
			station := &link.Stations[i]
			modes, lines := lookup(station.ID, stopsRef, cache)
			station.Modes = modes
			station.Lines = lines
			for _, m := range modes {
				modeSet[m] = true
			}

			score := scoreStop(modes, station.DistanceM)
			if score > best {
				best = score
			}
		}

		loc.TransportScore = math.Round(best*100) / 100
		loc.TransportModes = sortedModeKeys(modeSet)
	}
}

func lookup(stopID string, stopsRef map[string]domain.StopRef, cache Cache) ([]string, []string) {
	ref, ok := stopsRef[stopID]
	if !ok {
		return []string{domain.ModeBus}, nil
	}
	dataset, ok := cache[ref.DatasetID]
	if !ok {
		return []string{domain.ModeBus}, nil
	}
	return dataset.ModesFor(stopID), dataset.LinesFor(stopID)
}

func scoreStop(modes []string, distanceM float64) float64 {
	base := baseFor(modes)
	distanceKm := distanceM / 1000
	decay := 1 - distanceKm/decayKm
	if decay < 0 {
		decay = 0
	}
	return base * decay
}

// baseFor picks the highest-priority base score among a stop's modes:
// Train/Métro/RER outrank Tram, which outranks Bus.
func baseFor(modes []string) float64 {
	highSpeed := map[string]bool{
		domain.ModeTrain: true, domain.ModeMetro: true, "Metro": true, "RER": true,
	}
	tram := map[string]bool{domain.ModeTram: true, "Tramway": true}

	base := 0.0
	for _, m := range modes {
		switch {
		case highSpeed[m]:
			return 5.0
		case tram[m]:
			if base < 3.0 {
				base = 3.0
			}
		case m == domain.ModeBus:
			if base < 1.5 {
				base = 1.5
			}
		}
	}
	return base
}

func sortedModeKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
