// Package output serializes the pipeline's artifacts: the employer
// GeoJSON FeatureCollection, the offers-by-location index, the
// stops-ref table, the per-location StopLink map, and the graph.
package output

import (
	"encoding/json"
	"os"

	"github.com/paulmach/go.geojson"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
)

// WriteCompanies serializes CompanyLocations as a GeoJSON
// FeatureCollection to path.
func WriteCompanies(path string, companies map[string]*domain.CompanyLocation) error {
	fc := geojson.NewFeatureCollection()
	for _, loc := range companies {
		f := geojson.NewPointFeature([]float64{loc.Lon, loc.Lat})
		f.ID = loc.StorageID
		f.SetProperty("siret", loc.SIRET)
		f.SetProperty("storage_id", loc.StorageID)
		f.SetProperty("company", loc.Company)
		f.SetProperty("sector", loc.Sector)
		f.SetProperty("size", loc.Size)
		f.SetProperty("is_virtual", loc.IsVirtual)
		f.SetProperty("transport_score", loc.TransportScore)
		f.SetProperty("isPublic", loc.IsPublic)
		f.SetProperty("stations_count", loc.StationsCount)
		f.SetProperty("offers_count", loc.OffersCount)
		f.SetProperty("transport_modes", loc.TransportModes)
		fc.AddFeature(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteJSON pretty-prints any of the remaining four artifacts (offers,
// stops-ref, stop-links, graph) with a two-space indent.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
