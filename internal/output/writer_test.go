package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
)

func TestWriteCompanies_ProducesValidFeatureCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.geojson")
	companies := map[string]*domain.CompanyLocation{
		"loc-1": {
			StorageID:   "loc-1",
			SIRET:       "12345678900010",
			Company:     "ACME",
			Lat:         48.8566,
			Lon:         2.3522,
			OffersCount: 3,
		},
	}

	require.NoError(t, WriteCompanies(path, companies))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string  `json:"type"`
			ID         string  `json:"id"`
			Geometry   struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
	f := decoded.Features[0]
	assert.Equal(t, "loc-1", f.ID)
	assert.Equal(t, []float64{2.3522, 48.8566}, f.Geometry.Coordinates)
	assert.Equal(t, "12345678900010", f.Properties["siret"])
	assert.Equal(t, float64(3), f.Properties["offers_count"])
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.json")
	input := map[string][]domain.Offer{
		"loc-1": {{OfferID: "o1", Title: "Développeur"}},
	}

	require.NoError(t, WriteJSON(path, input))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string][]domain.Offer
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, input, out)
}
