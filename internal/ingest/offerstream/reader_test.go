package offerstream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
)

const sampleStream = `[
  {
    "identifier": {"id": "o1"},
    "workplace": {
      "siret": "12345678900010",
      "legal_name": "ACME SAS",
      "location": {"address": "1 rue de Rivoli, 75001 Paris", "geopoint": {"coordinates": [2.3522, 48.8566]}},
      "domain": {"naf": {"code": "62.01Z"}}
    },
    "offer": {"title": "Développeur", "description": "Rejoignez l'entreprise Dupont"},
    "contract": {"type": "CDI"},
    "apply": {"url": "https://example.com/apply"},
    "access_conditions": "Bac+3"
  },
  {
    "identifier": {"id": "o2"}
  },
  {
    "identifier": {"id": "o3"},
    "workplace": {"name": "Brand Co"},
    "offer": {"title": "Stage"}
  }
]`

func TestRead_NormalizesAndDropsIncompleteRecords(t *testing.T) {
	var offers []*domain.RawOffer
	err := Read(strings.NewReader(sampleStream), func(o *domain.RawOffer) error {
		offers = append(offers, o)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, offers, 2, "the record missing both workplace and offer must be dropped")

	first := offers[0]
	assert.Equal(t, "o1", first.OfferID)
	assert.Equal(t, "12345678900010", first.SIRET)
	assert.Equal(t, "ACME SAS", first.CompanyName)
	require.NotNil(t, first.Lat)
	require.NotNil(t, first.Lon)
	assert.InDelta(t, 48.8566, *first.Lat, 0.0001)
	assert.InDelta(t, 2.3522, *first.Lon, 0.0001)
	assert.Equal(t, "6201Z", first.WorkplaceNAF)

	second := offers[1]
	assert.Equal(t, "o3", second.OfferID)
	assert.Equal(t, "Brand Co", second.CompanyName)
}

func TestRead_RejectsNonArrayStream(t *testing.T) {
	err := Read(strings.NewReader(`{"not": "an array"}`), func(o *domain.RawOffer) error { return nil })
	assert.Error(t, err)
}

func TestStripNafDots(t *testing.T) {
	assert.Equal(t, "6201Z", stripNafDots("62.01Z"))
}
