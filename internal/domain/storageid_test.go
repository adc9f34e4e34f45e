package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageID(t *testing.T) {
	tests := []struct {
		name     string
		siret    string
		company  string
		lat, lon float64
		want     string
	}{
		{
			name:    "siret present produces deterministic id",
			siret:   "12345678900010",
			company: "ACME",
			lat:     48.8566,
			lon:     2.3522,
			want:    "12345678900010_48.8566_2.3522",
		},
		{
			name:    "whole-degree coordinates have no trailing dot",
			siret:   "12345678900010",
			company: "ACME",
			lat:     48,
			lon:     2,
			want:    "12345678900010_48_2",
		},
		{
			name:    "no siret falls back to a virtual id",
			siret:   "",
			company: "Bakery",
			lat:     48.8566,
			lon:     2.3522,
			want:    "VIRTUAL_QmFrZXJ5XzQ4Ljg1NjZfMi4zNTIy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StorageID(tt.siret, tt.company, tt.lat, tt.lon)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorageID_CollapsesSameSiretAndRoundedLocation(t *testing.T) {
	a := StorageID("12345678900010", "ACME", 48.85661, 2.35221)
	b := StorageID("12345678900010", "ACME SAS", 48.85664, 2.35224)
	assert.Equal(t, a, b, "two offers with the same siret and 4dp-rounded location must collapse to one id")
}

func TestStorageID_VirtualIDUsesInconnuWhenNameMissing(t *testing.T) {
	withName := StorageID("", "", 48.8566, 2.3522)
	assert.Contains(t, withName, "VIRTUAL_")
	assert.Equal(t, StorageID("", "Inconnu", 48.8566, 2.3522), withName)
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 48.8566, Round4(48.85664))
	assert.Equal(t, 48.8567, Round4(48.85666))
}
