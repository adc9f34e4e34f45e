package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePointIsZero(t *testing.T) {
	d := DistanceMeters(48.8566, 2.3522, 48.8566, 2.3522)
	assert.InDelta(t, 0, d, 0.001)
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// Paris (Notre-Dame) to Versailles (Château), roughly 17.5 km apart.
	d := DistanceMeters(48.852968, 2.349902, 48.804865, 2.120355)
	assert.InDelta(t, 17500, d, 2000)
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(48.8566, 2.3522))
	assert.False(t, ValidateCoordinates(91, 2.3522))
	assert.False(t, ValidateCoordinates(48.8566, -181))
}
