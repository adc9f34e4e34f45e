package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical strings", "ACME SAS", "ACME SAS", 1.0},
		{"empty strings are identical", "", "", 1.0},
		{"completely different single chars", "a", "b", 0.0},
		{"case insensitive", "Acme", "ACME", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizedSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestNormalizedSimilarity_Bounds(t *testing.T) {
	sim := NormalizedSimilarity("Boulangerie Martin", "Boulangerie Martine")
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
	assert.Greater(t, sim, 0.5, "one inserted character in a long name should still score high")
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "ACME Corp", CleanName(`"ACME"-  Corp`))
	assert.Equal(t, "A B C", CleanName("A   B\tC"))
}

func TestExtractPostalCode(t *testing.T) {
	assert.Equal(t, "75001", ExtractPostalCode("12 rue de Rivoli, 75001 Paris"))
	assert.Equal(t, "", ExtractPostalCode("no postal code here"))
}

func TestExtractBrandFromDescription(t *testing.T) {
	assert.Equal(t, "Dupont", ExtractBrandFromDescription("Rejoignez l'entreprise Dupont pour ce poste."))
	assert.Equal(t, "", ExtractBrandFromDescription("aucune mention"))
}
