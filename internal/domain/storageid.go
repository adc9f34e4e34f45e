package domain

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Round4 rounds a coordinate to four decimal places, the grain at which
// two offers are considered to share a location.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// StorageID derives the canonical key for a (employer, location) pair.
// When a SIRET is known the id is deterministic and collapses any two
// offers sharing the same SIRET and rounded coordinates. Without a SIRET
// a virtual id is derived from the company name instead, so two offers
// for an unidentified company at the same spot still collapse.
func StorageID(siret, companyName string, lat, lon float64) string {
	lat4, lon4 := formatCoord(Round4(lat)), formatCoord(Round4(lon))
	if siret != "" {
		return fmt.Sprintf("%s_%s_%s", siret, lat4, lon4)
	}
	name := companyName
	if name == "" {
		name = "Inconnu"
	}
	raw := fmt.Sprintf("%s_%s_%s", name, lat4, lon4)
	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(raw))
	encoded = strings.ReplaceAll(encoded, "/", "_")
	return "VIRTUAL_" + encoded
}

// formatCoord prints a 4dp coordinate without scientific notation,
// dropping trailing zeros (and a trailing dot), so 48.0000 prints as "48".
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
