// Package offerstream implements the offer stream reader (C4): an
// incremental parser over a large top-level JSON array that normalizes
// each element into a domain.RawOffer.
package offerstream

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/pkg/text"
	pipelinevalidator "github.com/geomatic-pipeline/pipeline/internal/pkg/validator"
)

var nafDotRe = regexp.MustCompile(`\.`)

// wireOffer mirrors the offer stream's on-disk shape (§6 Inputs); every
// field that feeds normalization is a pointer so a missing block is
// distinguishable from an empty one.
type wireOffer struct {
	Identifier *struct {
		ID string `json:"id"`
	} `json:"identifier"`
	Workplace *struct {
		Siret  string `json:"siret"`
		Legal  string `json:"legal_name"`
		Name   string `json:"name"`
		Brand  string `json:"brand"`
		Size   string `json:"size"`
		Location *struct {
			Address  string `json:"address"`
			Geopoint *struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geopoint"`
		} `json:"location"`
		Domain *struct {
			Naf *struct {
				Code string `json:"code"`
			} `json:"naf"`
		} `json:"domain"`
	} `json:"workplace"`
	Offer *struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		TargetDiploma string   `json:"target_diploma"`
		DesiredSkills []string `json:"desired_skills"`
	} `json:"offer"`
	Contract *struct {
		Type     string `json:"type"`
		Start    string `json:"start"`
		Duration string `json:"duration"`
	} `json:"contract"`
	Apply *struct {
		URL string `json:"url"`
	} `json:"apply"`
	AccessConditions string `json:"access_conditions"`
}

// Consumer is invoked once per normalized offer. The reader pauses
// consumption of the underlying stream until Consumer returns, giving
// the caller backpressure control over how fast records are produced.
type Consumer func(offer *domain.RawOffer) error

// Read streams a top-level JSON array from r, normalizing each element
// and invoking consume synchronously — the decoder does not advance to
// the next element until consume returns, which is the reader's entire
// backpressure contract.
func Read(r io.Reader, consume Consumer) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("offer stream is not a top-level JSON array")
	}

	for dec.More() {
		var raw wireOffer
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding offer element: %w", err)
		}

		offer, ok := normalize(&raw)
		if !ok {
			continue
		}
		if err := pipelinevalidator.Validate(offer); err != nil {
			continue
		}
		if err := consume(offer); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading closing token: %w", err)
	}
	return nil
}

func normalize(raw *wireOffer) (*domain.RawOffer, bool) {
	if raw.Workplace == nil || raw.Offer == nil {
		return nil, false
	}

	offer := &domain.RawOffer{}
	if raw.Identifier != nil {
		offer.OfferID = raw.Identifier.ID
	}
	offer.SIRET = raw.Workplace.Siret
	offer.CompanyName = resolveCompanyName(raw)

	if raw.Workplace.Location != nil {
		offer.WorkplaceAddress = raw.Workplace.Location.Address
		if g := raw.Workplace.Location.Geopoint; g != nil && len(g.Coordinates) == 2 {
			lon, lat := g.Coordinates[0], g.Coordinates[1]
			offer.Lon, offer.Lat = &lon, &lat
		}
	}
	if raw.Workplace.Domain != nil && raw.Workplace.Domain.Naf != nil {
		offer.WorkplaceNAF = stripNafDots(raw.Workplace.Domain.Naf.Code)
	}

	offer.Title = raw.Offer.Title
	offer.Description = raw.Offer.Description
	offer.TargetDiploma = raw.Offer.TargetDiploma
	offer.DesiredSkills = raw.Offer.DesiredSkills

	if raw.Contract != nil {
		offer.ContractType = raw.Contract.Type
		offer.ContractStart = raw.Contract.Start
		offer.ContractDuration = raw.Contract.Duration
	}
	if raw.Apply != nil {
		offer.ApplyURL = raw.Apply.URL
	}
	offer.AccessConditions = raw.AccessConditions

	return offer, true
}

func resolveCompanyName(raw *wireOffer) string {
	if raw.Workplace.Legal != "" {
		return raw.Workplace.Legal
	}
	if raw.Workplace.Name != "" {
		return raw.Workplace.Name
	}
	if raw.Workplace.Brand != "" {
		return raw.Workplace.Brand
	}
	if raw.Offer != nil {
		if extracted := text.ExtractBrandFromDescription(raw.Offer.Description); extracted != "" {
			return extracted
		}
	}
	return ""
}

// stripNafDots removes the dot separator DuckDB's sirene-derived NAF
// codes never carry but the raw offer stream sometimes does.
func stripNafDots(naf string) string {
	return nafDotRe.ReplaceAllString(strings.TrimSpace(naf), "")
}
