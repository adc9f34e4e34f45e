// Package pipeline implements the pipeline orchestrator (C7): P2's
// batched, bounded-concurrency aggregation of offers into per-location
// features. The four output files are written by the caller from the
// returned Result.
package pipeline

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/domain/repository"
	"github.com/geomatic-pipeline/pipeline/internal/ingest/offerstream"
	"github.com/geomatic-pipeline/pipeline/internal/resolve"
)

const (
	batchSize             = 100
	finalizationConcurrency = 20
	nearbyRadiusM           = 2000
	nearbyCap               = 10
)

// Result is the complete in-memory state P2 hands off to P3/output
// serialization.
type Result struct {
	Companies  map[string]*domain.CompanyLocation
	Offers     map[string][]domain.Offer
	StopsRef   map[string]domain.StopRef
	StopLinks  map[string]*domain.StopLink
}

func newResult() *Result {
	return &Result{
		Companies: make(map[string]*domain.CompanyLocation),
		Offers:    make(map[string][]domain.Offer),
		StopsRef:  make(map[string]domain.StopRef),
		StopLinks: make(map[string]*domain.StopLink),
	}
}

// Orchestrator drives P2: it buffers RawOffers into batches, resolves
// their identity, and finalizes each into the shared result maps.
type Orchestrator struct {
	resolver *resolve.Resolver
	spatial  repository.SpatialStopIndex
	logger   *zap.Logger

	result *Result

	companiesMu sync.Mutex
	offersMu    sync.Mutex
	stopsRefMu  sync.Mutex
	stopLinksMu sync.Mutex
}

// New returns an Orchestrator backed by the given identity resolver and
// spatial stop index.
func New(resolver *resolve.Resolver, spatial repository.SpatialStopIndex, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		spatial:  spatial,
		logger:   logger,
		result:   newResult(),
	}
}

// Run streams every offer from r, batching and finalizing them, and
// returns the accumulated in-memory state. On a fatal read error it
// still returns whatever state has already been finalized, so callers
// can flush partial output per spec §7's propagation policy instead of
// losing an otherwise-successful run's work.
func (o *Orchestrator) Run(ctx context.Context, r offerReader) (*Result, error) {
	var batch []*domain.RawOffer

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := o.processBatch(ctx, batch); err != nil {
			return err
		}
		batch = nil
		return nil
	}

	err := r(func(offer *domain.RawOffer) error {
		if !offer.HasLocation() {
			return nil
		}
		batch = append(batch, offer)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		o.logger.Error("offer stream read failed, flushing partial result", zap.Error(err))
		_ = flush()
		return o.result, err
	}
	if err := flush(); err != nil {
		return o.result, err
	}

	return o.result, nil
}

// offerReader abstracts offerstream.Read so tests can feed synthetic
// offers without a real JSON stream.
type offerReader func(offerstream.Consumer) error

func (o *Orchestrator) processBatch(ctx context.Context, batch []*domain.RawOffer) error {
	if err := o.resolver.EnrichBatch(ctx, batch); err != nil {
		o.logger.Error("batch enrichment failed", zap.Error(err))
		return nil
	}

	p := pool.New().WithMaxGoroutines(finalizationConcurrency)
	for _, offer := range batch {
		offer := offer
		p.Go(func() { o.finalize(offer) })
	}
	p.Wait()
	return nil
}

func (o *Orchestrator) finalize(offer *domain.RawOffer) {
	if offer.Lat == nil || offer.Lon == nil {
		return
	}
	storageID := domain.StorageID(offer.SIRET, offer.CompanyName, *offer.Lat, *offer.Lon)
	isVirtual := offer.SIRET == ""

	o.companiesMu.Lock()
	loc, exists := o.result.Companies[storageID]
	if !exists {
		loc = &domain.CompanyLocation{
			StorageID:      storageID,
			SIRET:          offer.SIRET,
			Company:        offer.CompanyName,
			Lat:            domain.Round4(*offer.Lat),
			Lon:            domain.Round4(*offer.Lon),
			Sector:         offer.Sector,
			Size:           offer.Size,
			IsVirtual:      isVirtual,
			IsPublic:       offer.IsPublic,
			TransportModes: []string{},
		}
		o.result.Companies[storageID] = loc
	}
	loc.OffersCount++
	o.companiesMu.Unlock()

	if !exists {
		o.registerStopLink(storageID, loc.Lat, loc.Lon)
	}

	o.offersMu.Lock()
	o.result.Offers[storageID] = append(o.result.Offers[storageID], offer.ToOffer())
	o.offersMu.Unlock()
}

func (o *Orchestrator) registerStopLink(storageID string, lat, lon float64) {
	nearby := o.spatial.FindNearby(lat, lon, nearbyRadiusM)
	if len(nearby) > nearbyCap {
		nearby = nearby[:nearbyCap]
	}

	o.stopsRefMu.Lock()
	for _, n := range nearby {
		if _, seen := o.result.StopsRef[n.ID]; seen {
			continue
		}
		if stop, ok := o.spatial.StopByID(n.ID); ok {
			o.result.StopsRef[n.ID] = domain.StopRef{
				Name:               stop.Name,
				Lat:                stop.Lat,
				Lon:                stop.Lon,
				DatasetSourceName:  stop.DatasetCustomTitle,
				DatasetID:          stop.DatasetID,
				ResourceID:         stop.ResourceID,
				DatasetDatagouvID:  stop.DatasetDatagouvID,
				ResourceDatagouvID: stop.ResourceDatagouvID,
			}
		}
	}
	o.stopsRefMu.Unlock()

	o.stopLinksMu.Lock()
	o.result.StopLinks[storageID] = &domain.StopLink{Radius: nearbyRadiusM, Stations: nearby}
	o.stopLinksMu.Unlock()

	o.companiesMu.Lock()
	if loc, ok := o.result.Companies[storageID]; ok {
		loc.StationsCount = len(nearby)
	}
	o.companiesMu.Unlock()
}
