// Command pipeline runs the four-phase batch pipeline end to end:
// store bootstrap, offer enrichment, GTFS scoring, and graph build.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geomatic-pipeline/pipeline/internal/accessibility"
	"github.com/geomatic-pipeline/pipeline/internal/config"
	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/graphbuild"
	"github.com/geomatic-pipeline/pipeline/internal/gtfs"
	"github.com/geomatic-pipeline/pipeline/internal/ingest/offerstream"
	"github.com/geomatic-pipeline/pipeline/internal/output"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
	"github.com/geomatic-pipeline/pipeline/internal/pkg/logger"
	"github.com/geomatic-pipeline/pipeline/internal/pipeline"
	"github.com/geomatic-pipeline/pipeline/internal/repository/duckdb"
	"github.com/geomatic-pipeline/pipeline/internal/resolve"
	"github.com/geomatic-pipeline/pipeline/internal/spatial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLog, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer baseLog.Sync()
	log := baseLog.With(zap.String("run_id", uuid.NewString()))

	ctx := context.Background()

	store, err := duckdb.New(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// P1: bulk-load and index the company and stops tables.
	if err := duckdb.LoadRegistry(ctx, store, cfg.Sources.Sirene, log); err != nil {
		return err
	}
	if err := duckdb.LoadStops(ctx, store, cfg.Sources.StopCSV, log); err != nil {
		return err
	}
	stopIndex, err := spatial.Build(ctx, store, log)
	if err != nil {
		return err
	}
	log.Info("phase complete", zap.String("phase", "P1"))

	// P2: streaming enrichment pipeline.
	result, err := runP2(ctx, cfg, store, stopIndex, log)
	if err != nil {
		return err
	}
	log.Info("phase complete",
		zap.String("phase", "P2"),
		zap.Int("locations", len(result.Companies)),
		zap.Int("stops_referenced", len(result.StopsRef)),
	)

	// P3: GTFS ingestion and accessibility scoring.
	datasets, err := runP3(ctx, cfg, result, log)
	if err != nil {
		return err
	}
	log.Info("phase complete", zap.String("phase", "P3"), zap.Int("datasets", len(datasets)))

	// P4: multimodal graph construction.
	var graphDatasets []graphbuild.Dataset
	for id, parsed := range datasets {
		graphDatasets = append(graphDatasets, graphbuild.Dataset{ID: id, Parsed: parsed})
	}
	graph := graphbuild.Build(graphDatasets, log)
	if err := writeGraph(cfg.Outputs.Graph, graph); err != nil {
		return pipelineerrors.NewSerializationError(err.Error())
	}
	log.Info("phase complete", zap.String("phase", "P4"), zap.Int("nodes", len(graph.Nodes)))

	return nil
}

func runP2(ctx context.Context, cfg *config.Config, store *duckdb.Store, stopIndex *spatial.StopIndex, log *zap.Logger) (*pipeline.Result, error) {
	resolver := resolve.New(store)
	orch := pipeline.New(resolver, stopIndex, log)

	f, err := os.Open(cfg.Sources.OffersJSON)
	if err != nil {
		return nil, pipelineerrors.NewParseError(fmt.Sprintf("opening offers file: %v", err))
	}
	defer f.Close()

	result, runErr := orch.Run(ctx, func(consume offerstream.Consumer) error {
		return offerstream.Read(f, consume)
	})
	// result is non-nil even on a fatal runErr (see Orchestrator.Run), so
	// whatever was finalized before the failure still reaches disk.
	if result != nil {
		if writeErr := writeP2Outputs(cfg, result); writeErr != nil {
			if runErr != nil {
				return nil, runErr
			}
			return nil, writeErr
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

func runP3(ctx context.Context, cfg *config.Config, result *pipeline.Result, log *zap.Logger) (map[string]*gtfs.Dataset, error) {
	gtfsDatasets := pipeline.AggregateDatasets(result.StopsRef)

	fetcher := gtfs.New(cfg.GTFS.CacheDir, gtfs.NewStdinPrompt(os.Stdin, os.Stdout), log)

	parsed := make(map[string]*gtfs.Dataset, len(gtfsDatasets))
	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(cfg.GTFS.DatasetConcurrency)
	for _, ds := range gtfsDatasets {
		ds := ds
		group.Go(func() error {
			dir, err := fetcher.Download(ctx, ds.DatasetID, []string{ds.URL(), ds.FallbackURL()})
			if err != nil || dir == "" {
				log.Error("gtfs dataset unavailable", zap.String("dataset", ds.DatasetID), zap.Error(err))
				return nil
			}
			feed, err := gtfs.Parse(dir)
			if err != nil {
				log.Error("gtfs dataset parse failed", zap.String("dataset", ds.DatasetID), zap.Error(err))
				return nil
			}
			mu.Lock()
			parsed[ds.DatasetID] = feed
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	cache := accessibility.Cache(parsed)
	accessibility.Score(result.Companies, result.StopLinks, result.StopsRef, cache)

	if err := writeCompaniesAndLinks(cfg, result); err != nil {
		return nil, err
	}
	return parsed, nil
}

func writeP2Outputs(cfg *config.Config, result *pipeline.Result) error {
	writers := []func() error{
		func() error { return output.WriteCompanies(cfg.Outputs.Geojson, result.Companies) },
		func() error { return output.WriteJSON(cfg.Outputs.OffersBySiret, result.Offers) },
		func() error { return output.WriteJSON(cfg.Outputs.StopsRef, result.StopsRef) },
		func() error { return output.WriteJSON(cfg.Outputs.StopsBySiret, result.StopLinks) },
	}
	for _, w := range writers {
		if err := w(); err != nil {
			return pipelineerrors.NewSerializationError(err.Error())
		}
	}
	return nil
}

func writeCompaniesAndLinks(cfg *config.Config, result *pipeline.Result) error {
	if err := output.WriteCompanies(cfg.Outputs.Geojson, result.Companies); err != nil {
		return pipelineerrors.NewSerializationError(err.Error())
	}
	if err := output.WriteJSON(cfg.Outputs.StopsBySiret, result.StopLinks); err != nil {
		return pipelineerrors.NewSerializationError(err.Error())
	}
	return nil
}

func writeGraph(path string, graph *domain.Graph) error {
	return output.WriteJSON(path, graph)
}
