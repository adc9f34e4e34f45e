package duckdb

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain/repository"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
)

// LoadStops ingests the transport-stops CSV into `transport_stops` on
// first run, with DuckDB's automatic schema inference and
// normalized_names header handling, then ensures the composite
// (stop_lat, stop_lon) index exists.
func LoadStops(ctx context.Context, store repository.Store, sourcePath string, logger *zap.Logger) error {
	exists, err := store.TableExists(ctx, "transport_stops")
	if err != nil {
		return pipelineerrors.NewStoreInitError(fmt.Sprintf("checking transport_stops table: %v", err))
	}

	if exists {
		logger.Info("transport_stops table already present, skipping ingestion")
	} else {
		stmt := fmt.Sprintf(
			`CREATE TABLE transport_stops AS SELECT * FROM read_csv('%s', auto_detect=true, normalize_names=true)`,
			sourcePath,
		)
		if err := store.Exec(ctx, stmt); err != nil {
			return pipelineerrors.NewStoreInitError(fmt.Sprintf("ingesting stops from %s: %v", sourcePath, err))
		}
		logger.Info("transport_stops table ingested", zap.String("source", sourcePath))
	}

	stmt := `CREATE INDEX IF NOT EXISTS idx_transport_stops_latlon ON transport_stops (stop_lat, stop_lon)`
	if err := store.Exec(ctx, stmt); err != nil {
		return pipelineerrors.NewStoreInitError(fmt.Sprintf("creating stops geo index: %v", err))
	}

	return nil
}
