package duckdb

import (
	"context"
	"fmt"
	"sync/atomic"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/config"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
)

// Store is the embedded analytical store (C1): a pool of independent
// DuckDB handles over the same on-disk file, dispatched round-robin,
// with the spatial extension loaded on every handle.
type Store struct {
	handles []*sqlx.DB
	next    uint64
	logger  *zap.Logger
}

// New opens cfg.Store.PoolSize independent connections to the DuckDB
// file at cfg.Store.Path, applies the memory cap and insertion-order
// pragmas, and loads the spatial extension on each handle. A spatial
// extension load failure is fatal, mirroring the teacher's
// postgres.New ping-on-connect check.
func New(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	poolSize := cfg.Store.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	s := &Store{logger: logger}
	for i := 0; i < poolSize; i++ {
		db, err := sqlx.Connect("duckdb", cfg.Store.Path)
		if err != nil {
			s.closeOpened()
			return nil, pipelineerrors.NewStoreInitError(fmt.Sprintf("connect handle %d: %v", i, err))
		}

		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", cfg.Store.MemoryLimit),
			fmt.Sprintf("SET preserve_insertion_order=%t", cfg.Store.PreserveInsertionOrder),
			"INSTALL spatial",
			"LOAD spatial",
		}
		for _, p := range pragmas {
			if _, err := db.Exec(p); err != nil {
				s.closeOpened()
				return nil, pipelineerrors.NewStoreInitError(fmt.Sprintf("handle %d pragma %q: %v", i, p, err))
			}
		}
		s.handles = append(s.handles, db)
	}

	logger.Info("duckdb store ready",
		zap.String("path", cfg.Store.Path),
		zap.Int("pool_size", poolSize),
		zap.String("memory_limit", cfg.Store.MemoryLimit),
	)
	return s, nil
}

func (s *Store) closeOpened() {
	for _, h := range s.handles {
		_ = h.Close()
	}
}

// Handle returns the next handle in round-robin order.
func (s *Store) Handle() *sqlx.DB {
	n := atomic.AddUint64(&s.next, 1)
	return s.handles[int(n-1)%len(s.handles)]
}

func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.Handle().ExecContext(ctx, query, args...)
	return err
}

func (s *Store) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.Handle().SelectContext(ctx, dest, query, args...)
}

func (s *Store) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.Handle().GetContext(ctx, dest, query, args...)
}

// TableExists backs the idempotent-ingestion check the registry and
// stops loaders perform on startup.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.Get(ctx, &count,
		`SELECT count(*) FROM information_schema.tables WHERE table_name = ?`, name)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Close() error {
	s.logger.Info("closing duckdb store")
	var firstErr error
	for _, h := range s.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
