package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
	pipelinevalidator "github.com/geomatic-pipeline/pipeline/internal/pkg/validator"
)

// Config is the pipeline's full configuration, assembled from environment
// variables the same way the teacher's internal/config.Config is: a
// viper.AutomaticEnv() read into nested structs, followed by a defaulting
// pass.
type Config struct {
	Store   StoreConfig
	Sources SourcesConfig
	Outputs OutputsConfig
	GTFS    GTFSConfig
	Log     LogConfig
}

// StoreConfig configures the embedded analytical store (C1).
type StoreConfig struct {
	Path                     string
	PoolSize                 int
	MemoryLimit              string
	PreserveInsertionOrder   bool
}

// SourcesConfig names the three raw input datasets. The `validate`
// tags are enforced by pkg/validator before the file-existence checks
// run, so a blank path fails with a ConfigError naming the field rather
// than a confusing os.Stat error.
type SourcesConfig struct {
	Sirene     string `validate:"required"`
	StopCSV    string `validate:"required"`
	OffersJSON string `validate:"required"`
}

// OutputsConfig names the five output artifact paths.
type OutputsConfig struct {
	Geojson     string
	OffersBySiret string
	StopsRef    string
	StopsBySiret string
	Graph       string
}

// GTFSConfig configures the GTFS fetch/parse/graph-build phases.
type GTFSConfig struct {
	CacheDir           string
	DatasetConcurrency int
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, falling back to an
// optional .env file when one is present (purely a local-dev
// convenience; its absence is not an error).
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Path:                   viper.GetString("DB_PATH"),
			PoolSize:               viper.GetInt("DB_POOL_SIZE"),
			MemoryLimit:            viper.GetString("DB_MEMORY_LIMIT"),
			PreserveInsertionOrder: viper.GetBool("DB_PRESERVE_INSERTION_ORDER"),
		},
		Sources: SourcesConfig{
			Sirene:     viper.GetString("PATH_SOURCE_SIRENE"),
			StopCSV:    viper.GetString("PATH_SOURCE_STOP_CSV"),
			OffersJSON: viper.GetString("PATH_SOURCE_OFFERS_JSON"),
		},
		Outputs: OutputsConfig{
			Geojson:       viper.GetString("PATH_OUTPUT_GEOJSON"),
			OffersBySiret: viper.GetString("PATH_OUTPUT_OFFERS_BY_SIRET"),
			StopsRef:      viper.GetString("PATH_OUTPUT_STOPS_REF"),
			StopsBySiret:  viper.GetString("PATH_OUTPUT_STOPS_BY_SIRET"),
			Graph:         viper.GetString("PATH_OUTPUT_GRAPH"),
		},
		GTFS: GTFSConfig{
			CacheDir:           viper.GetString("PATH_CACHE_GTFS"),
			DatasetConcurrency: viper.GetInt("GTFS_DATASET_CONCURRENCY"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.PoolSize == 0 {
		cfg.Store.PoolSize = 4
	}
	if cfg.Store.MemoryLimit == "" {
		cfg.Store.MemoryLimit = "8GB"
	}
	if cfg.GTFS.DatasetConcurrency == 0 {
		cfg.GTFS.DatasetConcurrency = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Outputs.Geojson == "" {
		cfg.Outputs.Geojson = "companies.geojson"
	}
	if cfg.Outputs.OffersBySiret == "" {
		cfg.Outputs.OffersBySiret = "offers_by_siret.json"
	}
	if cfg.Outputs.StopsRef == "" {
		cfg.Outputs.StopsRef = "transport_stops.json"
	}
	if cfg.Outputs.StopsBySiret == "" {
		cfg.Outputs.StopsBySiret = "stops_by_siret.json"
	}
	if cfg.Outputs.Graph == "" {
		cfg.Outputs.Graph = "graph.json"
	}
	if cfg.GTFS.CacheDir == "" {
		cfg.GTFS.CacheDir = "./gtfs_cache"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./store.duckdb"
	}
}

// validate performs the ConfigError checks spec §7 requires before any
// phase runs: the three source paths must be set and exist on disk.
func validate(cfg *Config) error {
	if err := pipelinevalidator.Validate(cfg.Sources); err != nil {
		return pipelineerrors.NewConfigError(fmt.Sprintf("missing required source path: %v", err))
	}

	paths := map[string]string{
		"PATH_SOURCE_SIRENE":      cfg.Sources.Sirene,
		"PATH_SOURCE_STOP_CSV":    cfg.Sources.StopCSV,
		"PATH_SOURCE_OFFERS_JSON": cfg.Sources.OffersJSON,
	}
	for key, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return pipelineerrors.NewConfigError(fmt.Sprintf("%s: %v", key, err))
		}
	}
	if cfg.Store.PoolSize < 1 {
		return pipelineerrors.NewConfigError("DB_POOL_SIZE must be at least 1")
	}
	return nil
}

// MemoryLimitBytes parses a textual cap like "8GB" into bytes, mirroring
// the convention DuckDB itself accepts for PRAGMA memory_limit, so the
// store can log the resolved number instead of the raw string alone.
func MemoryLimitBytes(limit string) (int64, error) {
	limit = strings.TrimSpace(strings.ToUpper(limit))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(limit, "GB"):
		multiplier = 1 << 30
		limit = strings.TrimSuffix(limit, "GB")
	case strings.HasSuffix(limit, "MB"):
		multiplier = 1 << 20
		limit = strings.TrimSuffix(limit, "MB")
	case strings.HasSuffix(limit, "KB"):
		multiplier = 1 << 10
		limit = strings.TrimSuffix(limit, "KB")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(limit), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", limit, err)
	}
	return n * multiplier, nil
}
