package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/chrishsmith/sourcify-sub007/internal/classify"
	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/config"
	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
	"github.com/chrishsmith/sourcify-sub007/internal/oracle"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
	"github.com/chrishsmith/sourcify-sub007/internal/storage"
	"github.com/chrishsmith/sourcify-sub007/internal/tariff"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(db service.Storage) {
	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// loadStore builds the in-memory schedule index from the imported snapshot.
func loadStore(ctx context.Context, db service.Storage) (*hierarchy.Store, error) {
	nodes, err := db.GetAllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule snapshot: %w", err)
	}
	if len(nodes) == 0 {
		return nil, common.NewUserError(
			"No tariff schedule loaded. Run 'sourcify import schedule <file.csv>' first.",
			common.ErrDatasetNotLoaded)
	}
	return hierarchy.NewStore(nodes)
}

// loadRegistry builds the layer registry from the stored catalog, falling
// back to the embedded default catalog when none has been imported.
func loadRegistry(ctx context.Context, db service.Storage) (*tariff.Registry, error) {
	layers, err := db.GetAllLayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load layer catalog: %w", err)
	}
	if len(layers) == 0 {
		var catalogVersion string
		layers, catalogVersion, err = tariff.LoadCatalogFile("")
		if err != nil {
			return nil, err
		}
		slog.Debug("Using embedded layer catalog", "version", catalogVersion)
	}

	fetcher := liveRateFetcher()
	var cache service.RateCache
	if fetcher != nil {
		cache = tariff.NewRateCache(viper.GetDuration("rates.cache_ttl"))
	}
	return tariff.NewRegistry(layers, fetcher, cache)
}

// liveRateFetcher returns the configured live-rate source, or nil when live
// programs should fall back to their static catalog rates.
func liveRateFetcher() service.LiveRateFetcher {
	baseURL := viper.GetString("rates.live_url")
	if baseURL == "" {
		return nil
	}
	return tariff.NewHTTPFetcher(baseURL, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	})
}

// newResolver wires the full rate-stacking pipeline.
func newResolver(ctx context.Context, db service.Storage) (*tariff.Resolver, *hierarchy.Store, error) {
	store, err := loadStore(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	registry, err := loadRegistry(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	return tariff.NewResolver(store, registry), store, nil
}

// newRanker wires the classification ranker, including the oracle when one
// is configured.
func newRanker(ctx context.Context, db service.Storage) (*classify.Ranker, *oracle.Inferer, error) {
	resolver, store, err := newResolver(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	inferer, err := oracle.NewInferer(config.OracleFromViper(), slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}

	cfg := classify.DefaultConfig()
	if timeout := viper.GetDuration("classification.oracle_timeout"); timeout > 0 {
		cfg.OracleTimeout = timeout
	}
	if threshold := viper.GetFloat64("classification.threshold"); threshold > 0 {
		cfg.ClarificationThreshold = threshold
	}

	var svc service.Oracle
	if inferer != nil {
		svc = inferer
	}
	return classify.New(store, resolver, svc, cfg), inferer, nil
}

func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as-of date %q, want YYYY-MM-DD", common.ErrInvalidInput, raw)
	}
	return asOf, nil
}
