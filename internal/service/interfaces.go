// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// RecordFilter defines filtering options for classification history queries.
type RecordFilter struct {
	Since  *time.Time
	Limit  int
	Offset int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Schedule operations
	SaveNodes(ctx context.Context, nodes []model.HtsNode, revision string) error
	GetAllNodes(ctx context.Context) ([]model.HtsNode, error)
	GetNode(ctx context.Context, code string) (*model.HtsNode, error)
	GetScheduleRevision(ctx context.Context) (string, error)

	// Tariff layer operations
	SaveLayers(ctx context.Context, layers []model.TariffLayer) error
	GetAllLayers(ctx context.Context) ([]model.TariffLayer, error)
	GetLayersByProgram(ctx context.Context, programID string) ([]model.TariffLayer, error)

	// Classification history
	SaveClassificationRecord(ctx context.Context, record *model.ClassificationRecord) error
	GetClassificationRecords(ctx context.Context, filter RecordFilter) ([]model.ClassificationRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// LiveRateFetcher fetches the current rate for a fast-moving duty program.
// Implementations talk to an external publisher and must honor ctx cancellation.
type LiveRateFetcher interface {
	FetchLiveRate(ctx context.Context, programID, code string) (float64, error)
}

// CacheStatus describes the observable state of a rate cache.
type CacheStatus struct {
	Entries     int
	Hits        int64
	Misses      int64
	StaleServes int64
	TTL         time.Duration
}

// RateCache is an explicit, inspectable cache for live program rates.
// Implementations must be safe for concurrent use.
type RateCache interface {
	Get(key string) (rate float64, fresh bool, known bool)
	Put(key string, rate float64)
	Status() CacheStatus
	Clear()
}

// Oracle is the external inference collaborator that proposes candidate codes
// for a free-text product description. A nil or no-op Oracle degrades the
// ranker to keyword-only scoring.
type Oracle interface {
	Infer(ctx context.Context, description string, hints model.ClassificationHints) ([]model.OracleCandidate, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
