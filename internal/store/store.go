// Package store defines the datastore abstraction for vehicle-valuator.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// ErrNotFound is returned when a requested valuation does not exist.
var ErrNotFound = errors.New("valuation not found")

// ValuationQuery defines optional filters for valuation queries.
type ValuationQuery struct {
	VIN           *string
	Make          *string
	Model         *string
	Year          *int
	Method        *string
	MinConfidence *float64
	UserID        *string
	Since         *time.Time
	Limit         int // default 50
	Offset        int
	OrderBy       string // "created_at", "estimated_value", "confidence"
}

// ValuationStats summarizes the stored valuation corpus.
type ValuationStats struct {
	Total         int     `json:"total"`
	AvgValue      float64 `json:"avg_value"`
	AvgConfidence float64 `json:"avg_confidence"`
	DistinctVINs  int     `json:"distinct_vins"`
}

// Store defines all data access operations for vehicle-valuator.
type Store interface {
	// Valuations
	SaveValuation(ctx context.Context, req *domain.ValuationRequest, result *domain.ValuationResult, userID string) error
	GetValuation(ctx context.Context, id string) (*domain.ValuationResult, error)
	ListValuations(ctx context.Context, opts *ValuationQuery) ([]domain.ValuationResult, int, error)
	VINHistory(ctx context.Context, vin string, limit int) ([]domain.ValuationResult, error)
	GetValuationStats(ctx context.Context) (*ValuationStats, error)
	DeleteValuationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
