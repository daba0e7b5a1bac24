// Package marketdata aggregates comparable-listing data from multiple
// vendor sources into a single MarketSnapshot. Sources are queried
// concurrently; any subset of failures is tolerated as long as at least one
// source responds.
package marketdata

import (
	"context"
	"errors"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// ErrNoSources is returned when every configured source failed for a query.
var ErrNoSources = errors.New("no market data sources available")

// Query identifies the vehicle and locale to search comparables for.
// Mileage is not sent to vendors; it only informs relevance ranking.
type Query struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Mileage      int    `json:"-"`
	ZipCode      string `json:"zip_code"`
	SearchRadius int    `json:"search_radius"` // miles, 0 means source default
}

// Source is one vendor of comparable-listing data. Fetch returns the
// source's own partial snapshot; the aggregator merges them. Implementations
// must be safe for concurrent use.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*domain.MarketSnapshot, error)
}
