package marketdata

import (
	"context"
	"time"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const staticName = "static"

// StaticSource serves a fixed comparable dataset. It backs development and
// demo deployments where no vendor credentials exist, and stands in as the
// fallback source when the config lists none.
type StaticSource struct {
	now func() time.Time
}

// NewStaticSource creates a StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{now: time.Now}
}

// NewStaticSourceWithClock creates a StaticSource with a fixed clock, for
// tests.
func NewStaticSourceWithClock(now func() time.Time) *StaticSource {
	return &StaticSource{now: now}
}

// Name returns the source identifier used in snapshots and metrics.
func (s *StaticSource) Name() string { return staticName }

// Fetch returns the fixture snapshot, echoing the query's vehicle identity
// into the listings.
func (s *StaticSource) Fetch(_ context.Context, q Query) (*domain.MarketSnapshot, error) {
	now := s.now()

	listings := []domain.MarketListing{
		{
			ID:         "static_1",
			Price:      24500,
			Mileage:    35000,
			Year:       q.Year,
			Make:       q.Make,
			Model:      q.Model,
			Location:   q.ZipCode,
			Source:     staticName,
			ListedDate: now.AddDate(0, 0, -10),
			Dealer:     true,
		},
		{
			ID:         "static_2",
			Price:      23800,
			Mileage:    42000,
			Year:       q.Year,
			Make:       q.Make,
			Model:      q.Model,
			Location:   q.ZipCode,
			Source:     staticName,
			ListedDate: now.AddDate(0, 0, -20),
			Dealer:     false,
		},
	}

	return &domain.MarketSnapshot{
		LocalListings:   listings,
		NationalAverage: 24000,
		HistoricalPrices: []domain.HistoricalPrice{
			{Date: now.AddDate(0, -2, 0), Price: 25000, Mileage: 30000, Source: staticName},
			{Date: now.AddDate(0, -1, 0), Price: 24500, Mileage: 32000, Source: staticName},
		},
		SeasonalTrends:      staticSeasonalTrends(),
		DemandIndex:         75,
		AveragePrice:        24150,
		TotalListings:       2,
		PriceVariance:       0.15,
		AverageTimeOnMarket: 28,
		Quality:             0.7,
		Availability:        0.6,
		SourcesUsed:         []string{staticName},
	}, nil
}

// staticSeasonalTrends is the spring-peak curve observed in national sales
// data: prices strengthen into May, dip over summer, recover briefly in
// October and sag through winter.
func staticSeasonalTrends() []domain.SeasonalTrend {
	multipliers := []float64{0.95, 0.97, 1.02, 1.05, 1.08, 1.03, 1.00, 0.98, 1.02, 1.05, 0.96, 0.93}

	trends := make([]domain.SeasonalTrend, 12)
	for i, m := range multipliers {
		trends[i] = domain.SeasonalTrend{Month: i + 1, Multiplier: m, Confidence: 0.8}
	}
	return trends
}
