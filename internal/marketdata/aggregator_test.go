package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

type fakeSource struct {
	name     string
	snapshot *domain.MarketSnapshot
	err      error
	delay    time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, _ Query) (*domain.MarketSnapshot, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func testQuery() Query {
	return Query{Make: "Honda", Model: "Accord", Year: 2021, ZipCode: "94105"}
}

func TestAggregator_MergesAllSources(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{
			name: "alpha",
			snapshot: &domain.MarketSnapshot{
				LocalListings:       []domain.MarketListing{{ID: "a1", Price: 24000}},
				NationalAverage:     25000,
				AveragePrice:        24000,
				TotalListings:       1,
				DemandIndex:         80,
				AverageTimeOnMarket: 20,
				Quality:             0.9,
				Availability:        0.8,
				SourcesUsed:         []string{"alpha"},
			},
		},
		&fakeSource{
			name: "beta",
			snapshot: &domain.MarketSnapshot{
				LocalListings:       []domain.MarketListing{{ID: "b1", Price: 26000}},
				NationalAverage:     25200,
				AveragePrice:        26000,
				TotalListings:       1,
				DemandIndex:         70,
				AverageTimeOnMarket: 30,
				Quality:             0.7,
				Availability:        0.6,
				SeasonalTrends:      []domain.SeasonalTrend{{Month: 1, Multiplier: 0.95}},
				SourcesUsed:         []string{"beta"},
			},
		},
	})

	snapshot, err := a.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Len(t, snapshot.LocalListings, 2)
	assert.Equal(t, 2, snapshot.TotalListings)
	assert.InDelta(t, 25000, snapshot.AveragePrice, 0.001)
	assert.InDelta(t, 75, snapshot.DemandIndex, 0.001)
	assert.InDelta(t, 25, snapshot.AverageTimeOnMarket, 0.001)

	// quality is pessimistic, availability optimistic
	assert.InDelta(t, 0.7, snapshot.Quality, 0.001)
	assert.InDelta(t, 0.8, snapshot.Availability, 0.001)

	assert.ElementsMatch(t, []string{"alpha", "beta"}, snapshot.SourcesUsed)
	assert.Len(t, snapshot.SeasonalTrends, 1)
}

func TestAggregator_ToleratesPartialFailure(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{name: "broken", err: errors.New("connection refused")},
		&fakeSource{
			name: "healthy",
			snapshot: &domain.MarketSnapshot{
				LocalListings: []domain.MarketListing{{ID: "h1", Price: 20000}},
				AveragePrice:  20000,
				TotalListings: 1,
				Quality:       0.85,
				Availability:  0.75,
				SourcesUsed:   []string{"healthy"},
			},
		},
	})

	snapshot, err := a.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"healthy"}, snapshot.SourcesUsed)
	assert.InDelta(t, 0.85, snapshot.Quality, 0.001)
}

func TestAggregator_AllSourcesFail(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{name: "one", err: errors.New("down")},
		&fakeSource{name: "two", err: errors.New("also down")},
	})

	_, err := a.Fetch(context.Background(), testQuery())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestAggregator_NoSourcesConfigured(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil)
	_, err := a.Fetch(context.Background(), testQuery())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestAggregator_SlowSourceTimesOut(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{
			name:  "slow",
			delay: time.Second,
			snapshot: &domain.MarketSnapshot{
				SourcesUsed: []string{"slow"},
			},
		},
		&fakeSource{
			name: "fast",
			snapshot: &domain.MarketSnapshot{
				LocalListings: []domain.MarketListing{{ID: "f1", Price: 21000}},
				AveragePrice:  21000,
				Quality:       0.8,
				Availability:  0.7,
				SourcesUsed:   []string{"fast"},
			},
		},
	}, WithSourceTimeout(50*time.Millisecond))

	start := time.Now()
	snapshot, err := a.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"fast"}, snapshot.SourcesUsed)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAggregator_VarianceRecomputedAcrossSources(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{
			name: "alpha",
			snapshot: &domain.MarketSnapshot{
				LocalListings: []domain.MarketListing{{ID: "a1", Price: 20000}, {ID: "a2", Price: 20000}},
				AveragePrice:  20000,
				SourcesUsed:   []string{"alpha"},
			},
		},
		&fakeSource{
			name: "beta",
			snapshot: &domain.MarketSnapshot{
				LocalListings: []domain.MarketListing{{ID: "b1", Price: 30000}, {ID: "b2", Price: 30000}},
				AveragePrice:  30000,
				SourcesUsed:   []string{"beta"},
			},
		},
	})

	snapshot, err := a.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	// prices {20000, 20000, 30000, 30000}: stddev 5000, mean 25000
	assert.InDelta(t, 0.2, snapshot.PriceVariance, 0.001)
}

func TestAggregator_RanksListingsMostComparableFirst(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	a := NewAggregator([]Source{
		&fakeSource{
			name: "alpha",
			snapshot: &domain.MarketSnapshot{
				LocalListings: []domain.MarketListing{
					{ID: "far", Price: 18000, Year: 2015, Mileage: 160000},
					{
						ID: "near", Price: 25000, Year: 2021, Mileage: 41000,
						Trim: "EX-L", Condition: "good", URL: "https://example.com/near",
						Dealer: true, Certified: true,
						ListedDate: now.AddDate(0, 0, -3),
					},
				},
				AveragePrice:  21500,
				TotalListings: 2,
				Quality:       0.8,
				Availability:  0.7,
				SourcesUsed:   []string{"alpha"},
			},
		},
	}, WithAggregatorClock(func() time.Time { return now }))

	snapshot, err := a.Fetch(context.Background(), Query{
		Make: "Honda", Model: "Accord", Year: 2021, ZipCode: "94105", Mileage: 40000,
	})
	require.NoError(t, err)

	require.Len(t, snapshot.LocalListings, 2)
	assert.Equal(t, "near", snapshot.LocalListings[0].ID)
	assert.Equal(t, "far", snapshot.LocalListings[1].ID)
}

func TestAggregator_SourceNames(t *testing.T) {
	t.Parallel()

	a := NewAggregator([]Source{
		&fakeSource{name: "alpha"},
		&fakeSource{name: "beta"},
	})
	assert.Equal(t, []string{"alpha", "beta"}, a.SourceNames())
}
