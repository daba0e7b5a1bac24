package analyze

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

func snapshotWithListings(prices []float64, listedAt time.Time) *domain.MarketSnapshot {
	listings := make([]domain.MarketListing, len(prices))
	for i, p := range prices {
		listings[i] = domain.MarketListing{
			ID:         fmt.Sprintf("l-%d", i),
			Price:      p,
			Source:     "test",
			ListedDate: listedAt,
		}
	}
	return &domain.MarketSnapshot{
		LocalListings:   listings,
		NationalAverage: 20000,
		DemandIndex:     50,
	}
}

func TestMarketAnalyzer_EmptySnapshot(t *testing.T) {
	t.Parallel()

	a := NewMarketAnalyzer(WithMarketClock(fixedClock))
	result := a.Analyze(&domain.MarketSnapshot{DemandIndex: 50})

	assert.GreaterOrEqual(t, result.AdjustmentFactor, 0.85)
	assert.LessOrEqual(t, result.AdjustmentFactor, 1.20)
	assert.Equal(t, domain.PositionAtMarket, result.CompetitivePosition)
	// fewer than 3 listings costs confidence
	assert.InDelta(t, 0.5, result.Confidence, 0.001)
}

func TestMarketAnalyzer_DemandBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index      float64
		wantFactor float64
	}{
		{90, 1.08},
		{85, 1.08},
		{75, 1.05},
		{70, 1.05},
		{60, 1.0},
		{50, 1.0},
		{40, 0.97},
		{30, 0.97},
		{10, 0.93},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("index_%.0f", tt.index), func(t *testing.T) {
			t.Parallel()

			d := analyzeDemand(tt.index)
			assert.InDelta(t, tt.wantFactor, d.factor, 0.001)
		})
	}
}

func TestMarketAnalyzer_CompetitivePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		localPrice float64
		national   float64
		want       domain.CompetitivePosition
	}{
		{"at market within 5 percent", 20500, 20000, domain.PositionAtMarket},
		{"below market", 17000, 20000, domain.PositionBelowMarket},
		{"above market", 24000, 20000, domain.PositionAboveMarket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := analyzeCompetitive([]domain.MarketListing{
				{ID: "l-1", Price: tt.localPrice},
			}, tt.national)
			assert.Equal(t, tt.want, c.position)
		})
	}
}

func TestMarketAnalyzer_SeasonalTrendForCurrentMonth(t *testing.T) {
	t.Parallel()

	a := NewMarketAnalyzer(WithMarketClock(fixedClock)) // June

	trends := []domain.SeasonalTrend{
		{Month: 6, Multiplier: 1.07, Confidence: 0.8},
		{Month: 7, Multiplier: 1.07, Confidence: 0.8},
	}
	s := a.analyzeSeasonality(trends)

	assert.Equal(t, "peak", s.trend)
	assert.InDelta(t, 1.07, s.factor, 0.001)

	// A sharp drop next month flips the trend to falling.
	trends[1].Multiplier = 1.0
	s = a.analyzeSeasonality(trends)
	assert.Equal(t, "falling", s.trend)
}

func TestMarketAnalyzer_ConfidenceGrowsWithListings(t *testing.T) {
	t.Parallel()

	a := NewMarketAnalyzer(WithMarketClock(fixedClock))
	recent := testNow.AddDate(0, 0, -5)

	thin := a.Analyze(snapshotWithListings([]float64{20000}, recent))
	deep := a.Analyze(snapshotWithListings([]float64{
		19000, 19500, 20000, 20500, 21000, 19800, 20200, 19900,
		20100, 20300, 19700, 20400, 19600, 20600, 19400, 20800,
	}, recent))

	assert.Greater(t, deep.Confidence, thin.Confidence)
}

func TestMarketAnalyzer_FactorAlwaysInRange(t *testing.T) {
	t.Parallel()

	a := NewMarketAnalyzer(WithMarketClock(fixedClock))
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		n := rng.Intn(30)
		listings := make([]domain.MarketListing, n)
		for j := range listings {
			listings[j] = domain.MarketListing{
				ID:         fmt.Sprintf("l-%d", j),
				Price:      5000 + rng.Float64()*60000,
				Dealer:     rng.Intn(2) == 0,
				ListedDate: testNow.AddDate(0, 0, -rng.Intn(90)),
			}
		}

		snapshot := &domain.MarketSnapshot{
			LocalListings:   listings,
			NationalAverage: 5000 + rng.Float64()*60000,
			DemandIndex:     rng.Float64() * 100,
			SeasonalTrends: []domain.SeasonalTrend{
				{Month: 6, Multiplier: 0.9 + rng.Float64()*0.3},
			},
		}

		result := a.Analyze(snapshot)

		assert.GreaterOrEqual(t, result.AdjustmentFactor, 0.85)
		assert.LessOrEqual(t, result.AdjustmentFactor, 1.20)
		assert.GreaterOrEqual(t, result.Confidence, 0.4)
		assert.LessOrEqual(t, result.Confidence, 0.95)
		assert.NotEmpty(t, result.Insights)
	}
}
