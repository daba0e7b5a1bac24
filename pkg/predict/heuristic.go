package predict

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const (
	heuristicVersion  = "1.0.0"
	fallbackBasePrice = 20000
	minimumBaseValue  = 1000
)

// HeuristicPredictor estimates value from market average, age depreciation,
// mileage delta and condition. It never fails and is the fallback for every
// other predictor.
type HeuristicPredictor struct {
	log *slog.Logger
	now func() time.Time
}

// HeuristicOption configures a HeuristicPredictor.
type HeuristicOption func(*HeuristicPredictor)

// WithHeuristicLogger sets the logger.
func WithHeuristicLogger(l *slog.Logger) HeuristicOption {
	return func(p *HeuristicPredictor) { p.log = l }
}

// WithHeuristicClock overrides the clock, for tests.
func WithHeuristicClock(now func() time.Time) HeuristicOption {
	return func(p *HeuristicPredictor) { p.now = now }
}

// NewHeuristicPredictor creates a HeuristicPredictor.
func NewHeuristicPredictor(opts ...HeuristicOption) *HeuristicPredictor {
	p := &HeuristicPredictor{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict derives a base value: start from the market average (or a fixed
// fallback when no market data exists), depreciate 10% per year for the
// first five years and 5% per year after, charge $0.10 per mile over the
// 12k/year expectation, then scale by the condition score. The result is
// floored at $1,000.
func (p *HeuristicPredictor) Predict(_ context.Context, req *domain.ValuationRequest, market *domain.MarketSnapshot) (*Prediction, error) {
	features := p.extractFeatures(req, market)

	age := featureValue(features, "vehicle_age")
	mileage := featureValue(features, "mileage")
	conditionScore := featureValue(features, "condition_score")

	value := featureValue(features, "market_average")
	if value == 0 {
		value = fallbackBasePrice
	}

	if age <= 5 {
		value *= math.Pow(0.9, age)
	} else {
		value *= math.Pow(0.9, 5) * math.Pow(0.95, age-5)
	}

	expectedMileage := age * 12000
	value += (mileage - expectedMileage) * -0.1

	value *= conditionScore / 100

	value = math.Max(value, minimumBaseValue)

	prediction := &Prediction{
		Value:        value,
		Confidence:   p.confidence(features, market),
		Features:     features,
		ModelVersion: heuristicVersion,
	}

	p.log.Debug("heuristic prediction",
		slog.Float64("value", prediction.Value),
		slog.Float64("confidence", prediction.Confidence))

	return prediction, nil
}

// Info returns the model description.
func (p *HeuristicPredictor) Info() ModelInfo {
	return ModelInfo{
		Name:         "Default Heuristic Model",
		Version:      heuristicVersion,
		Accuracy:     0.75,
		TrainingDate: "2024-01-01",
		Features:     []string{"year", "make", "model", "mileage", "condition", "market_data"},
	}
}

// Ready always reports true.
func (p *HeuristicPredictor) Ready() bool { return true }

func (p *HeuristicPredictor) extractFeatures(req *domain.ValuationRequest, market *domain.MarketSnapshot) []Feature {
	age := float64(p.now().Year() - req.Year)
	perYear := float64(req.Mileage) / math.Max(age, 1)

	return []Feature{
		{Name: "vehicle_age", Value: age, Importance: 0.25},
		{Name: "mileage", Value: float64(req.Mileage), Importance: 0.20},
		{Name: "avg_mileage_per_year", Value: perYear, Importance: 0.15},
		{Name: "condition_score", Value: domain.ConditionScore(req.Condition), Importance: 0.15},
		{Name: "market_availability", Value: float64(market.TotalListings), Importance: 0.10},
		{Name: "market_average", Value: market.AveragePrice, Importance: 0.10},
		{Name: "demand_index", Value: market.DemandIndex, Importance: 0.05},
	}
}

func (p *HeuristicPredictor) confidence(features []Feature, market *domain.MarketSnapshot) float64 {
	confidence := 0.7

	if market.TotalListings > 10 {
		confidence += 0.1
	}
	if market.Quality > 0.8 {
		confidence += 0.1
	}

	confidence *= float64(len(features)) / 7

	return math.Min(math.Max(confidence, 0.1), 0.95)
}

func featureValue(features []Feature, name string) float64 {
	for _, f := range features {
		if f.Name == name {
			return f.Value
		}
	}
	return 0
}
