// Package confidence scores how trustworthy a valuation is, combining data
// quality, market coverage, vehicle data completeness and predictor
// confidence into one 10-100 score with an itemized breakdown.
package confidence

import (
	"log/slog"
	"math"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Component weights. They sum to 1.
const (
	weightDataQuality = 0.25
	weightMarketData  = 0.30
	weightVehicleData = 0.20
	weightPredictor   = 0.25
)

// Input carries the normalized (0-1) component signals plus the composed
// adjustments, whose categories and confidences feed the completeness and
// accuracy factors.
type Input struct {
	DataQuality            float64 // 0-1, from the market snapshot
	MarketDataAvailability float64 // 0-1, from the market snapshot
	PredictorConfidence    float64 // 0-1, from the base predictor
	Adjustments            []domain.PriceAdjustment
}

// Scorer computes confidence scores and their breakdowns.
type Scorer struct {
	log *slog.Logger
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScorerLogger sets the logger.
func WithScorerLogger(l *slog.Logger) ScorerOption {
	return func(s *Scorer) { s.log = l }
}

// NewScorer creates a Scorer.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the weighted overall confidence, clamped to [10, 100],
// together with its component breakdown, named factors and usage
// recommendations.
func (s *Scorer) Score(in Input) (float64, domain.ConfidenceBreakdown) {
	dataQuality := clamp01(in.DataQuality) * 100
	marketData := clamp01(in.MarketDataAvailability) * 100
	vehicleData := completeness(in.Adjustments)
	predictor := clamp01(in.PredictorConfidence) * 100

	overall := dataQuality*weightDataQuality +
		marketData*weightMarketData +
		vehicleData*weightVehicleData +
		predictor*weightPredictor

	breakdown := domain.ConfidenceBreakdown{
		DataQuality:             dataQuality,
		MarketDataAvailability:  marketData,
		VehicleDataCompleteness: vehicleData,
		PredictorConfidence:     predictor,
		OverallConfidence:       overall,
		Factors:                 buildFactors(dataQuality, marketData, vehicleData, predictor, in.Adjustments),
		Recommendations:         buildRecommendations(dataQuality, marketData, vehicleData, predictor, overall),
	}

	score := math.Max(10, math.Min(100, overall))

	s.log.Debug("confidence scored",
		slog.Float64("score", score),
		slog.Float64("data_quality", dataQuality),
		slog.Float64("market_data", marketData),
		slog.Float64("vehicle_data", vehicleData),
		slog.Float64("predictor", predictor))

	return score, breakdown
}

// completeness starts at a 60-point base for having identity and state
// fields, then credits each distinct adjustment category and each
// high-confidence adjustment.
func completeness(adjustments []domain.PriceAdjustment) float64 {
	score := 60.0

	bonus := map[domain.AdjustmentCategory]float64{
		domain.CategoryCondition: 10,
		domain.CategoryMileage:   10,
		domain.CategoryMarket:    8,
		domain.CategoryFeatures:  6,
		domain.CategoryHistory:   8,
		domain.CategoryLocation:  4,
	}

	seen := make(map[domain.AdjustmentCategory]bool)
	for _, adj := range adjustments {
		if seen[adj.Category] {
			continue
		}
		seen[adj.Category] = true
		if b, ok := bonus[adj.Category]; ok {
			score += b
		} else {
			score += 2
		}
	}

	for _, adj := range adjustments {
		if adj.Confidence > 0.8 {
			score += 2
		}
	}

	return math.Min(100, score)
}

func adjustmentQuality(adjustments []domain.PriceAdjustment) float64 {
	if len(adjustments) == 0 {
		return 50
	}

	var sum float64
	categories := make(map[domain.AdjustmentCategory]bool)
	for _, adj := range adjustments {
		sum += adj.Confidence
		categories[adj.Category] = true
	}
	avg := sum / float64(len(adjustments))

	categoryBonus := math.Min(20, float64(len(categories))*4)
	return math.Min(100, avg*80+categoryBonus)
}

func buildFactors(dataQuality, marketData, vehicleData, predictor float64, adjustments []domain.PriceAdjustment) []domain.ConfidenceFactor {
	quality := adjustmentQuality(adjustments)

	return []domain.ConfidenceFactor{
		{
			Factor:      "Data Quality",
			Score:       dataQuality,
			Impact:      impactLevel(dataQuality),
			Description: describe(dataQuality, dataQualityDescriptions),
		},
		{
			Factor:      "Market Data Availability",
			Score:       marketData,
			Impact:      impactLevel(marketData),
			Description: describe(marketData, marketDataDescriptions),
		},
		{
			Factor:      "Vehicle Information Completeness",
			Score:       vehicleData,
			Impact:      impactLevel(vehicleData),
			Description: describe(vehicleData, vehicleDataDescriptions),
		},
		{
			Factor:      "ML Model Confidence",
			Score:       predictor,
			Impact:      impactLevel(predictor),
			Description: describe(predictor, predictorDescriptions),
		},
		{
			Factor:      "Adjustment Accuracy",
			Score:       quality,
			Impact:      impactLevel(quality),
			Description: describe(quality, adjustmentQualityDescriptions),
		},
	}
}

func buildRecommendations(dataQuality, marketData, vehicleData, predictor, overall float64) []string {
	var recs []string

	switch {
	case overall >= 85:
		recs = append(recs, "High confidence valuation - suitable for all purposes")
	case overall >= 70:
		recs = append(recs, "Good confidence valuation - suitable for most purposes")
	case overall >= 55:
		recs = append(recs, "Moderate confidence - consider additional data sources")
	default:
		recs = append(recs, "Low confidence - additional verification strongly recommended")
	}

	if dataQuality < 70 {
		recs = append(recs, "Improve data quality by verifying vehicle information")
	}
	if marketData < 70 {
		recs = append(recs, "Expand market search radius to find more comparable vehicles")
	}
	if vehicleData < 70 {
		recs = append(recs, "Provide additional vehicle details, photos, and service history")
	}
	if predictor < 70 {
		recs = append(recs, "Consider manual validation of ML model predictions")
	}

	if overall < 60 {
		recs = append(recs,
			"Recommend professional appraisal for important decisions",
			"Use valuation as rough estimate only")
	} else if overall < 80 {
		recs = append(recs, "Consider getting second opinion for major transactions")
	}

	return recs
}

func impactLevel(score float64) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 60:
		return "medium"
	default:
		return "low"
	}
}

type tieredDescription struct {
	min  float64
	text string
}

func describe(score float64, tiers []tieredDescription) string {
	for _, t := range tiers {
		if score >= t.min {
			return t.text
		}
	}
	return tiers[len(tiers)-1].text
}

var dataQualityDescriptions = []tieredDescription{
	{90, "Excellent data quality with verified sources"},
	{80, "High data quality with reliable sources"},
	{70, "Good data quality with mostly reliable sources"},
	{60, "Moderate data quality with some uncertainty"},
	{50, "Fair data quality with limited verification"},
	{0, "Poor data quality requiring additional verification"},
}

var marketDataDescriptions = []tieredDescription{
	{90, "Abundant market data from multiple reliable sources"},
	{80, "Good market data coverage with sufficient comparable vehicles"},
	{70, "Adequate market data with some comparable vehicles"},
	{60, "Limited market data with few comparable vehicles"},
	{50, "Sparse market data requiring broader search criteria"},
	{0, "Insufficient market data for reliable comparison"},
}

var vehicleDataDescriptions = []tieredDescription{
	{90, "Comprehensive vehicle information including photos and history"},
	{80, "Detailed vehicle information with good documentation"},
	{70, "Good vehicle information with adequate details"},
	{60, "Basic vehicle information with some missing details"},
	{50, "Limited vehicle information affecting accuracy"},
	{0, "Insufficient vehicle information for precise valuation"},
}

var predictorDescriptions = []tieredDescription{
	{90, "High ML model confidence with strong feature correlation"},
	{80, "Good ML model confidence with reliable predictions"},
	{70, "Moderate ML model confidence with acceptable accuracy"},
	{60, "Lower ML model confidence due to limited training data"},
	{50, "Reduced ML model confidence requiring manual validation"},
	{0, "Low ML model confidence, relying on traditional valuation methods"},
}

var adjustmentQualityDescriptions = []tieredDescription{
	{90, "High-confidence adjustments with comprehensive factor analysis"},
	{80, "Reliable adjustments with good factor coverage"},
	{70, "Adequate adjustments with standard factor analysis"},
	{60, "Basic adjustments with limited factor analysis"},
	{50, "Minimal adjustments with uncertainty in factors"},
	{0, "Insufficient adjustment data for reliable valuation"},
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
