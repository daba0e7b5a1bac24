package analyze

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
)

// Annual mileage expectations.
const (
	averageMilesPerYear  = 12000
	highMileageThreshold = 15000
	lowMileageThreshold  = 8000
)

// MileageCategory buckets annual mileage relative to the body-type-adjusted
// norm.
type MileageCategory string

// Mileage category constants.
const (
	MileageLow      MileageCategory = "low"
	MileageAverage  MileageCategory = "average"
	MileageHigh     MileageCategory = "high"
	MileageVeryHigh MileageCategory = "very_high"
)

// expected annual mileage multiplier per body type
var bodyTypeMileageMultipliers = map[string]float64{
	"sedan":       1.0,
	"suv":         1.1,
	"truck":       1.2,
	"coupe":       0.8,
	"convertible": 0.7,
	"wagon":       1.0,
	"hatchback":   0.9,
	"van":         1.3,
	"crossover":   1.05,
}

// how strongly excess mileage depresses value per body type
var bodyTypeMileageTolerance = map[string]float64{
	"truck":       0.8,
	"van":         0.8,
	"sedan":       1.0,
	"suv":         0.9,
	"coupe":       1.2,
	"convertible": 1.3,
	"wagon":       0.95,
	"hatchback":   1.05,
	"crossover":   0.95,
}

// MileageResult is the outcome of a mileage analysis.
type MileageResult struct {
	Score            float64         `json:"score"`             // 20-100
	AdjustmentFactor float64         `json:"adjustment_factor"` // 0.6-1.3
	Confidence       float64         `json:"confidence"`        // 0.5-0.95
	Category         MileageCategory `json:"category"`
	ExpectedMileage  float64         `json:"expected_mileage"`
	Insights         []string        `json:"insights"`
	Recommendations  []string        `json:"recommendations"`
}

// MileageAnalyzer compares actual mileage against the age- and
// body-type-adjusted expectation.
type MileageAnalyzer struct {
	log *slog.Logger
	now func() time.Time
}

// MileageOption configures a MileageAnalyzer.
type MileageOption func(*MileageAnalyzer)

// WithMileageLogger sets the logger.
func WithMileageLogger(l *slog.Logger) MileageOption {
	return func(a *MileageAnalyzer) { a.log = l }
}

// WithMileageClock overrides the clock, for tests.
func WithMileageClock(now func() time.Time) MileageOption {
	return func(a *MileageAnalyzer) { a.now = now }
}

// NewMileageAnalyzer creates a MileageAnalyzer.
func NewMileageAnalyzer(opts ...MileageOption) *MileageAnalyzer {
	a := &MileageAnalyzer{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze compares mileage against expectation for the vehicle's age and
// body type. Older vehicles are penalized less per excess mile, and work
// vehicles (trucks, vans) tolerate high mileage better than sports cars.
func (a *MileageAnalyzer) Analyze(year, mileage int, bodyType string) MileageResult {
	age := math.Max(1, float64(a.now().Year()-year))
	expected := age * averageMilesPerYear * typeMultiplier(bodyType)
	perYear := float64(mileage) / age

	category := a.categorize(perYear, bodyType)

	result := MileageResult{
		Score:            a.score(perYear, bodyType, category),
		AdjustmentFactor: a.adjustmentFactor(float64(mileage), expected, age, bodyType),
		Confidence:       a.confidence(age, mileage),
		Category:         category,
		ExpectedMileage:  expected,
		Insights:         mileageInsights(float64(mileage), expected, perYear),
		Recommendations:  mileageRecommendations(category, perYear),
	}

	a.log.Debug("mileage analyzed",
		slog.Int("mileage", mileage),
		slog.Float64("expected", expected),
		slog.String("category", string(category)),
		slog.Float64("factor", result.AdjustmentFactor))

	return result
}

func mileageInsights(mileage, expected, perYear float64) []string {
	insights := []string{
		fmt.Sprintf("Vehicle averages %.0f miles per year", perYear),
		fmt.Sprintf("Expected mileage for this age: %.0f miles", expected),
	}

	if diff := mileage - expected; math.Abs(diff) > 5000 {
		direction := "below"
		if diff > 0 {
			direction = "above"
		}
		insights = append(insights, fmt.Sprintf("%.0f miles %s expected", math.Abs(diff), direction))
	}

	return insights
}

func mileageRecommendations(category MileageCategory, perYear float64) []string {
	switch category {
	case MileageLow:
		recommendations := []string{"Low mileage vehicle - verify maintenance despite low use"}
		if perYear < 3000 {
			recommendations = append(recommendations,
				"Very low usage - check for mechanical issues from lack of use")
		}
		return recommendations
	case MileageAverage:
		return []string{"Average mileage for age - good indicator of normal use"}
	case MileageHigh:
		return []string{"High mileage - verify maintenance records and component condition"}
	case MileageVeryHigh:
		return []string{
			"Very high mileage - thorough inspection recommended",
			"Check for wear on high-mileage components",
		}
	default:
		return nil
	}
}

func typeMultiplier(bodyType string) float64 {
	if m, ok := bodyTypeMileageMultipliers[bodyType]; ok {
		return m
	}
	return 1.0
}

func typeTolerance(bodyType string) float64 {
	if t, ok := bodyTypeMileageTolerance[bodyType]; ok {
		return t
	}
	return 1.0
}

func (a *MileageAnalyzer) categorize(perYear float64, bodyType string) MileageCategory {
	m := typeMultiplier(bodyType)
	low := lowMileageThreshold * m
	high := highMileageThreshold * m

	switch {
	case perYear < low:
		return MileageLow
	case perYear > high*1.5:
		return MileageVeryHigh
	case perYear > high:
		return MileageHigh
	default:
		return MileageAverage
	}
}

func (a *MileageAnalyzer) adjustmentFactor(actual, expected, age float64, bodyType string) float64 {
	percentDiff := (actual - expected) / expected

	// older cars are less affected by excess mileage
	ageFactor := math.Max(0.5, 1-(age-5)*0.1)

	factor := 1 + percentDiff*ageFactor*typeTolerance(bodyType)

	// diminishing returns at the extremes
	if factor > 1.2 {
		factor = 1.2 + (factor-1.2)*0.5
	} else if factor < 0.7 {
		factor = 0.7 + (factor-0.7)*0.5
	}

	return clamp(factor, 0.6, 1.3)
}

func (a *MileageAnalyzer) score(perYear float64, bodyType string, category MileageCategory) float64 {
	var base float64
	switch category {
	case MileageLow:
		base = 90
	case MileageAverage:
		base = 80
	case MileageHigh:
		base = 60
	case MileageVeryHigh:
		base = 40
	}

	adjustedAverage := averageMilesPerYear * typeMultiplier(bodyType)

	switch category {
	case MileageLow:
		// extremely low use suggests the vehicle sat idle
		if perYear < 3000 {
			base -= 10
		}
	case MileageAverage:
		deviation := math.Abs(perYear-adjustedAverage) / adjustedAverage
		base += (1 - deviation) * 10
	}

	return clamp(base, 20, 100)
}

func (a *MileageAnalyzer) confidence(age float64, mileage int) float64 {
	confidence := 0.8

	if age <= 3 {
		confidence += 0.1
	}
	if age > 15 {
		confidence -= 0.1
	}
	if mileage > 200000 {
		confidence -= 0.15
	}

	perYear := float64(mileage) / age
	if perYear >= 8000 && perYear <= 15000 {
		confidence += 0.05
	}

	return clamp(confidence, 0.5, 0.95)
}
