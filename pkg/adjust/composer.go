// Package adjust turns analyzer factors and declared vehicle features into
// dollar-denominated price adjustments.
package adjust

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/gavincooper/vehicle-valuator/pkg/analyze"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Floor below which no final value can fall, regardless of adjustments.
const MinimumValue = 1000

// Input carries the base value and the analyzer results to be converted
// into adjustment line items.
type Input struct {
	BaseValue         float64
	Condition         *analyze.ConditionResult
	Mileage           *analyze.MileageResult
	Market            *analyze.MarketResult
	Modifications     []domain.Modification
	AdditionalFactors []domain.AdditionalFactor
}

// Summary aggregates a set of adjustments for reporting.
type Summary struct {
	TotalImpact       float64                               `json:"total_impact"`
	Positive          []domain.PriceAdjustment              `json:"positive"`
	Negative          []domain.PriceAdjustment              `json:"negative"`
	CategoryBreakdown map[domain.AdjustmentCategory]float64 `json:"category_breakdown"`
}

// Composer builds the adjustment list. Unrecognized additional factors are
// skipped silently so callers can pass through arbitrary client input.
type Composer struct {
	log *slog.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithComposerLogger sets the logger.
func WithComposerLogger(l *slog.Logger) ComposerOption {
	return func(c *Composer) { c.log = l }
}

// NewComposer creates a Composer.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose converts analyzer factors and additional factors into adjustment
// line items against the base value. Analyzer adjustments come first, in
// condition, mileage, market order, followed by additional factors in their
// input order.
func (c *Composer) Compose(in Input) []domain.PriceAdjustment {
	var adjustments []domain.PriceAdjustment

	if in.Condition != nil {
		adjustments = append(adjustments, domain.PriceAdjustment{
			Factor:      "Vehicle Condition",
			Impact:      in.BaseValue * (in.Condition.AdjustmentFactor - 1),
			Percentage:  (in.Condition.AdjustmentFactor - 1) * 100,
			Description: fmt.Sprintf("Condition-based adjustment (%.0f/100 score)", in.Condition.Score),
			Confidence:  in.Condition.Confidence,
			Category:    domain.CategoryCondition,
		})
	}

	if in.Mileage != nil {
		adjustments = append(adjustments, domain.PriceAdjustment{
			Factor:      "Mileage",
			Impact:      in.BaseValue * (in.Mileage.AdjustmentFactor - 1),
			Percentage:  (in.Mileage.AdjustmentFactor - 1) * 100,
			Description: fmt.Sprintf("Mileage adjustment (%s mileage)", in.Mileage.Category),
			Confidence:  in.Mileage.Confidence,
			Category:    domain.CategoryMileage,
		})
	}

	if in.Market != nil {
		adjustments = append(adjustments, domain.PriceAdjustment{
			Factor:      "Market Conditions",
			Impact:      in.BaseValue * (in.Market.AdjustmentFactor - 1),
			Percentage:  (in.Market.AdjustmentFactor - 1) * 100,
			Description: fmt.Sprintf("Market-based adjustment (%s)", in.Market.CompetitivePosition),
			Confidence:  in.Market.Confidence,
			Category:    domain.CategoryMarket,
		})
	}

	if adj := modificationsAdjustment(in.Modifications, in.BaseValue); adj != nil {
		adjustments = append(adjustments, *adj)
	}

	for _, factor := range in.AdditionalFactors {
		if adj := c.processFactor(factor, in.BaseValue); adj != nil {
			adjustments = append(adjustments, *adj)
		}
	}

	c.log.Debug("adjustments composed",
		slog.Int("count", len(adjustments)),
		slog.Float64("base_value", in.BaseValue))

	return adjustments
}

// Apply sums the adjustment impacts onto the base value and enforces the
// minimum value floor.
func Apply(baseValue float64, adjustments []domain.PriceAdjustment) float64 {
	final := baseValue
	for _, adj := range adjustments {
		final += adj.Impact
	}
	return math.Max(MinimumValue, final)
}

// Summarize splits adjustments by sign and totals them per category.
func Summarize(adjustments []domain.PriceAdjustment) Summary {
	s := Summary{CategoryBreakdown: make(map[domain.AdjustmentCategory]float64)}
	for _, adj := range adjustments {
		s.TotalImpact += adj.Impact
		if adj.Impact > 0 {
			s.Positive = append(s.Positive, adj)
		} else if adj.Impact < 0 {
			s.Negative = append(s.Negative, adj)
		}
		s.CategoryBreakdown[adj.Category] += adj.Impact
	}
	return s
}

func (c *Composer) processFactor(factor domain.AdditionalFactor, base float64) *domain.PriceAdjustment {
	switch factor.Factor {
	case "navigation_system":
		return boolFeature(factor.Value, "Navigation System",
			math.Min(1500, base*0.02), 2, "Factory navigation system adds value", 0.8)
	case "premium_audio":
		return boolFeature(factor.Value, "Premium Audio",
			math.Min(1200, base*0.015), 1.5, "Premium audio system enhancement", 0.75)
	case "sunroof":
		return boolFeature(factor.Value, "Sunroof",
			math.Min(1000, base*0.015), 1.5, "Sunroof/moonroof feature", 0.8)
	case "leather_seats":
		return boolFeature(factor.Value, "Leather Seats",
			math.Min(2000, base*0.025), 2.5, "Leather seat upgrade", 0.85)
	case "third_row_seating":
		return boolFeature(factor.Value, "Third Row Seating",
			math.Min(1800, base*0.03), 3, "Third row seating capacity", 0.9)
	case "all_wheel_drive":
		return boolFeature(factor.Value, "All-Wheel Drive",
			math.Min(3000, base*0.05), 5, "All-wheel drive system", 0.9)
	case "turbo_engine":
		return boolFeature(factor.Value, "Turbocharged Engine",
			math.Min(2500, base*0.04), 4, "Turbocharged engine performance", 0.85)
	case "hybrid_powertrain":
		return boolFeature(factor.Value, "Hybrid Powertrain",
			math.Min(4000, base*0.06), 6, "Hybrid fuel efficiency technology", 0.9)
	case "electric_powertrain":
		// battery degradation keeps confidence low
		return boolFeature(factor.Value, "Electric Powertrain",
			math.Min(5000, base*0.08), 8, "Electric vehicle technology (battery condition dependent)", 0.7)
	case "manual_transmission":
		if !truthy(factor.Value) {
			return nil
		}
		return &domain.PriceAdjustment{
			Factor:      "Manual Transmission",
			Impact:      base * 0.02,
			Percentage:  2,
			Description: "Manual transmission (market dependent value impact)",
			Confidence:  0.6,
			Category:    domain.CategoryFeatures,
		}
	case "aftermarket_modifications":
		return modificationsAdjustment(decodeModifications(factor.Value), base)
	case "extended_warranty":
		return processWarranty(factor.Value, base)
	case "one_owner":
		if !truthy(factor.Value) {
			return nil
		}
		return &domain.PriceAdjustment{
			Factor:      "One Owner",
			Impact:      base * 0.02,
			Percentage:  2,
			Description: "Single owner vehicle history",
			Confidence:  0.85,
			Category:    domain.CategoryHistory,
		}
	case "non_smoker":
		if !truthy(factor.Value) {
			return nil
		}
		return &domain.PriceAdjustment{
			Factor:      "Non-Smoker",
			Impact:      base * 0.01,
			Percentage:  1,
			Description: "Non-smoker interior condition",
			Confidence:  0.75,
			Category:    domain.CategoryCondition,
		}
	case "garage_kept":
		if !truthy(factor.Value) {
			return nil
		}
		return &domain.PriceAdjustment{
			Factor:      "Garage Kept",
			Impact:      base * 0.015,
			Percentage:  1.5,
			Description: "Garage-kept vehicle protection",
			Confidence:  0.8,
			Category:    domain.CategoryCondition,
		}
	default:
		c.log.Debug("unrecognized adjustment factor skipped", slog.String("factor", factor.Factor))
		return nil
	}
}

func boolFeature(value any, factor string, impact, percentage float64, description string, confidence float64) *domain.PriceAdjustment {
	if !truthy(value) {
		return nil
	}
	return &domain.PriceAdjustment{
		Factor:      factor,
		Impact:      impact,
		Percentage:  percentage,
		Description: description,
		Confidence:  confidence,
		Category:    domain.CategoryFeatures,
	}
}

func modificationsAdjustment(mods []domain.Modification, base float64) *domain.PriceAdjustment {
	if len(mods) == 0 {
		return nil
	}

	var total float64
	for _, mod := range mods {
		cost := 0.0
		if mod.Cost != nil {
			cost = *mod.Cost
		}
		switch mod.ImpactOnValue {
		case "positive":
			total += math.Min(cost*0.3, base*0.02)
		case "negative":
			total -= math.Min(cost*0.5, base*0.05)
		}
	}

	return &domain.PriceAdjustment{
		Factor:      "Aftermarket Modifications",
		Impact:      total,
		Percentage:  total / base * 100,
		Description: fmt.Sprintf("%d aftermarket modifications", len(mods)),
		Confidence:  0.6,
		Category:    domain.CategoryFeatures,
	}
}

// WarrantyInfo describes remaining extended warranty coverage.
type WarrantyInfo struct {
	Remaining      bool    `json:"remaining"`
	YearsRemaining float64 `json:"years_remaining"`
}

func processWarranty(value any, base float64) *domain.PriceAdjustment {
	info, ok := decodeWarranty(value)
	if !ok || !info.Remaining {
		return nil
	}

	impact := math.Min(info.YearsRemaining*500, base*0.03)
	return &domain.PriceAdjustment{
		Factor:      "Extended Warranty",
		Impact:      impact,
		Percentage:  impact / base * 100,
		Description: fmt.Sprintf("%.0f years remaining on extended warranty", info.YearsRemaining),
		Confidence:  0.8,
		Category:    domain.CategoryFeatures,
	}
}

// decodeModifications accepts either typed modifications or the []any shape
// JSON unmarshaling produces at the API boundary.
func decodeModifications(value any) []domain.Modification {
	switch v := value.(type) {
	case []domain.Modification:
		return v
	case nil:
		return nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var mods []domain.Modification
		if err := json.Unmarshal(raw, &mods); err != nil {
			return nil
		}
		return mods
	}
}

// decodeWarranty accepts a typed WarrantyInfo or the map[string]any shape
// JSON unmarshaling produces at the API boundary.
func decodeWarranty(value any) (WarrantyInfo, bool) {
	switch v := value.(type) {
	case WarrantyInfo:
		return v, true
	case nil:
		return WarrantyInfo{}, false
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return WarrantyInfo{}, false
		}
		var info WarrantyInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return WarrantyInfo{}, false
		}
		return info, true
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "yes" || v == "1"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
