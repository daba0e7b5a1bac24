// Package domain defines the core business types for the vehicle valuator.
package domain

import (
	"time"
)

// Condition represents the declared vehicle condition.
type Condition string

// Condition constants.
const (
	ConditionExcellent Condition = "excellent"
	ConditionVeryGood  Condition = "very_good"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// DamageSeverity represents the severity of detected or reported damage.
type DamageSeverity string

// Damage severity constants.
const (
	DamageMinor     DamageSeverity = "minor"
	DamageModerate  DamageSeverity = "moderate"
	DamageMajor     DamageSeverity = "major"
	DamageTotalLoss DamageSeverity = "total_loss"
)

// AdjustmentCategory classifies a price adjustment line item.
type AdjustmentCategory string

// Adjustment category constants.
const (
	CategoryCondition AdjustmentCategory = "condition"
	CategoryMileage   AdjustmentCategory = "mileage"
	CategoryMarket    AdjustmentCategory = "market"
	CategoryLocation  AdjustmentCategory = "location"
	CategoryFeatures  AdjustmentCategory = "features"
	CategoryHistory   AdjustmentCategory = "history"
)

// CompetitivePosition describes where a value sits relative to the local market.
type CompetitivePosition string

// Competitive position constants.
const (
	PositionBelowMarket CompetitivePosition = "below_market"
	PositionAtMarket    CompetitivePosition = "at_market"
	PositionAboveMarket CompetitivePosition = "above_market"
)

// ValuationRequest is the single structured input to the valuation pipeline.
// It is immutable once accepted by the coordinator.
type ValuationRequest struct {
	// Identity
	VIN      string `json:"vin"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Trim     string `json:"trim,omitempty"`
	BodyType string `json:"body_type,omitempty"`

	// State
	Mileage   int       `json:"mileage"`
	Condition Condition `json:"condition"`

	// Location
	ZipCode      string `json:"zip_code"`
	SearchRadius int    `json:"search_radius,omitempty"` // miles

	// Optional enrichments. Nil means unknown, not empty.
	Photos            []VehiclePhoto     `json:"photos,omitempty"`
	ServiceHistory    []ServiceRecord    `json:"service_history,omitempty"`
	AccidentHistory   []AccidentRecord   `json:"accident_history,omitempty"`
	Modifications     []Modification     `json:"modifications,omitempty"`
	AdditionalFactors []AdditionalFactor `json:"additional_factors,omitempty"`
}

// VehiclePhoto is a photo with optional AI condition analysis attached.
type VehiclePhoto struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Category       string            `json:"category"` // exterior, interior, engine, damage, other
	AIScore        *float64          `json:"ai_score,omitempty"`
	DamageDetected []DamageDetection `json:"damage_detected,omitempty"`
	UploadedAt     time.Time         `json:"uploaded_at"`
}

// DamageDetection is a single AI-detected damage instance on a photo.
type DamageDetection struct {
	Type       string         `json:"type"` // dent, scratch, rust, crack, wear
	Severity   DamageSeverity `json:"severity"`
	Location   string         `json:"location"`
	Confidence float64        `json:"confidence"`
}

// ServiceRecord is one entry from the vehicle's service history.
type ServiceRecord struct {
	Date        time.Time `json:"date"`
	Mileage     int       `json:"mileage"`
	ServiceType string    `json:"service_type"`
	Cost        *float64  `json:"cost,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Verified    bool      `json:"verified"`
}

// AccidentRecord is one reported accident.
type AccidentRecord struct {
	Date              time.Time      `json:"date"`
	Severity          DamageSeverity `json:"severity"`
	DamageDescription string         `json:"damage_description,omitempty"`
	RepairCost        *float64       `json:"repair_cost,omitempty"`
	Verified          bool           `json:"verified"`
}

// Modification is an aftermarket change to the vehicle.
type Modification struct {
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Cost          *float64 `json:"cost,omitempty"`
	Professional  bool     `json:"professional"`
	ImpactOnValue string   `json:"impact_on_value,omitempty"` // positive, negative, neutral
}

// AdditionalFactor is an arbitrary named input the adjustment composer may
// recognize (navigation_system, one_owner, ...). Unrecognized factors are
// ignored without error.
type AdditionalFactor struct {
	Factor string `json:"factor"`
	Value  any    `json:"value"`
	Impact string `json:"impact,omitempty"`
}

// MarketListing is the common schema every vendor adapter normalizes into.
type MarketListing struct {
	ID         string    `json:"id"          db:"id"`
	Price      float64   `json:"price"       db:"price"`
	Mileage    int       `json:"mileage"     db:"mileage"`
	Year       int       `json:"year"        db:"year"`
	Make       string    `json:"make"        db:"make"`
	Model      string    `json:"model"       db:"model"`
	Trim       string    `json:"trim,omitempty"`
	Condition  string    `json:"condition,omitempty"`
	Location   string    `json:"location"    db:"location"`
	Source     string    `json:"source"      db:"source"`
	URL        string    `json:"url,omitempty"`
	ListedDate time.Time `json:"listed_date" db:"listed_date"`
	Features   []string  `json:"features,omitempty"`
	Dealer     bool      `json:"dealer"      db:"dealer"`
	Certified  bool      `json:"certified"   db:"certified"`
}

// HistoricalPrice is one point in a comparable-sale price series.
type HistoricalPrice struct {
	Date    time.Time `json:"date"`
	Price   float64   `json:"price"`
	Mileage int       `json:"mileage"`
	Source  string    `json:"source"`
}

// SeasonalTrend is one month's price multiplier relative to the annual average.
type SeasonalTrend struct {
	Month      int     `json:"month"` // 1-12
	Multiplier float64 `json:"multiplier"`
	Confidence float64 `json:"confidence"`
}

// MarketSnapshot is the aggregated view of comparable listings and macro
// trends. Built fresh per request and never mutated after construction.
type MarketSnapshot struct {
	LocalListings       []MarketListing   `json:"local_listings"`
	NationalAverage     float64           `json:"national_average"`
	HistoricalPrices    []HistoricalPrice `json:"historical_prices"`
	SeasonalTrends      []SeasonalTrend   `json:"seasonal_trends"`
	DemandIndex         float64           `json:"demand_index"` // 0-100
	AveragePrice        float64           `json:"average_price"`
	TotalListings       int               `json:"total_listings"`
	PriceVariance       float64           `json:"price_variance"` // coefficient of variation
	AverageTimeOnMarket float64           `json:"average_time_on_market"`
	Quality             float64           `json:"quality"`      // 0-1
	Availability        float64           `json:"availability"` // 0-1
	SourcesUsed         []string          `json:"sources_used"`
}

// BaseValuation is the predictor's unadjusted dollar estimate.
type BaseValuation struct {
	Value      float64 `json:"value"      db:"base_value"`
	Source     string  `json:"source"     db:"base_source"` // ML_MODEL, MARKET_DATA, MSRP, HYBRID
	Confidence float64 `json:"confidence" db:"base_confidence"`
}

// PriceAdjustment is one dollar-denominated adjustment line item.
type PriceAdjustment struct {
	Factor      string             `json:"factor"`
	Impact      float64            `json:"impact"` // dollars, signed
	Percentage  float64            `json:"percentage,omitempty"`
	Description string             `json:"description"`
	Confidence  float64            `json:"confidence"`
	Category    AdjustmentCategory `json:"category"`
}

// MarketInsights is the derived competitive summary attached to a result.
type MarketInsights struct {
	AvgMarketplacePrice  float64             `json:"avg_marketplace_price"`
	ListingCount         int                 `json:"listing_count"`
	PriceVariance        float64             `json:"price_variance"`
	DemandIndex          float64             `json:"demand_index"`
	TimeOnMarket         float64             `json:"time_on_market"` // average days
	CompetitivePosition  CompetitivePosition `json:"competitive_position"`
	PriceRecommendation  string              `json:"price_recommendation,omitempty"`
}

// ConfidenceFactor is one named component of the confidence breakdown.
type ConfidenceFactor struct {
	Factor      string  `json:"factor"`
	Score       float64 `json:"score"`
	Impact      string  `json:"impact"` // high, medium, low
	Description string  `json:"description"`
}

// ConfidenceBreakdown itemizes how the overall confidence score was composed.
type ConfidenceBreakdown struct {
	DataQuality             float64            `json:"data_quality"`
	MarketDataAvailability  float64            `json:"market_data_availability"`
	VehicleDataCompleteness float64            `json:"vehicle_data_completeness"`
	PredictorConfidence     float64            `json:"predictor_confidence"`
	OverallConfidence       float64            `json:"overall_confidence"`
	Factors                 []ConfidenceFactor `json:"factors"`
	Recommendations         []string           `json:"recommendations"`
}

// ValuationMetadata records provenance for a result.
type ValuationMetadata struct {
	Timestamp       time.Time `json:"timestamp"`
	ProcessingTime  float64   `json:"processing_time_ms"`
	Version         string    `json:"version"`
	DataSourcesUsed []string  `json:"data_sources_used"`
}

// ValuationResult is the single self-contained artifact handed back to
// presentation and storage layers. Created once per request, never updated
// in place; corrections require a new valuation.
type ValuationResult struct {
	ID              string              `json:"id"               db:"id"`
	EstimatedValue  float64             `json:"estimated_value"  db:"estimated_value"`
	PriceRange      [2]float64          `json:"price_range"`
	ConfidenceScore float64             `json:"confidence_score" db:"confidence_score"`
	ValuationMethod string              `json:"valuation_method" db:"valuation_method"`
	BaseValuation   BaseValuation       `json:"base_valuation"`
	Adjustments     []PriceAdjustment   `json:"adjustments"`
	MarketInsights  MarketInsights      `json:"market_insights"`
	Confidence      ConfidenceBreakdown `json:"confidence_breakdown"`
	Metadata        ValuationMetadata   `json:"metadata"`
}

// TotalAdjustment returns the summed dollar impact of all adjustments.
func (r *ValuationResult) TotalAdjustment() float64 {
	var total float64
	for i := range r.Adjustments {
		total += r.Adjustments[i].Impact
	}
	return total
}

// ConditionScore maps a declared condition to its 0-100 base score.
// Unknown conditions fall back to the "good" score.
func ConditionScore(c Condition) float64 {
	switch c {
	case ConditionExcellent:
		return 100
	case ConditionVeryGood:
		return 85
	case ConditionGood:
		return 75
	case ConditionFair:
		return 60
	case ConditionPoor:
		return 40
	default:
		return 75
	}
}

// ValidCondition reports whether c is one of the recognized condition values.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionExcellent, ConditionVeryGood, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}
