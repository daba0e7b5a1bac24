package analyze

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Weights for combining the four market sub-analyses.
const (
	marketWeightLocal       = 0.40
	marketWeightSeasonal    = 0.20
	marketWeightDemand      = 0.25
	marketWeightCompetitive = 0.15
)

// MarketResult is the outcome of a market analysis.
type MarketResult struct {
	AdjustmentFactor    float64                    `json:"adjustment_factor"` // 0.85-1.20
	Confidence          float64                    `json:"confidence"`        // 0.4-0.95
	Insights            []string                   `json:"insights"`
	CompetitivePosition domain.CompetitivePosition `json:"competitive_position"`
}

// MarketAnalyzer derives a single bounded price multiplier from local
// inventory, seasonality, demand and local-vs-national positioning.
type MarketAnalyzer struct {
	log *slog.Logger
	now func() time.Time
}

// MarketOption configures a MarketAnalyzer.
type MarketOption func(*MarketAnalyzer)

// WithMarketLogger sets the logger.
func WithMarketLogger(l *slog.Logger) MarketOption {
	return func(a *MarketAnalyzer) { a.log = l }
}

// WithMarketClock overrides the clock, for tests.
func WithMarketClock(now func() time.Time) MarketOption {
	return func(a *MarketAnalyzer) { a.now = now }
}

// NewMarketAnalyzer creates a MarketAnalyzer.
func NewMarketAnalyzer(opts ...MarketOption) *MarketAnalyzer {
	a := &MarketAnalyzer{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze combines local market, seasonal, demand and competitive
// sub-analyses into one weighted adjustment factor clamped to [0.85, 1.20].
func (a *MarketAnalyzer) Analyze(snapshot *domain.MarketSnapshot) MarketResult {
	local := a.analyzeLocal(snapshot.LocalListings)
	seasonal := a.analyzeSeasonality(snapshot.SeasonalTrends)
	demand := analyzeDemand(snapshot.DemandIndex)
	competitive := analyzeCompetitive(snapshot.LocalListings, snapshot.NationalAverage)

	weighted := local.factor*marketWeightLocal +
		seasonal.factor*marketWeightSeasonal +
		demand.factor*marketWeightDemand +
		competitive.factor*marketWeightCompetitive

	result := MarketResult{
		AdjustmentFactor:    clamp(weighted, 0.85, 1.20),
		Confidence:          a.confidence(snapshot),
		Insights:            buildInsights(local, seasonal, demand, competitive),
		CompetitivePosition: competitive.position,
	}

	a.log.Debug("market analyzed",
		slog.Int("listings", len(snapshot.LocalListings)),
		slog.Float64("demand_index", snapshot.DemandIndex),
		slog.Float64("factor", result.AdjustmentFactor),
		slog.String("position", string(result.CompetitivePosition)))

	return result
}

type localAnalysis struct {
	factor          float64
	listingDensity  string
	marketActivity  string
	dealerShare     float64
	privateShare    float64
}

func (a *MarketAnalyzer) analyzeLocal(listings []domain.MarketListing) localAnalysis {
	if len(listings) == 0 {
		return localAnalysis{
			factor:         1.0,
			listingDensity: "very_low",
			marketActivity: "inactive",
		}
	}

	prices := make([]float64, len(listings))
	var sum float64
	var dealers int
	for i, l := range listings {
		prices[i] = l.Price
		sum += l.Price
		if l.Dealer {
			dealers++
		}
	}
	sort.Float64s(prices)

	average := sum / float64(len(listings))
	variation := (prices[len(prices)-1] - prices[0]) / average

	density := categorizeDensity(len(listings))
	recent := countRecent(listings, 30, a.now())
	activity := categorizeActivity(recent, len(listings))

	dealerShare := float64(dealers) / float64(len(listings))

	factor := 1.0
	if dealerShare > 0.7 {
		factor += 0.05
	}
	switch activity {
	case "very_active":
		factor += 0.03
	case "inactive":
		factor -= 0.05
	}
	switch stability(variation) {
	case "stable":
		factor += 0.02
	case "volatile":
		factor -= 0.03
	}

	return localAnalysis{
		factor:         clamp(factor, 0.9, 1.15),
		listingDensity: density,
		marketActivity: activity,
		dealerShare:    dealerShare,
		privateShare:   1 - dealerShare,
	}
}

type seasonalAnalysis struct {
	factor         float64
	trend          string
	recommendation string
}

func (a *MarketAnalyzer) analyzeSeasonality(trends []domain.SeasonalTrend) seasonalAnalysis {
	month := int(a.now().Month())

	var current *domain.SeasonalTrend
	for i := range trends {
		if trends[i].Month == month {
			current = &trends[i]
			break
		}
	}
	if current == nil {
		return seasonalAnalysis{
			factor:         1.0,
			trend:          "neutral",
			recommendation: "No seasonal data available",
		}
	}

	trend := "neutral"
	if current.Multiplier > 1.05 {
		trend = "peak"
	} else if current.Multiplier < 0.95 {
		trend = "valley"
	}

	nextMonth := month%12 + 1
	for i := range trends {
		if trends[i].Month == nextMonth && math.Abs(trends[i].Multiplier-current.Multiplier) > 0.02 {
			if trends[i].Multiplier > current.Multiplier {
				trend = "rising"
			} else {
				trend = "falling"
			}
			break
		}
	}

	return seasonalAnalysis{
		factor:         clamp(current.Multiplier, 0.95, 1.08),
		trend:          trend,
		recommendation: seasonalRecommendation(trend),
	}
}

type demandAnalysis struct {
	factor float64
	level  string
	index  float64
	impact string
}

func analyzeDemand(index float64) demandAnalysis {
	var level string
	var factor float64
	switch {
	case index >= 85:
		level, factor = "very_high", 1.08
	case index >= 70:
		level, factor = "high", 1.05
	case index >= 50:
		level, factor = "moderate", 1.0
	case index >= 30:
		level, factor = "low", 0.97
	default:
		level, factor = "very_low", 0.93
	}

	return demandAnalysis{
		factor: factor,
		level:  level,
		index:  index,
		impact: demandImpact(level),
	}
}

type competitiveAnalysis struct {
	factor          float64
	position        domain.CompetitivePosition
	localVsNational float64
	known           bool
}

func analyzeCompetitive(listings []domain.MarketListing, nationalAverage float64) competitiveAnalysis {
	if len(listings) == 0 || nationalAverage <= 0 {
		return competitiveAnalysis{factor: 1.0, position: domain.PositionAtMarket}
	}

	var sum float64
	for _, l := range listings {
		sum += l.Price
	}
	localAverage := sum / float64(len(listings))
	diff := (localAverage - nationalAverage) / nationalAverage

	var position domain.CompetitivePosition
	switch {
	case math.Abs(diff) < 0.05:
		position = domain.PositionAtMarket
	case diff < 0:
		position = domain.PositionBelowMarket
	default:
		position = domain.PositionAboveMarket
	}

	// half of the local-vs-national gap flows into the adjustment
	return competitiveAnalysis{
		factor:          clamp(1.0+diff*0.5, 0.92, 1.12),
		position:        position,
		localVsNational: diff,
		known:           true,
	}
}

func (a *MarketAnalyzer) confidence(snapshot *domain.MarketSnapshot) float64 {
	confidence := 0.7

	n := len(snapshot.LocalListings)
	switch {
	case n > 15:
		confidence += 0.15
	case n > 5:
		confidence += 0.1
	case n < 3:
		confidence -= 0.2
	}

	if len(snapshot.SeasonalTrends) >= 12 {
		confidence += 0.1
	}

	recent := countRecent(snapshot.LocalListings, 14, a.now())
	if float64(recent) > float64(n)*0.3 {
		confidence += 0.05
	}

	return clamp(confidence, 0.4, 0.95)
}

func buildInsights(local localAnalysis, seasonal seasonalAnalysis, demand demandAnalysis, competitive competitiveAnalysis) []string {
	insights := []string{
		fmt.Sprintf("Local market has %s inventory with %s activity", local.listingDensity, local.marketActivity),
	}

	if local.dealerShare > 0.6 {
		insights = append(insights, "Dealer-heavy market typically commands higher prices")
	} else if local.privateShare > 0.6 {
		insights = append(insights, "Private seller market may offer better value opportunities")
	}

	if seasonal.trend != "neutral" {
		insights = append(insights, fmt.Sprintf("Market is in %s seasonal trend", seasonal.trend))
	}
	insights = append(insights, seasonal.recommendation)

	insights = append(insights,
		fmt.Sprintf("Demand level is %s (%.0f/100)", demand.level, demand.index),
		demand.impact)

	if competitive.known {
		direction := "below"
		if competitive.localVsNational > 0 {
			direction = "above"
		}
		insights = append(insights, fmt.Sprintf("Local market prices are %.1f%% %s national average",
			math.Abs(competitive.localVsNational*100), direction))
	}

	return insights
}

func categorizeDensity(count int) string {
	switch {
	case count < 3:
		return "very_low"
	case count < 8:
		return "low"
	case count < 15:
		return "moderate"
	case count < 25:
		return "high"
	default:
		return "very_high"
	}
}

func categorizeActivity(recent, total int) string {
	if total == 0 {
		return "inactive"
	}
	ratio := float64(recent) / float64(total)
	switch {
	case ratio < 0.1:
		return "inactive"
	case ratio < 0.25:
		return "slow"
	case ratio < 0.5:
		return "moderate"
	case ratio < 0.75:
		return "active"
	default:
		return "very_active"
	}
}

func stability(variation float64) string {
	switch {
	case variation < 0.15:
		return "stable"
	case variation < 0.35:
		return "moderate"
	default:
		return "volatile"
	}
}

func countRecent(listings []domain.MarketListing, days int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -days)
	var n int
	for _, l := range listings {
		if l.ListedDate.After(cutoff) {
			n++
		}
	}
	return n
}

func seasonalRecommendation(trend string) string {
	switch trend {
	case "peak":
		return "Peak selling season - good time for premium pricing"
	case "valley":
		return "Slower season - may need competitive pricing"
	case "rising":
		return "Market strengthening - prices trending up"
	case "falling":
		return "Market softening - prices trending down"
	default:
		return "Stable seasonal conditions"
	}
}

func demandImpact(level string) string {
	switch level {
	case "very_high":
		return "Strong buyer demand supports premium pricing"
	case "high":
		return "Good demand allows for competitive pricing"
	case "moderate":
		return "Balanced market conditions"
	case "low":
		return "Weak demand may require aggressive pricing"
	default:
		return "Very limited demand - consider market timing"
	}
}
