// Package analyze implements the three valuation analyzers: condition,
// mileage and market. Each analyzer is pure given its input and a clock,
// returning a bounded multiplicative adjustment factor plus a confidence
// score for the confidence breakdown.
package analyze

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// ConditionResult is the outcome of a condition analysis.
type ConditionResult struct {
	Score            float64  `json:"score"`             // 20-100
	AdjustmentFactor float64  `json:"adjustment_factor"` // 0.4-1.2
	Confidence       float64  `json:"confidence"`        // 0.5-0.95
	Factors          []string `json:"factors"`
	Recommendations  []string `json:"recommendations"`
}

// ConditionAnalyzer scores vehicle condition from the declared condition,
// photo AI analysis, service history and accident history.
type ConditionAnalyzer struct {
	log *slog.Logger
	now func() time.Time
}

// ConditionOption configures a ConditionAnalyzer.
type ConditionOption func(*ConditionAnalyzer)

// WithConditionLogger sets the logger.
func WithConditionLogger(l *slog.Logger) ConditionOption {
	return func(a *ConditionAnalyzer) { a.log = l }
}

// WithConditionClock overrides the clock, for tests.
func WithConditionClock(now func() time.Time) ConditionOption {
	return func(a *ConditionAnalyzer) { a.now = now }
}

// NewConditionAnalyzer creates a ConditionAnalyzer.
func NewConditionAnalyzer(opts ...ConditionOption) *ConditionAnalyzer {
	a := &ConditionAnalyzer{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores the vehicle's condition. The declared condition sets the
// base score; photo AI scores can only lower it, service history nudges it
// up, accidents push it down. The adjustment factor is the score scaled to
// [0.4, 1.2].
func (a *ConditionAnalyzer) Analyze(req *domain.ValuationRequest) ConditionResult {
	score := domain.ConditionScore(req.Condition)
	confidence := 0.7
	factors := []string{fmt.Sprintf("Base condition: %s", req.Condition)}
	var recommendations []string

	if len(req.Photos) > 0 {
		pa := a.analyzePhotos(req.Photos)
		score = min(score, pa.score)
		confidence = max(confidence, pa.confidence)
		factors = append(factors, pa.factors...)
		recommendations = append(recommendations, pa.recommendations...)
	}

	if len(req.ServiceHistory) > 0 {
		adj, desc := analyzeServiceHistory(req.ServiceHistory, a.now())
		score += adj
		factors = append(factors, "Service history: "+desc)
		if adj > 0 {
			recommendations = append(recommendations, "Well-maintained vehicle with good service records")
		}
	}

	if len(req.AccidentHistory) > 0 {
		penalty, desc := analyzeAccidentHistory(req.AccidentHistory)
		score -= penalty
		factors = append(factors, "Accident history: "+desc)
		recommendations = append(recommendations, "Consider detailed inspection due to accident history")
	}

	result := ConditionResult{
		Score:            clamp(score, 20, 100),
		AdjustmentFactor: clamp(score/100, 0.4, 1.2),
		Confidence:       clamp(confidence, 0.5, 0.95),
		Factors:          factors,
		Recommendations:  recommendations,
	}

	a.log.Debug("condition analyzed",
		slog.String("condition", string(req.Condition)),
		slog.Float64("score", result.Score),
		slog.Float64("factor", result.AdjustmentFactor))

	return result
}

type photoAnalysis struct {
	score           float64
	confidence      float64
	factors         []string
	recommendations []string
}

func (a *ConditionAnalyzer) analyzePhotos(photos []domain.VehiclePhoto) photoAnalysis {
	var totalScore, totalConfidence float64
	var factors, recommendations []string

	for _, photo := range photos {
		if photo.AIScore == nil {
			continue
		}
		totalScore += *photo.AIScore
		totalConfidence += 0.8

		if len(photo.DamageDetected) > 0 {
			severity, desc := categorizeDamage(photo.DamageDetected)
			factors = append(factors, fmt.Sprintf("%s: %s", photo.Category, desc))
			if severity == domain.DamageMajor {
				recommendations = append(recommendations, fmt.Sprintf("Address %s in %s", desc, photo.Category))
			}
		} else {
			factors = append(factors, photo.Category+": No significant damage detected")
		}
	}

	avgScore := 75.0
	avgConfidence := 0.5
	if len(photos) > 0 {
		avgScore = totalScore / float64(len(photos))
		avgConfidence = totalConfidence / float64(len(photos))
	}

	if len(photos) >= 8 {
		recommendations = append(recommendations, "Comprehensive photo documentation available")
	} else {
		recommendations = append(recommendations, "Consider providing more photos for better accuracy")
	}

	return photoAnalysis{
		score:           avgScore,
		confidence:      avgConfidence,
		factors:         factors,
		recommendations: recommendations,
	}
}

// categorizeDamage summarizes a photo's detections by the worst severity
// present.
func categorizeDamage(damages []domain.DamageDetection) (domain.DamageSeverity, string) {
	byType := func(severity domain.DamageSeverity) []string {
		var types []string
		for _, d := range damages {
			if d.Severity == severity {
				types = append(types, d.Type)
			}
		}
		return types
	}

	if types := byType(domain.DamageMajor); len(types) > 0 {
		return domain.DamageMajor, "Major " + strings.Join(types, ", ")
	}
	if types := byType(domain.DamageModerate); len(types) > 0 {
		return domain.DamageModerate, "Moderate " + strings.Join(types, ", ")
	}
	return domain.DamageMinor, "Minor " + strings.Join(byType(domain.DamageMinor), ", ")
}

func analyzeServiceHistory(records []domain.ServiceRecord, now time.Time) (float64, string) {
	twoYearsAgo := now.AddDate(-2, 0, 0)

	var recent, major, verified int
	for _, r := range records {
		if r.Date.After(twoYearsAgo) {
			recent++
		}
		if strings.Contains(r.ServiceType, "engine") ||
			strings.Contains(r.ServiceType, "transmission") ||
			strings.Contains(r.ServiceType, "brake") {
			major++
		}
		if r.Verified {
			verified++
		}
	}

	var adjustment float64
	var parts []string

	if recent >= 3 {
		adjustment += 3
		parts = append(parts, "Regular recent maintenance")
	}
	if major > 0 {
		adjustment += 2
		if len(parts) > 0 {
			parts = append(parts, "major services completed")
		} else {
			parts = append(parts, "Major services completed")
		}
	}
	if float64(verified)/float64(len(records)) > 0.8 {
		adjustment += 2
		if len(parts) > 0 {
			parts = append(parts, "verified records")
		} else {
			parts = append(parts, "Verified service records")
		}
	}

	desc := strings.Join(parts, ", ")
	if desc == "" {
		desc = "Limited service history"
	}
	return adjustment, desc
}

func analyzeAccidentHistory(records []domain.AccidentRecord) (float64, string) {
	var penalty float64
	var parts []string

	for _, r := range records {
		switch r.Severity {
		case domain.DamageMinor:
			penalty += 2
			parts = append(parts, "minor accident")
		case domain.DamageModerate:
			penalty += 5
			parts = append(parts, "moderate accident")
		case domain.DamageMajor:
			penalty += 10
			parts = append(parts, "major accident")
		case domain.DamageTotalLoss:
			penalty += 20
			parts = append(parts, "total loss claim")
		}
	}

	desc := strings.Join(parts, ", ")
	if desc == "" {
		desc = "accident history"
	}
	return penalty, desc
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
