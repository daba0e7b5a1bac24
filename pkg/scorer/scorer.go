// Package score rates how comparable a market listing is to a subject
// vehicle on a 0-100 scale. The aggregator uses it to rank merged listings
// so the most relevant comparables lead the snapshot.
package score

import (
	"math"
)

// Weights defines the relative importance of each relevance factor.
type Weights struct {
	Year         float64
	Mileage      float64
	Recency      float64
	Seller       float64
	Completeness float64
}

// DefaultWeights returns the default relevance weights.
func DefaultWeights() Weights {
	return Weights{
		Year:         0.30,
		Mileage:      0.30,
		Recency:      0.15,
		Seller:       0.15,
		Completeness: 0.10,
	}
}

// Subject identifies the vehicle being valued.
type Subject struct {
	Year    int
	Mileage int
}

// ListingData holds the fields needed for scoring (decoupled from the wire
// model).
type ListingData struct {
	Year         int
	Mileage      int
	DaysListed   float64
	Dealer       bool
	Certified    bool
	HasTrim      bool
	HasCondition bool
	HasURL       bool
	FeatureCount int
}

// Breakdown shows per-factor scores.
type Breakdown struct {
	Year         float64 `json:"year"`
	Mileage      float64 `json:"mileage"`
	Recency      float64 `json:"recency"`
	Seller       float64 `json:"seller"`
	Completeness float64 `json:"completeness"`
	Total        int     `json:"total"`
}

// Score computes the composite relevance score for a listing against the
// subject vehicle.
func Score(data ListingData, subject Subject, w Weights) Breakdown {
	b := Breakdown{}

	b.Year = yearScore(data.Year, subject.Year)
	b.Mileage = mileageScore(data.Mileage, subject.Mileage)
	b.Recency = recencyScore(data.DaysListed)
	b.Seller = sellerScore(data)
	b.Completeness = completenessScore(data)

	total := b.Year*w.Year +
		b.Mileage*w.Mileage +
		b.Recency*w.Recency +
		b.Seller*w.Seller +
		b.Completeness*w.Completeness

	b.Total = int(math.Round(total))
	if b.Total > 100 {
		b.Total = 100
	}
	if b.Total < 0 {
		b.Total = 0
	}

	return b
}

// yearScore maps model year distance to a 0-100 score.
func yearScore(listingYear, subjectYear int) float64 {
	if listingYear == 0 || subjectYear == 0 {
		return 30 // unreported year
	}
	diff := listingYear - subjectYear
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 85
	case 2:
		return 70
	case 3:
		return 50
	case 4:
		return 30
	default:
		return 10
	}
}

// mileageScore maps relative odometer distance to a 0-100 score.
func mileageScore(listingMiles, subjectMiles int) float64 {
	if listingMiles <= 0 {
		return 30 // unreported odometer
	}
	if subjectMiles <= 0 {
		return 50
	}

	rel := math.Abs(float64(listingMiles-subjectMiles)) / float64(subjectMiles)
	switch {
	case rel <= 0.10:
		return 100
	case rel <= 0.25:
		return lerp(rel, 0.10, 0.25, 100, 70)
	case rel <= 0.50:
		return lerp(rel, 0.25, 0.50, 70, 40)
	case rel <= 1.0:
		return lerp(rel, 0.50, 1.0, 40, 10)
	default:
		return 0
	}
}

// recencyScore favors recently listed comparables; stale asks drift from
// the current market.
func recencyScore(daysListed float64) float64 {
	switch {
	case daysListed < 0:
		return 50 // unknown listing date
	case daysListed <= 7:
		return 100
	case daysListed <= 30:
		return lerp(daysListed, 7, 30, 100, 70)
	case daysListed <= 90:
		return lerp(daysListed, 30, 90, 70, 30)
	default:
		return 10
	}
}

// sellerScore reflects how trustworthy the asking price is. Dealer asks
// track market pricing more closely than private-party asks, and certified
// listings carry inspected, warrantied pricing.
func sellerScore(d ListingData) float64 {
	score := 50.0
	if d.Dealer {
		score = 70
	}
	if d.Certified {
		score += 30
	}
	return math.Min(score, 100)
}

// completenessScore evaluates how well-described the listing is.
func completenessScore(d ListingData) float64 {
	score := 0.0

	if d.HasTrim {
		score += 30
	}
	if d.HasCondition {
		score += 30
	}
	if d.HasURL {
		score += 20
	}
	if d.FeatureCount > 0 {
		score += 20
	}

	return math.Min(score, 100)
}

// lerp linearly interpolates a value between two score boundaries.
func lerp(val, minVal, maxVal, minScore, maxScore float64) float64 {
	if maxVal == minVal {
		return minScore
	}
	t := (val - minVal) / (maxVal - minVal)
	return minScore + t*(maxScore-minScore)
}
