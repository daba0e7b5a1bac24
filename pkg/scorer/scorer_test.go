package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func subject() Subject {
	return Subject{Year: 2018, Mileage: 72000}
}

func identicalListing() ListingData {
	return ListingData{
		Year:         2018,
		Mileage:      72000,
		DaysListed:   3,
		Dealer:       true,
		Certified:    true,
		HasTrim:      true,
		HasCondition: true,
		HasURL:       true,
		FeatureCount: 4,
	}
}

func TestScore_IdenticalListing(t *testing.T) {
	t.Parallel()

	b := Score(identicalListing(), subject(), DefaultWeights())

	assert.InDelta(t, 100.0, b.Year, 0.001)
	assert.InDelta(t, 100.0, b.Mileage, 0.001)
	assert.InDelta(t, 100.0, b.Recency, 0.001)
	assert.InDelta(t, 100.0, b.Seller, 0.001)
	assert.InDelta(t, 100.0, b.Completeness, 0.001)
	assert.Equal(t, 100, b.Total)
}

func TestScore_TotalClamped(t *testing.T) {
	t.Parallel()

	data := ListingData{Year: 2005, Mileage: 250000, DaysListed: 400}
	b := Score(data, subject(), DefaultWeights())

	assert.GreaterOrEqual(t, b.Total, 0)
	assert.LessOrEqual(t, b.Total, 100)
}

func TestScore_CloserListingScoresHigher(t *testing.T) {
	t.Parallel()

	near := ListingData{Year: 2018, Mileage: 70000, DaysListed: 5}
	far := ListingData{Year: 2014, Mileage: 150000, DaysListed: 120}

	closeScore := Score(near, subject(), DefaultWeights())
	farScore := Score(far, subject(), DefaultWeights())

	assert.Greater(t, closeScore.Total, farScore.Total)
}

func TestYearScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		listingYear int
		want        float64
	}{
		{"same year", 2018, 100},
		{"one year newer", 2019, 85},
		{"one year older", 2017, 85},
		{"two years off", 2016, 70},
		{"three years off", 2015, 50},
		{"four years off", 2014, 30},
		{"five or more years off", 2010, 10},
		{"unreported year", 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, yearScore(tt.listingYear, 2018), 0.001)
		})
	}
}

func TestMileageScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		listingMiles int
		want         float64
	}{
		{"within 10 percent", 75000, 100},
		{"exactly 25 percent off", 90000, 70},
		{"exactly 50 percent off", 108000, 40},
		{"double the mileage", 144000, 10},
		{"more than double", 200000, 0},
		{"unreported odometer", 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, mileageScore(tt.listingMiles, 72000), 0.1)
		})
	}
}

func TestMileageScore_UnknownSubjectMileage(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 50.0, mileageScore(80000, 0), 0.001)
}

func TestRecencyScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, recencyScore(0), 0.001)
	assert.InDelta(t, 100.0, recencyScore(7), 0.001)
	assert.InDelta(t, 70.0, recencyScore(30), 0.001)
	assert.InDelta(t, 30.0, recencyScore(90), 0.001)
	assert.InDelta(t, 10.0, recencyScore(365), 0.001)
	assert.InDelta(t, 50.0, recencyScore(-1), 0.001)
}

func TestSellerScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 50.0, sellerScore(ListingData{}), 0.001)
	assert.InDelta(t, 70.0, sellerScore(ListingData{Dealer: true}), 0.001)
	assert.InDelta(t, 80.0, sellerScore(ListingData{Certified: true}), 0.001)
	assert.InDelta(t, 100.0, sellerScore(ListingData{Dealer: true, Certified: true}), 0.001)
}

func TestCompletenessScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, completenessScore(ListingData{}), 0.001)
	assert.InDelta(t, 30.0, completenessScore(ListingData{HasTrim: true}), 0.001)
	assert.InDelta(t, 100.0, completenessScore(ListingData{
		HasTrim: true, HasCondition: true, HasURL: true, FeatureCount: 2,
	}), 0.001)
}

func TestLerp(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 85.0, lerp(0.175, 0.10, 0.25, 100, 70), 0.001)
	assert.InDelta(t, 100.0, lerp(0.10, 0.10, 0.25, 100, 70), 0.001)
	assert.InDelta(t, 50.0, lerp(5, 5, 5, 50, 80), 0.001)
}
