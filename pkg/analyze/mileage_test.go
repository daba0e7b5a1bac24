package analyze

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMileageAnalyzer_Categories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		year     int
		mileage  int
		bodyType string
		want     MileageCategory
	}{
		{"low mileage sedan", 2021, 20000, "sedan", MileageLow},           // 4000/yr
		{"average mileage sedan", 2021, 60000, "sedan", MileageAverage},   // 12000/yr
		{"high mileage sedan", 2021, 90000, "sedan", MileageHigh},         // 18000/yr
		{"very high mileage sedan", 2021, 120000, "sedan", MileageVeryHigh}, // 24000/yr
		{"truck tolerates more", 2021, 85000, "truck", MileageAverage},    // 17000/yr vs 18000 threshold
		{"coupe tolerates less", 2021, 65000, "coupe", MileageHigh},       // 13000/yr vs 12000 threshold
	}

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := a.Analyze(tt.year, tt.mileage, tt.bodyType)
			assert.Equal(t, tt.want, result.Category)
		})
	}
}

func TestMileageAnalyzer_ExpectedMileage(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	// 5 year old sedan: 5 * 12000 * 1.0
	result := a.Analyze(2021, 60000, "sedan")
	assert.InDelta(t, 60000, result.ExpectedMileage, 0.001)

	// 5 year old van: 5 * 12000 * 1.3
	result = a.Analyze(2021, 60000, "van")
	assert.InDelta(t, 78000, result.ExpectedMileage, 0.001)

	// unknown body type falls back to 1.0
	result = a.Analyze(2021, 60000, "rocket")
	assert.InDelta(t, 60000, result.ExpectedMileage, 0.001)
}

func TestMileageAnalyzer_Insights(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	// 5 year old sedan right on expectation: no deviation insight
	result := a.Analyze(2021, 60000, "sedan")
	assert.Equal(t, []string{
		"Vehicle averages 12000 miles per year",
		"Expected mileage for this age: 60000 miles",
	}, result.Insights)
	assert.Equal(t, []string{
		"Average mileage for age - good indicator of normal use",
	}, result.Recommendations)

	// well below expectation adds the deviation insight
	result = a.Analyze(2021, 20000, "sedan")
	assert.Contains(t, result.Insights, "40000 miles below expected")
	assert.Equal(t, []string{
		"Low mileage vehicle - verify maintenance despite low use",
	}, result.Recommendations)

	// barely used vehicles get the lack-of-use warning
	result = a.Analyze(2021, 10000, "sedan")
	assert.Contains(t, result.Recommendations,
		"Very low usage - check for mechanical issues from lack of use")
}

func TestMileageAnalyzer_VeryHighMileageRecommendations(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	result := a.Analyze(2021, 120000, "sedan")
	assert.Contains(t, result.Insights, "60000 miles above expected")
	assert.Equal(t, []string{
		"Very high mileage - thorough inspection recommended",
		"Check for wear on high-mileage components",
	}, result.Recommendations)
}

func TestMileageAnalyzer_CurrentYearVehicleAgeFloor(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	// Age clamps to 1 so per-year math never divides by zero.
	result := a.Analyze(2026, 5000, "sedan")
	assert.InDelta(t, 12000, result.ExpectedMileage, 0.001)
	assert.Equal(t, MileageLow, result.Category)
}

func TestMileageAnalyzer_FactorDirection(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	below := a.Analyze(2021, 30000, "sedan")
	at := a.Analyze(2021, 60000, "sedan")
	above := a.Analyze(2021, 100000, "sedan")

	assert.Greater(t, below.AdjustmentFactor, at.AdjustmentFactor)
	assert.Greater(t, at.AdjustmentFactor, above.AdjustmentFactor)
	assert.InDelta(t, 1.0, at.AdjustmentFactor, 0.001)
}

func TestMileageAnalyzer_ExtremelyLowMileagePenalized(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))

	// 2000/yr: low category but score docked for sitting idle
	idle := a.Analyze(2016, 20000, "sedan")
	modest := a.Analyze(2016, 50000, "sedan")

	assert.Equal(t, MileageLow, idle.Category)
	assert.Equal(t, MileageLow, modest.Category)
	assert.Less(t, idle.Score, modest.Score)
}

func TestMileageAnalyzer_FactorAlwaysInRange(t *testing.T) {
	t.Parallel()

	a := NewMileageAnalyzer(WithMileageClock(fixedClock))
	rng := rand.New(rand.NewSource(42))

	bodyTypes := []string{"sedan", "suv", "truck", "coupe", "convertible", "van", ""}

	for i := 0; i < 500; i++ {
		year := 1990 + rng.Intn(37)
		mileage := rng.Intn(500000) + 1
		bodyType := bodyTypes[rng.Intn(len(bodyTypes))]

		result := a.Analyze(year, mileage, bodyType)

		assert.GreaterOrEqual(t, result.AdjustmentFactor, 0.6,
			"year=%d mileage=%d type=%q", year, mileage, bodyType)
		assert.LessOrEqual(t, result.AdjustmentFactor, 1.3,
			"year=%d mileage=%d type=%q", year, mileage, bodyType)
		assert.GreaterOrEqual(t, result.Score, 20.0)
		assert.LessOrEqual(t, result.Score, 100.0)
		assert.GreaterOrEqual(t, result.Confidence, 0.5)
		assert.LessOrEqual(t, result.Confidence, 0.95)
	}
}
