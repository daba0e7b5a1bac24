package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string       { return &s }
func intPtr(i int) *int             { return &i }
func floatPtr(f float64) *float64   { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestValuationQuery_ToSQL_Defaults(t *testing.T) {
	t.Parallel()

	q := &ValuationQuery{}
	dataSQL, countSQL, args := q.ToSQL()

	assert.Empty(t, args)
	assert.NotContains(t, dataSQL, "WHERE")
	assert.Contains(t, dataSQL, "ORDER BY created_at DESC")
	assert.Contains(t, dataSQL, "LIMIT 50 OFFSET 0")
	assert.Equal(t, countValuationsSelect, countSQL)
}

func TestValuationQuery_ToSQL_Filters(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := &ValuationQuery{
		VIN:           strPtr("1HGCM82633A004352"),
		Make:          strPtr("Honda"),
		Model:         strPtr("Accord"),
		Year:          intPtr(2018),
		Method:        strPtr("HYBRID_APPROACH"),
		MinConfidence: floatPtr(70),
		UserID:        strPtr("user-1"),
		Since:         timePtr(since),
	}

	dataSQL, countSQL, args := q.ToSQL()

	assert.Len(t, args, 8)
	assert.Contains(t, dataSQL, "vin = $1")
	assert.Contains(t, dataSQL, "make ILIKE $2")
	assert.Contains(t, dataSQL, "model ILIKE $3")
	assert.Contains(t, dataSQL, "year = $4")
	assert.Contains(t, dataSQL, "valuation_method = $5")
	assert.Contains(t, dataSQL, "confidence_score >= $6")
	assert.Contains(t, dataSQL, "user_id = $7")
	assert.Contains(t, dataSQL, "created_at >= $8")
	assert.Contains(t, countSQL, "WHERE")
	assert.Equal(t, since, args[7])
}

func TestValuationQuery_ToSQL_OrderBy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		orderBy string
		want    string
	}{
		{"default", "", "ORDER BY created_at DESC"},
		{"value", "estimated_value", "ORDER BY estimated_value DESC"},
		{"confidence", "confidence", "ORDER BY confidence_score DESC"},
		{"unknown falls back", "vin; DROP TABLE valuations", "ORDER BY created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := &ValuationQuery{OrderBy: tt.orderBy}
			dataSQL, _, _ := q.ToSQL()
			assert.Contains(t, dataSQL, tt.want)
		})
	}
}

func TestValuationQuery_ToSQL_LimitBounds(t *testing.T) {
	t.Parallel()

	q := &ValuationQuery{Limit: 10_000, Offset: -5}
	dataSQL, _, _ := q.ToSQL()
	assert.Contains(t, dataSQL, "LIMIT 500 OFFSET 0")

	q = &ValuationQuery{Limit: -1, Offset: 20}
	dataSQL, _, _ = q.ToSQL()
	assert.Contains(t, dataSQL, "LIMIT 50 OFFSET 20")
}
