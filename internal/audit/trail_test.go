package audit

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testRequest() *domain.ValuationRequest {
	return &domain.ValuationRequest{
		VIN:     "1HGBH41JXMN109186",
		Make:    "Honda",
		Model:   "Accord",
		Year:    2021,
		ZipCode: "94105",
	}
}

func testResult() *domain.ValuationResult {
	return &domain.ValuationResult{
		ID:              "val-1",
		EstimatedValue:  18500,
		ConfidenceScore: 82,
		ValuationMethod: "HYBRID_APPROACH",
	}
}

func TestTrail_RecordAndFilter(t *testing.T) {
	t.Parallel()

	clock := testNow
	trail := NewTrail(WithTrailClock(func() time.Time { return clock }))

	trail.RecordStart(testRequest(), "req-1", "user-a")
	clock = clock.Add(time.Second)
	trail.RecordSuccess(testRequest(), testResult(), "req-1", "user-a", 150*time.Millisecond)
	clock = clock.Add(time.Second)
	trail.RecordError(testRequest(), errors.New("no sources"), "req-2", "user-b", 80*time.Millisecond)

	assert.Equal(t, 3, trail.Len())

	// newest first
	all := trail.Entries(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, EventError, all[0].Event)
	assert.Equal(t, EventStart, all[2].Event)

	byEvent := trail.Entries(Filter{Event: EventSuccess})
	require.Len(t, byEvent, 1)
	require.NotNil(t, byEvent[0].Result)
	assert.InDelta(t, 18500, byEvent[0].Result.EstimatedValue, 0.001)

	byUser := trail.Entries(Filter{UserID: "user-b"})
	require.Len(t, byUser, 1)
	assert.Equal(t, "no sources", byUser[0].Error)

	limited := trail.Entries(Filter{Limit: 2})
	assert.Len(t, limited, 2)
}

func TestTrail_BoundedSize(t *testing.T) {
	t.Parallel()

	trail := NewTrail(WithMaxEntries(5), WithTrailClock(func() time.Time { return testNow }))

	for i := 0; i < 10; i++ {
		req := testRequest()
		req.VIN = fmt.Sprintf("VIN%014d", i)
		trail.RecordStart(req, "req", "")
	}

	assert.Equal(t, 5, trail.Len())

	// the oldest entries were dropped
	entries := trail.Entries(Filter{})
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Vehicle.VIN, "VIN00000000000005")
	}
}

func TestTrail_Metrics(t *testing.T) {
	t.Parallel()

	trail := NewTrail(WithTrailClock(func() time.Time { return testNow }))

	trail.RecordSuccess(testRequest(), testResult(), "r1", "", 100*time.Millisecond)
	trail.RecordSuccess(testRequest(), &domain.ValuationResult{
		ID: "val-2", EstimatedValue: 22000, ConfidenceScore: 90, ValuationMethod: "MARKET_DATA_PRIMARY",
	}, "r2", "", 300*time.Millisecond)
	trail.RecordError(testRequest(), errors.New("boom"), "r3", "", 50*time.Millisecond)

	m := trail.Metrics()

	assert.Equal(t, 3, m.TotalValuations)
	assert.InDelta(t, 200, m.AverageProcessingTime, 0.001)
	assert.InDelta(t, 66.666, m.SuccessRate, 0.01)
	assert.InDelta(t, 33.333, m.ErrorRate, 0.01)
	assert.InDelta(t, 86, m.AverageConfidenceScore, 0.001)

	require.Len(t, m.DailyStats, 1)
	assert.Equal(t, "2026-06-15", m.DailyStats[0].Date)
	assert.Equal(t, 3, m.DailyStats[0].Valuations)
	assert.InDelta(t, 66.666, m.DailyStats[0].SuccessRate, 0.01)
}

func TestTrail_MetricsEmpty(t *testing.T) {
	t.Parallel()

	trail := NewTrail(WithTrailClock(func() time.Time { return testNow }))
	m := trail.Metrics()

	assert.Zero(t, m.TotalValuations)
	assert.Zero(t, m.SuccessRate)
	assert.Empty(t, m.DailyStats)
}

func TestTrail_Cleanup(t *testing.T) {
	t.Parallel()

	clock := testNow.AddDate(0, 0, -45)
	trail := NewTrail(WithTrailClock(func() time.Time { return clock }))

	trail.RecordStart(testRequest(), "old", "")
	clock = testNow
	trail.RecordStart(testRequest(), "recent", "")

	removed := trail.Cleanup(30)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, trail.Len())
	assert.Equal(t, "recent", trail.Entries(Filter{})[0].RequestID)
}

func TestTrail_ExportCSV(t *testing.T) {
	t.Parallel()

	trail := NewTrail(WithTrailClock(func() time.Time { return testNow }))
	trail.RecordSuccess(testRequest(), testResult(), "r1", "user-a", 150*time.Millisecond)

	data, err := trail.ExportCSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,timestamp,event,vin,estimated_value,confidence_score,processing_time_ms,user_id", lines[0])
	assert.Contains(t, lines[1], "valuation_success")
	assert.Contains(t, lines[1], "1HGBH41JXMN109186")
	assert.Contains(t, lines[1], "18500.00")
}

func TestTrail_ExportJSON(t *testing.T) {
	t.Parallel()

	trail := NewTrail(WithTrailClock(func() time.Time { return testNow }))
	trail.RecordStart(testRequest(), "r1", "")

	data, err := trail.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valuation_start"`)
}

func TestTrail_WebhookDelivery(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	trail := NewTrail(
		WithSink(NewWebhookSink(srv.URL)),
		WithTrailClock(func() time.Time { return testNow }))

	trail.RecordSuccess(testRequest(), testResult(), "r1", "", time.Millisecond)

	assert.Eventually(t, func() bool {
		return delivered.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTrail_WebhookFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	trail := NewTrail(
		WithSink(NewWebhookSink(srv.URL)),
		WithTrailClock(func() time.Time { return testNow }))

	// recording must succeed even though delivery fails
	trail.RecordError(testRequest(), errors.New("boom"), "r1", "", time.Millisecond)
	assert.Equal(t, 1, trail.Len())
}
