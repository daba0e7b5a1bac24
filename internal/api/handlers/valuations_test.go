package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavincooper/vehicle-valuator/internal/api/handlers"
	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/engine"
	"github.com/gavincooper/vehicle-valuator/internal/marketdata"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/predict"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakeStore is a test double for store.Store backed by function fields.
// Nil fields return zero values.
type fakeStore struct {
	saveFn    func(context.Context, *domain.ValuationRequest, *domain.ValuationResult, string) error
	getFn     func(context.Context, string) (*domain.ValuationResult, error)
	listFn    func(context.Context, *store.ValuationQuery) ([]domain.ValuationResult, int, error)
	historyFn func(context.Context, string, int) ([]domain.ValuationResult, error)
	statsFn   func(context.Context) (*store.ValuationStats, error)
	pingFn    func(context.Context) error
}

func (f *fakeStore) SaveValuation(ctx context.Context, req *domain.ValuationRequest, result *domain.ValuationResult, userID string) error {
	if f.saveFn == nil {
		return nil
	}
	return f.saveFn(ctx, req, result, userID)
}

func (f *fakeStore) GetValuation(ctx context.Context, id string) (*domain.ValuationResult, error) {
	if f.getFn == nil {
		return nil, store.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeStore) ListValuations(ctx context.Context, opts *store.ValuationQuery) ([]domain.ValuationResult, int, error) {
	if f.listFn == nil {
		return nil, 0, nil
	}
	return f.listFn(ctx, opts)
}

func (f *fakeStore) VINHistory(ctx context.Context, vin string, limit int) ([]domain.ValuationResult, error) {
	if f.historyFn == nil {
		return nil, nil
	}
	return f.historyFn(ctx, vin, limit)
}

func (f *fakeStore) GetValuationStats(ctx context.Context) (*store.ValuationStats, error) {
	if f.statsFn == nil {
		return &store.ValuationStats{}, nil
	}
	return f.statsFn(ctx)
}

func (f *fakeStore) DeleteValuationsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn == nil {
		return nil
	}
	return f.pingFn(ctx)
}

func newTestCoordinator() *engine.Coordinator {
	market := marketdata.NewAggregator(
		[]marketdata.Source{marketdata.NewStaticSourceWithClock(fixedClock)},
	)
	trail := audit.NewTrail(audit.WithTrailClock(fixedClock))
	return engine.NewCoordinator(
		market,
		predict.NewHeuristicPredictor(predict.WithHeuristicClock(fixedClock)),
		trail,
		engine.WithClock(fixedClock),
	)
}

func requestBody() map[string]any {
	return map[string]any{
		"vin":       "1HGCM82633A004352",
		"make":      "Honda",
		"model":     "Accord",
		"year":      2018,
		"body_type": "sedan",
		"mileage":   72000,
		"condition": "good",
		"zip_code":  "94103",
	}
}

func sampleResult(id string) domain.ValuationResult {
	return domain.ValuationResult{
		ID:              id,
		EstimatedValue:  21000,
		PriceRange:      [2]float64{19950, 22050},
		ConfidenceScore: 82,
		ValuationMethod: "HYBRID_APPROACH",
		Metadata: domain.ValuationMetadata{
			Timestamp: testNow,
			Version:   "2.0.0",
		},
	}
}

func TestCreateValuation_Success(t *testing.T) {
	t.Parallel()

	var savedID, savedUser string
	fs := &fakeStore{
		saveFn: func(_ context.Context, _ *domain.ValuationRequest, result *domain.ValuationResult, userID string) error {
			savedID = result.ID
			savedUser = userID
			return nil
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Post("/api/v1/valuations",
		"X-User-ID: analyst-7",
		requestBody(),
	)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":"val_`)
	assert.Contains(t, resp.Body.String(), `"estimated_value"`)
	assert.Contains(t, resp.Body.String(), `"version":"2.0.0"`)
	assert.Contains(t, savedID, "val_")
	assert.Equal(t, "analyst-7", savedUser)
}

func TestCreateValuation_InvalidRequest(t *testing.T) {
	t.Parallel()

	h := handlers.NewValuationsHandler(newTestCoordinator(), &fakeStore{}, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	body := requestBody()
	body["zip_code"] = "not-a-zip"

	resp := api.Post("/api/v1/valuations", body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "zip")
}

func TestCreateValuation_StoreFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		saveFn: func(context.Context, *domain.ValuationRequest, *domain.ValuationResult, string) error {
			return assert.AnError
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Post("/api/v1/valuations", requestBody())
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCreateValuation_NoStore(t *testing.T) {
	t.Parallel()

	h := handlers.NewValuationsHandler(newTestCoordinator(), nil, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Post("/api/v1/valuations", requestBody())
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestBatchValuation_SettlesPerVehicle(t *testing.T) {
	t.Parallel()

	var saves int
	fs := &fakeStore{
		saveFn: func(context.Context, *domain.ValuationRequest, *domain.ValuationResult, string) error {
			saves++
			return nil
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	bad := requestBody()
	bad["zip_code"] = "bogus"

	resp := api.Post("/api/v1/valuations/batch", map[string]any{
		"vehicles": []map[string]any{requestBody(), bad, requestBody()},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"error_1"`)
	assert.Contains(t, resp.Body.String(), `"val_`)
	assert.Equal(t, 2, saves)
}

func TestGetValuation_Found(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		getFn: func(_ context.Context, id string) (*domain.ValuationResult, error) {
			result := sampleResult(id)
			return &result, nil
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/valuations/val_abc")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":"val_abc"`)
}

func TestGetValuation_NotFound(t *testing.T) {
	t.Parallel()

	h := handlers.NewValuationsHandler(newTestCoordinator(), &fakeStore{}, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/valuations/val_missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetValuation_NoStore(t *testing.T) {
	t.Parallel()

	h := handlers.NewValuationsHandler(newTestCoordinator(), nil, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/valuations/val_abc")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestListValuations_MapsFilters(t *testing.T) {
	t.Parallel()

	var captured *store.ValuationQuery
	fs := &fakeStore{
		listFn: func(_ context.Context, q *store.ValuationQuery) ([]domain.ValuationResult, int, error) {
			captured = q
			return []domain.ValuationResult{sampleResult("val_1")}, 1, nil
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/valuations?vin=1HGCM82633A004352&make=Honda&year=2018&min_confidence=70&limit=10&offset=20&order_by=confidence")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)

	require.NotNil(t, captured)
	require.NotNil(t, captured.VIN)
	assert.Equal(t, "1HGCM82633A004352", *captured.VIN)
	require.NotNil(t, captured.Make)
	assert.Equal(t, "Honda", *captured.Make)
	require.NotNil(t, captured.Year)
	assert.Equal(t, 2018, *captured.Year)
	require.NotNil(t, captured.MinConfidence)
	assert.InDelta(t, 70.0, *captured.MinConfidence, 0.001)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 20, captured.Offset)
	assert.Equal(t, "confidence", captured.OrderBy)
}

func TestListValuations_StoreError(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		listFn: func(context.Context, *store.ValuationQuery) ([]domain.ValuationResult, int, error) {
			return nil, 0, assert.AnError
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/valuations")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "valuation query failed")
}

func TestVINHistory_Success(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		historyFn: func(_ context.Context, vin string, _ int) ([]domain.ValuationResult, error) {
			return []domain.ValuationResult{sampleResult("val_h2"), sampleResult("val_h1")}, nil
		},
	}
	h := handlers.NewValuationsHandler(newTestCoordinator(), fs, nil)

	_, api := humatest.New(t)
	handlers.RegisterValuationRoutes(api, h)

	resp := api.Get("/api/v1/vehicles/1HGCM82633A004352/history")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"vin":"1HGCM82633A004352"`)
	assert.Contains(t, resp.Body.String(), "val_h2")
}
