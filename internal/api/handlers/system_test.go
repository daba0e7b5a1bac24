package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavincooper/vehicle-valuator/internal/api/handlers"
	"github.com/gavincooper/vehicle-valuator/internal/store"
)

func TestPredictorInfo(t *testing.T) {
	t.Parallel()

	h := handlers.NewSystemHandler(newTestCoordinator(), &fakeStore{})

	_, api := humatest.New(t)
	handlers.RegisterSystemRoutes(api, h)

	resp := api.Get("/api/v1/predictor")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"ready":true`)
	assert.Contains(t, resp.Body.String(), `"name"`)
	assert.Contains(t, resp.Body.String(), `"version"`)
}

func TestStats_Success(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		statsFn: func(context.Context) (*store.ValuationStats, error) {
			return &store.ValuationStats{
				Total:         12,
				AvgValue:      18500,
				AvgConfidence: 78.5,
				DistinctVINs:  9,
			}, nil
		},
	}
	h := handlers.NewSystemHandler(newTestCoordinator(), fs)

	_, api := humatest.New(t)
	handlers.RegisterSystemRoutes(api, h)

	resp := api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":12`)
	assert.Contains(t, resp.Body.String(), `"distinct_vins":9`)
}

func TestStats_StoreError(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		statsFn: func(context.Context) (*store.ValuationStats, error) {
			return nil, assert.AnError
		},
	}
	h := handlers.NewSystemHandler(newTestCoordinator(), fs)

	_, api := humatest.New(t)
	handlers.RegisterSystemRoutes(api, h)

	resp := api.Get("/api/v1/stats")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "stats query failed")
}

func TestStats_NoStore(t *testing.T) {
	t.Parallel()

	h := handlers.NewSystemHandler(newTestCoordinator(), nil)

	_, api := humatest.New(t)
	handlers.RegisterSystemRoutes(api, h)

	resp := api.Get("/api/v1/stats")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
