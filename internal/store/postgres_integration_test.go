//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gavincooper/vehicle-valuator/internal/store"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("vvt_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testRequest(vin string) *domain.ValuationRequest {
	return &domain.ValuationRequest{
		VIN:       vin,
		Make:      "Honda",
		Model:     "Accord",
		Year:      2018,
		BodyType:  "sedan",
		Mileage:   72000,
		Condition: domain.ConditionGood,
		ZipCode:   "94103",
	}
}

func testResult(id string, value float64) *domain.ValuationResult {
	return &domain.ValuationResult{
		ID:              id,
		EstimatedValue:  value,
		PriceRange:      [2]float64{value * 0.93, value * 1.07},
		ConfidenceScore: 78.5,
		ValuationMethod: "HYBRID_APPROACH",
		BaseValuation: domain.BaseValuation{
			Value:      value * 1.02,
			Source:     "ML_MODEL",
			Confidence: 0.66,
		},
		Adjustments: []domain.PriceAdjustment{
			{
				Factor:      "Vehicle Condition",
				Impact:      -450,
				Description: "Good condition",
				Confidence:  0.8,
				Category:    domain.CategoryCondition,
			},
		},
		MarketInsights: domain.MarketInsights{
			AvgMarketplacePrice: value,
			ListingCount:        12,
			CompetitivePosition: domain.PositionAtMarket,
		},
		Confidence: domain.ConfidenceBreakdown{
			OverallConfidence: 78.5,
			Factors:           []domain.ConfidenceFactor{},
			Recommendations:   []string{},
		},
		Metadata: domain.ValuationMetadata{
			Timestamp:       time.Now().UTC().Truncate(time.Microsecond),
			ProcessingTime:  42,
			Version:         "2.0.0",
			DataSourcesUsed: []string{"carsdirect", "static"},
		},
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_SaveAndGetValuation(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	req := testRequest("1HGCM82633A004352")
	result := testResult("val_abc123", 23500)
	require.NoError(t, s.SaveValuation(ctx, req, result, "user-1"))

	got, err := s.GetValuation(ctx, "val_abc123")
	require.NoError(t, err)

	assert.Equal(t, result.EstimatedValue, got.EstimatedValue)
	assert.Equal(t, result.PriceRange, got.PriceRange)
	assert.Equal(t, result.ConfidenceScore, got.ConfidenceScore)
	assert.Equal(t, result.ValuationMethod, got.ValuationMethod)
	assert.Equal(t, result.BaseValuation, got.BaseValuation)
	assert.Equal(t, result.Adjustments, got.Adjustments)
	assert.Equal(t, result.MarketInsights, got.MarketInsights)
	assert.Equal(t, result.Metadata.DataSourcesUsed, got.Metadata.DataSourcesUsed)
}

func TestPostgresStore_GetValuation_NotFound(t *testing.T) {
	s := setupPostgres(t)

	_, err := s.GetValuation(context.Background(), "val_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresStore_ListValuations(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	for i := range 5 {
		vin := fmt.Sprintf("1HGCM82633A00%04d", i)
		require.NoError(t, s.SaveValuation(
			ctx, testRequest(vin), testResult(fmt.Sprintf("val_%d", i), 20000+float64(i)*500), "",
		))
	}

	results, total, err := s.ListValuations(ctx, &store.ValuationQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, results, 5)

	vin := "1HGCM82633A000002"
	results, total, err = s.ListValuations(ctx, &store.ValuationQuery{VIN: &vin})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "val_2", results[0].ID)
}

func TestPostgresStore_VINHistory(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	req := testRequest("1HGCM82633A004352")
	for i := range 3 {
		result := testResult(fmt.Sprintf("val_h%d", i), 23000-float64(i)*200)
		result.Metadata.Timestamp = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveValuation(ctx, req, result, ""))
	}

	history, err := s.VINHistory(ctx, "1HGCM82633A004352", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Newest first.
	assert.Equal(t, "val_h2", history[0].ID)
}

func TestPostgresStore_Stats(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.SaveValuation(ctx, testRequest("1HGCM82633A004352"), testResult("val_s1", 20000), ""))
	require.NoError(t, s.SaveValuation(ctx, testRequest("1HGCM82633A004352"), testResult("val_s2", 22000), ""))

	stats, err := s.GetValuationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.DistinctVINs)
	assert.InDelta(t, 21000, stats.AvgValue, 0.01)
}

func TestPostgresStore_DeleteValuationsBefore(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	old := testResult("val_old", 20000)
	old.Metadata.Timestamp = time.Now().UTC().AddDate(0, 0, -60)
	require.NoError(t, s.SaveValuation(ctx, testRequest("1HGCM82633A004352"), old, ""))
	require.NoError(t, s.SaveValuation(ctx, testRequest("1HGCM82633A004353"), testResult("val_new", 21000), ""))

	removed, err := s.DeleteValuationsBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.GetValuation(ctx, "val_old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetValuation(ctx, "val_new")
	assert.NoError(t, err)
}
