package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// SaveValuation persists a completed valuation together with the vehicle
// identity it was computed for.
func (s *PostgresStore) SaveValuation(
	ctx context.Context,
	req *domain.ValuationRequest,
	result *domain.ValuationResult,
	userID string,
) error {
	adjustments, err := json.Marshal(result.Adjustments)
	if err != nil {
		return fmt.Errorf("marshaling adjustments: %w", err)
	}
	insights, err := json.Marshal(result.MarketInsights)
	if err != nil {
		return fmt.Errorf("marshaling market insights: %w", err)
	}
	breakdown, err := json.Marshal(result.Confidence)
	if err != nil {
		return fmt.Errorf("marshaling confidence breakdown: %w", err)
	}

	args := pgx.NamedArgs{
		"id":                   result.ID,
		"vin":                  req.VIN,
		"make":                 req.Make,
		"model":                req.Model,
		"year":                 req.Year,
		"mileage":              req.Mileage,
		"condition":            string(req.Condition),
		"zip_code":             req.ZipCode,
		"user_id":              nullIfEmpty(userID),
		"estimated_value":      result.EstimatedValue,
		"price_low":            result.PriceRange[0],
		"price_high":           result.PriceRange[1],
		"confidence_score":     result.ConfidenceScore,
		"valuation_method":     result.ValuationMethod,
		"base_value":           result.BaseValuation.Value,
		"base_source":          result.BaseValuation.Source,
		"base_confidence":      result.BaseValuation.Confidence,
		"adjustments":          adjustments,
		"market_insights":      insights,
		"confidence_breakdown": breakdown,
		"data_sources":         result.Metadata.DataSourcesUsed,
		"processing_time_ms":   result.Metadata.ProcessingTime,
		"created_at":           result.Metadata.Timestamp,
	}

	if _, err := s.pool.Exec(ctx, queryInsertValuation, args); err != nil {
		return fmt.Errorf("inserting valuation: %w", err)
	}
	return nil
}

// GetValuation retrieves a valuation by its ID.
func (s *PostgresStore) GetValuation(
	ctx context.Context,
	id string,
) (*domain.ValuationResult, error) {
	result, err := scanValuation(s.pool.QueryRow(ctx, queryGetValuation, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting valuation %s: %w", id, err)
	}
	return result, nil
}

// ListValuations queries valuations with optional filters, returning results
// and total count.
func (s *PostgresStore) ListValuations(
	ctx context.Context,
	opts *ValuationQuery,
) ([]domain.ValuationResult, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting valuations: %w", err)
	}

	results, err := s.queryValuations(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// VINHistory returns the most recent valuations for one vehicle.
func (s *PostgresStore) VINHistory(
	ctx context.Context,
	vin string,
	limit int,
) ([]domain.ValuationResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return s.queryValuations(ctx, queryVINHistory, vin, limit)
}

// GetValuationStats summarizes the stored corpus.
func (s *PostgresStore) GetValuationStats(ctx context.Context) (*ValuationStats, error) {
	stats := &ValuationStats{}
	err := s.pool.QueryRow(ctx, queryValuationStats).Scan(
		&stats.Total, &stats.AvgValue, &stats.AvgConfidence, &stats.DistinctVINs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying valuation stats: %w", err)
	}
	return stats, nil
}

// DeleteValuationsBefore removes valuations created before the cutoff and
// returns how many were deleted.
func (s *PostgresStore) DeleteValuationsBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	tag, err := s.pool.Exec(ctx, queryDeleteValuationsBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting valuations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) queryValuations(
	ctx context.Context,
	sql string,
	args ...any,
) ([]domain.ValuationResult, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying valuations: %w", err)
	}
	defer rows.Close()

	var results []domain.ValuationResult
	for rows.Next() {
		result, err := scanValuation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning valuation: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating valuations: %w", err)
	}

	return results, nil
}

func scanValuation(row pgx.Row) (*domain.ValuationResult, error) {
	var (
		result     domain.ValuationResult
		vin        string
		mk         string
		model      string
		year       int
		mileage    int
		condition  string
		zipCode    string
		userID     string
		priceLow   float64
		priceHigh  float64
		adjRaw     []byte
		insightRaw []byte
		confRaw    []byte
	)

	err := row.Scan(
		&result.ID, &vin, &mk, &model, &year, &mileage, &condition, &zipCode,
		&userID, &result.EstimatedValue, &priceLow, &priceHigh,
		&result.ConfidenceScore, &result.ValuationMethod,
		&result.BaseValuation.Value, &result.BaseValuation.Source,
		&result.BaseValuation.Confidence,
		&adjRaw, &insightRaw, &confRaw,
		&result.Metadata.DataSourcesUsed, &result.Metadata.ProcessingTime,
		&result.Metadata.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	result.PriceRange = [2]float64{priceLow, priceHigh}
	result.Metadata.Version = resultSchemaVersion

	if err := json.Unmarshal(adjRaw, &result.Adjustments); err != nil {
		return nil, fmt.Errorf("unmarshaling adjustments: %w", err)
	}
	if err := json.Unmarshal(insightRaw, &result.MarketInsights); err != nil {
		return nil, fmt.Errorf("unmarshaling market insights: %w", err)
	}
	if err := json.Unmarshal(confRaw, &result.Confidence); err != nil {
		return nil, fmt.Errorf("unmarshaling confidence breakdown: %w", err)
	}

	return &result, nil
}

// resultSchemaVersion restores the metadata version stripped at write time.
const resultSchemaVersion = "2.0.0"

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
