// Package engine orchestrates the valuation pipeline: market data
// aggregation, base prediction, component analysis, adjustment composition,
// and confidence scoring.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/marketdata"
	"github.com/gavincooper/vehicle-valuator/internal/metrics"
	"github.com/gavincooper/vehicle-valuator/pkg/adjust"
	"github.com/gavincooper/vehicle-valuator/pkg/analyze"
	"github.com/gavincooper/vehicle-valuator/pkg/confidence"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	"github.com/gavincooper/vehicle-valuator/pkg/predict"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Result schema version carried in every valuation's metadata.
const resultVersion = "2.0.0"

const defaultBatchConcurrency = 4

// Valuation method labels.
const (
	MethodMarketDataPrimary = "MARKET_DATA_PRIMARY"
	MethodModelPrimary      = "ML_MODEL_PRIMARY"
	MethodHybrid            = "HYBRID_APPROACH"
	MethodError             = "ERROR"
)

// ErrInvalidRequest wraps all request validation failures.
var ErrInvalidRequest = errors.New("invalid valuation request")

var zipCodeRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// RequestMeta carries per-request identity for the audit trail.
type RequestMeta struct {
	RequestID string
	UserID    string
}

// Coordinator runs the valuation pipeline with injected components.
type Coordinator struct {
	market    *marketdata.Aggregator
	predictor predict.Predictor
	condition *analyze.ConditionAnalyzer
	mileage   *analyze.MileageAnalyzer
	marketAn  *analyze.MarketAnalyzer
	composer  *adjust.Composer
	scorer    *confidence.Scorer
	trail     *audit.Trail

	log              *slog.Logger
	now              func() time.Time
	batchConcurrency int
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithBatchConcurrency bounds how many valuations run at once in a batch.
func WithBatchConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// NewCoordinator creates a Coordinator. The market aggregator, predictor,
// and audit trail are required; analyzers are built internally.
func NewCoordinator(
	market *marketdata.Aggregator,
	predictor predict.Predictor,
	trail *audit.Trail,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		market:           market,
		predictor:        predictor,
		trail:            trail,
		log:              logger.Nop(),
		now:              time.Now,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.condition = analyze.NewConditionAnalyzer(
		analyze.WithConditionLogger(c.log),
		analyze.WithConditionClock(c.now),
	)
	c.mileage = analyze.NewMileageAnalyzer(
		analyze.WithMileageLogger(c.log),
		analyze.WithMileageClock(c.now),
	)
	c.marketAn = analyze.NewMarketAnalyzer(
		analyze.WithMarketLogger(c.log),
		analyze.WithMarketClock(c.now),
	)
	c.composer = adjust.NewComposer(adjust.WithComposerLogger(c.log))
	c.scorer = confidence.NewScorer(confidence.WithScorerLogger(c.log))
	return c
}

// ValidateRequest checks the request against hard input bounds. All
// violations are reported together, wrapped under ErrInvalidRequest.
func ValidateRequest(req *domain.ValuationRequest, now time.Time) error {
	var errs []error

	if len(req.VIN) != 17 {
		errs = append(errs, fmt.Errorf("vin must be 17 characters (got %d)", len(req.VIN)))
	}
	if req.Year < 1900 || req.Year > now.Year()+1 {
		errs = append(errs, fmt.Errorf("year must be between 1900 and %d (got %d)", now.Year()+1, req.Year))
	}
	if req.Mileage <= 0 || req.Mileage > 1_000_000 {
		errs = append(errs, fmt.Errorf("mileage must be between 1 and 1000000 (got %d)", req.Mileage))
	}
	if !zipCodeRe.MatchString(req.ZipCode) {
		errs = append(errs, fmt.Errorf("zip_code %q is not a valid US ZIP code", req.ZipCode))
	}
	if !domain.ValidCondition(req.Condition) {
		errs = append(errs, fmt.Errorf("condition %q is not recognized", req.Condition))
	}

	if joined := errors.Join(errs...); joined != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, joined)
	}
	return nil
}

// Valuate runs the full pipeline for one request.
func (c *Coordinator) Valuate(
	ctx context.Context,
	req *domain.ValuationRequest,
	meta RequestMeta,
) (*domain.ValuationResult, error) {
	start := c.now()
	c.trail.RecordStart(req, meta.RequestID, meta.UserID)

	result, err := c.valuate(ctx, req)
	elapsed := c.now().Sub(start)

	if err != nil {
		c.trail.RecordError(req, err, meta.RequestID, meta.UserID, elapsed)
		metrics.ValuationsTotal.WithLabelValues("error").Inc()
		c.log.Error("valuation failed", "vin", req.VIN, "error", err)
		return nil, err
	}

	result.Metadata.ProcessingTime = float64(elapsed.Milliseconds())

	c.trail.RecordSuccess(req, result, meta.RequestID, meta.UserID, elapsed)
	metrics.ValuationsTotal.WithLabelValues("success").Inc()
	metrics.ValuationDuration.Observe(elapsed.Seconds())
	metrics.ConfidenceDistribution.Observe(result.ConfidenceScore)

	c.log.Info("valuation complete",
		"vin", req.VIN,
		"estimated_value", result.EstimatedValue,
		"confidence", result.ConfidenceScore,
		"method", result.ValuationMethod,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

func (c *Coordinator) valuate(
	ctx context.Context,
	req *domain.ValuationRequest,
) (*domain.ValuationResult, error) {
	if err := ValidateRequest(req, c.now()); err != nil {
		return nil, err
	}

	snapshot, err := c.market.Fetch(ctx, marketdata.Query{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Mileage:      req.Mileage,
		ZipCode:      req.ZipCode,
		SearchRadius: req.SearchRadius,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching market data: %w", err)
	}

	prediction, err := c.predictor.Predict(ctx, req, snapshot)
	if err != nil {
		return nil, fmt.Errorf("predicting base value: %w", err)
	}

	var (
		condRes analyze.ConditionResult
		milRes  analyze.MileageResult
		mktRes  analyze.MarketResult
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		condRes = c.condition.Analyze(req)
		return nil
	})
	g.Go(func() error {
		milRes = c.mileage.Analyze(req.Year, req.Mileage, req.BodyType)
		return nil
	})
	g.Go(func() error {
		mktRes = c.marketAn.Analyze(snapshot)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	adjustments := c.composer.Compose(adjust.Input{
		BaseValue:         prediction.Value,
		Condition:         &condRes,
		Mileage:           &milRes,
		Market:            &mktRes,
		Modifications:     req.Modifications,
		AdditionalFactors: req.AdditionalFactors,
	})
	finalValue := math.Round(adjust.Apply(prediction.Value, adjustments))

	score, breakdown := c.scorer.Score(confidence.Input{
		DataQuality:            snapshot.Quality,
		MarketDataAvailability: snapshot.Availability,
		PredictorConfidence:    prediction.Confidence,
		Adjustments:            adjustments,
	})

	position := competitivePosition(finalValue, snapshot.AveragePrice)

	return &domain.ValuationResult{
		ID:              "val_" + uuid.NewString(),
		EstimatedValue:  finalValue,
		PriceRange:      priceRange(finalValue, score),
		ConfidenceScore: score,
		ValuationMethod: valuationMethod(snapshot, prediction),
		BaseValuation: domain.BaseValuation{
			Value:      prediction.Value,
			Source:     "ML_MODEL",
			Confidence: prediction.Confidence,
		},
		Adjustments: adjustments,
		MarketInsights: domain.MarketInsights{
			AvgMarketplacePrice: snapshot.AveragePrice,
			ListingCount:        snapshot.TotalListings,
			PriceVariance:       snapshot.PriceVariance,
			DemandIndex:         snapshot.DemandIndex,
			TimeOnMarket:        snapshot.AverageTimeOnMarket,
			CompetitivePosition: position,
			PriceRecommendation: priceRecommendation(position),
		},
		Confidence: breakdown,
		Metadata: domain.ValuationMetadata{
			Timestamp:       c.now(),
			Version:         resultVersion,
			DataSourcesUsed: snapshot.SourcesUsed,
		},
	}, nil
}

// BatchValuate runs every request and settles each one independently. The
// returned slice matches the input in length and order; failed requests
// yield an error placeholder instead of aborting the batch.
func (c *Coordinator) BatchValuate(
	ctx context.Context,
	reqs []*domain.ValuationRequest,
	meta RequestMeta,
) []*domain.ValuationResult {
	metrics.BatchSize.Observe(float64(len(reqs)))

	results := make([]*domain.ValuationResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := c.Valuate(gctx, req, meta)
			if err != nil {
				result = c.errorResult(i, err)
			}
			results[i] = result
			return nil
		})
	}
	// Goroutines never return errors; failures become placeholders.
	_ = g.Wait()

	return results
}

func (c *Coordinator) errorResult(index int, err error) *domain.ValuationResult {
	return &domain.ValuationResult{
		ID:              fmt.Sprintf("error_%d", index),
		ValuationMethod: MethodError,
		BaseValuation:   domain.BaseValuation{Source: "ML_MODEL"},
		Adjustments:     []domain.PriceAdjustment{},
		MarketInsights: domain.MarketInsights{
			CompetitivePosition: domain.PositionAtMarket,
		},
		Confidence: domain.ConfidenceBreakdown{
			Factors:         []domain.ConfidenceFactor{},
			Recommendations: []string{"Error: " + err.Error()},
		},
		Metadata: domain.ValuationMetadata{
			Timestamp:       c.now(),
			Version:         resultVersion,
			DataSourcesUsed: []string{},
		},
	}
}

// AuditTrail exposes the trail for the API layer.
func (c *Coordinator) AuditTrail() *audit.Trail {
	return c.trail
}

// PredictorInfo describes the active base value predictor.
func (c *Coordinator) PredictorInfo() predict.ModelInfo {
	return c.predictor.Info()
}

// PredictorReady reports whether the base value predictor can serve requests.
func (c *Coordinator) PredictorReady() bool {
	return c.predictor.Ready()
}

func priceRange(value, score float64) [2]float64 {
	variance := math.Max(0.05, (100-score)/100*0.2)
	return [2]float64{
		math.Round(value * (1 - variance)),
		math.Round(value * (1 + variance)),
	}
}

func valuationMethod(snapshot *domain.MarketSnapshot, prediction *predict.Prediction) string {
	switch {
	case snapshot.TotalListings > 10 && snapshot.Quality > 0.8:
		return MethodMarketDataPrimary
	case prediction.Confidence > 0.7:
		return MethodModelPrimary
	default:
		return MethodHybrid
	}
}

func competitivePosition(value, marketAverage float64) domain.CompetitivePosition {
	if marketAverage <= 0 {
		return domain.PositionAtMarket
	}
	diff := (value - marketAverage) / marketAverage
	switch {
	case diff < -0.05:
		return domain.PositionBelowMarket
	case diff > 0.05:
		return domain.PositionAboveMarket
	default:
		return domain.PositionAtMarket
	}
}

func priceRecommendation(position domain.CompetitivePosition) string {
	switch position {
	case domain.PositionBelowMarket:
		return "This vehicle is priced competitively below market average, likely to sell quickly"
	case domain.PositionAboveMarket:
		return "This vehicle is priced above market average, may take longer to sell"
	default:
		return "This vehicle is priced at market average, good balance of value and marketability"
	}
}
