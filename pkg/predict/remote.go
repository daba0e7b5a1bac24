package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gavincooper/vehicle-valuator/internal/metrics"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const remoteVersion = "3.0.0"

// RemotePredictor calls an external valuation model over HTTP. Any failure
// (transport, status, decode) falls back to the heuristic predictor so the
// pipeline's behavior is unchanged, only the confidence and model version
// differ.
type RemotePredictor struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	fallback   Predictor
	log        *slog.Logger
}

// RemoteOption configures a RemotePredictor.
type RemoteOption func(*RemotePredictor)

// WithRemoteHTTPClient overrides the HTTP client.
func WithRemoteHTTPClient(c *http.Client) RemoteOption {
	return func(p *RemotePredictor) { p.httpClient = c }
}

// WithRemoteFallback overrides the fallback predictor.
func WithRemoteFallback(fallback Predictor) RemoteOption {
	return func(p *RemotePredictor) { p.fallback = fallback }
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(p *RemotePredictor) { p.log = l }
}

// NewRemotePredictor creates a RemotePredictor for the given endpoint.
func NewRemotePredictor(endpoint, apiKey string, opts ...RemoteOption) *RemotePredictor {
	p := &RemotePredictor{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		fallback:   NewHeuristicPredictor(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type remoteRequest struct {
	Vehicle remoteVehicle `json:"vehicle"`
	Market  remoteMarket  `json:"market"`
}

type remoteVehicle struct {
	VIN       string `json:"vin"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Mileage   int    `json:"mileage"`
	Condition string `json:"condition"`
	Trim      string `json:"trim,omitempty"`
	BodyType  string `json:"body_type,omitempty"`
}

type remoteMarket struct {
	ZipCode         string  `json:"zip_code"`
	NationalAverage float64 `json:"national_average"`
	AveragePrice    float64 `json:"average_price"`
	TotalListings   int     `json:"total_listings"`
	DemandIndex     float64 `json:"demand_index"`
}

type remoteResponse struct {
	Prediction struct {
		Value      float64 `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"prediction"`
	Features []Feature `json:"features"`
}

// Predict calls the remote model, falling back to the local heuristic on
// any error. The error return is always nil; failures are logged.
func (p *RemotePredictor) Predict(ctx context.Context, req *domain.ValuationRequest, market *domain.MarketSnapshot) (*Prediction, error) {
	prediction, err := p.callRemote(ctx, req, market)
	if err != nil {
		metrics.PredictorFallbacksTotal.Inc()
		p.log.Warn("remote model unavailable, using heuristic fallback",
			slog.String("endpoint", p.endpoint),
			slog.String("error", err.Error()))
		return p.fallback.Predict(ctx, req, market)
	}
	return prediction, nil
}

func (p *RemotePredictor) callRemote(ctx context.Context, req *domain.ValuationRequest, market *domain.MarketSnapshot) (*Prediction, error) {
	body, err := json.Marshal(remoteRequest{
		Vehicle: remoteVehicle{
			VIN:       req.VIN,
			Make:      req.Make,
			Model:     req.Model,
			Year:      req.Year,
			Mileage:   req.Mileage,
			Condition: string(req.Condition),
			Trim:      req.Trim,
			BodyType:  req.BodyType,
		},
		Market: remoteMarket{
			ZipCode:         req.ZipCode,
			NationalAverage: market.NationalAverage,
			AveragePrice:    market.AveragePrice,
			TotalListings:   market.TotalListings,
			DemandIndex:     market.DemandIndex,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling remote model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote model returned status %d", resp.StatusCode)
	}

	var remote remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if remote.Prediction.Value <= 0 {
		return nil, fmt.Errorf("remote model returned non-positive value %f", remote.Prediction.Value)
	}

	confidence := remote.Prediction.Confidence
	if confidence <= 0 {
		confidence = 0.5
	}

	return &Prediction{
		Value:        remote.Prediction.Value,
		Confidence:   confidence,
		Features:     remote.Features,
		ModelVersion: remoteVersion,
	}, nil
}

// Info returns the model description.
func (p *RemotePredictor) Info() ModelInfo {
	return ModelInfo{
		Name:         "Cloud ML Vehicle Valuation Model",
		Version:      remoteVersion,
		Accuracy:     0.95,
		TrainingDate: "2024-07-15",
		Features: []string{
			"vehicle_features", "market_data", "historical_prices",
			"geographic_factors", "seasonal_trends", "economic_indicators",
		},
	}
}

// Ready reports whether the predictor is configured with an endpoint and key.
func (p *RemotePredictor) Ready() bool {
	return p.endpoint != "" && p.apiKey != ""
}
