// Package predict provides pluggable base-value predictors. The heuristic
// predictor is always available; remote predictors degrade to it
// transparently so a valuation never fails for lack of a model.
package predict

import (
	"context"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Feature is one named model input with its relative importance.
type Feature struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// Prediction is a predictor's unadjusted dollar estimate.
type Prediction struct {
	Value        float64   `json:"value"`
	Confidence   float64   `json:"confidence"` // 0.1-0.95
	Features     []Feature `json:"features"`
	ModelVersion string    `json:"model_version"`
}

// ModelInfo describes a predictor for diagnostics and audit.
type ModelInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Accuracy     float64  `json:"accuracy"`
	TrainingDate string   `json:"training_date"`
	Features     []string `json:"features"`
}

// Predictor produces a base valuation from a request and its market
// snapshot. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, req *domain.ValuationRequest, market *domain.MarketSnapshot) (*Prediction, error)
	Info() ModelInfo
	Ready() bool
}
