package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, ValuationsTotal)
	assert.NotNil(t, ValuationDuration)
	assert.NotNil(t, BatchSize)
	assert.NotNil(t, ConfidenceDistribution)
	assert.NotNil(t, SourceFetchesTotal)
	assert.NotNil(t, SourceFetchDuration)
	assert.NotNil(t, SourceDailyUsage)
	assert.NotNil(t, PredictorFallbacksTotal)
	assert.NotNil(t, AuditEntriesTotal)
	assert.NotNil(t, WebhookDeliveriesTotal)
}
