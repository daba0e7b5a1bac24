package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gavincooper/vehicle-valuator/internal/metrics"
)

// Sink receives audit entries for external delivery. Delivery is
// best-effort: the trail never blocks a valuation on a sink.
type Sink interface {
	Deliver(ctx context.Context, entry *Entry) error
}

// WebhookSink posts entries as JSON to a configured URL.
type WebhookSink struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// WebhookOption configures a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithWebhookHTTPClient sets a custom HTTP client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSink) {
		s.client = c
	}
}

// WithWebhookHeaders adds static headers to every delivery, typically for
// authentication.
func WithWebhookHeaders(h map[string]string) WebhookOption {
	return func(s *WebhookSink) {
		s.headers = h
	}
}

// NewWebhookSink creates a WebhookSink for the given URL.
func NewWebhookSink(url string, opts ...WebhookOption) *WebhookSink {
	s := &WebhookSink{
		url:    url,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts the entry. Non-2xx responses are errors.
func (s *WebhookSink) Deliver(ctx context.Context, entry *Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("sending audit webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("audit webhook returned %d", resp.StatusCode)
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues("ok").Inc()
	return nil
}

// NoopSink discards all entries. Used when no webhook is configured.
type NoopSink struct{}

// NewNoopSink creates a NoopSink.
func NewNoopSink() *NoopSink { return &NoopSink{} }

// Deliver does nothing and returns nil.
func (s *NoopSink) Deliver(context.Context, *Entry) error { return nil }
