// Package audit keeps a bounded in-memory trail of valuation lifecycle
// events, derives performance metrics from it, and forwards entries to an
// optional external sink.
package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gavincooper/vehicle-valuator/internal/metrics"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// Event identifies the lifecycle stage an entry records.
type Event string

// Audit events.
const (
	EventStart   Event = "valuation_start"
	EventSuccess Event = "valuation_success"
	EventError   Event = "valuation_error"
)

const (
	defaultMaxEntries   = 10000
	defaultRetention    = 30 // days
	sinkDeliveryTimeout = 5 * time.Second
)

// VehicleRef is the minimal vehicle identity captured per entry.
type VehicleRef struct {
	VIN     string `json:"vin"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	ZipCode string `json:"zip_code,omitempty"`
}

// ResultRef is the minimal result summary captured per entry.
type ResultRef struct {
	ID              string  `json:"id"`
	EstimatedValue  float64 `json:"estimated_value"`
	ConfidenceScore float64 `json:"confidence_score"`
	ValuationMethod string  `json:"valuation_method"`
}

// Entry is one audit record.
type Entry struct {
	ID               string     `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	Event            Event      `json:"event"`
	Vehicle          VehicleRef `json:"vehicle"`
	Result           *ResultRef `json:"result,omitempty"`
	Error            string     `json:"error,omitempty"`
	RequestID        string     `json:"request_id,omitempty"`
	UserID           string     `json:"user_id,omitempty"`
	ProcessingTimeMS float64    `json:"processing_time_ms,omitempty"`
}

// Filter narrows the entries returned by Entries. Zero values match
// everything.
type Filter struct {
	Event    Event
	UserID   string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

// PerformanceMetrics is derived from the trail on demand.
type PerformanceMetrics struct {
	TotalValuations        int          `json:"total_valuations"`
	AverageProcessingTime  float64      `json:"average_processing_time_ms"`
	SuccessRate            float64      `json:"success_rate"`
	ErrorRate              float64      `json:"error_rate"`
	AverageConfidenceScore float64      `json:"average_confidence_score"`
	LastUpdated            time.Time    `json:"last_updated"`
	DailyStats             []DailyStats `json:"daily_stats"`
}

// DailyStats aggregates one day's valuation outcomes.
type DailyStats struct {
	Date              string  `json:"date"` // 2006-01-02
	Valuations        int     `json:"valuations"`
	AvgProcessingTime float64 `json:"avg_processing_time_ms"`
	SuccessRate       float64 `json:"success_rate"`
	AvgConfidence     float64 `json:"avg_confidence"`
}

// Trail is a bounded ring of audit entries. Safe for concurrent use.
type Trail struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	sink       Sink
	log        *slog.Logger
	now        func() time.Time
}

// TrailOption configures a Trail.
type TrailOption func(*Trail)

// WithMaxEntries bounds the in-memory trail size.
func WithMaxEntries(n int) TrailOption {
	return func(t *Trail) { t.maxEntries = n }
}

// WithSink sets the external delivery sink.
func WithSink(s Sink) TrailOption {
	return func(t *Trail) { t.sink = s }
}

// WithTrailLogger sets the logger.
func WithTrailLogger(l *slog.Logger) TrailOption {
	return func(t *Trail) { t.log = l }
}

// WithTrailClock overrides the clock, for tests.
func WithTrailClock(now func() time.Time) TrailOption {
	return func(t *Trail) { t.now = now }
}

// NewTrail creates a Trail.
func NewTrail(opts ...TrailOption) *Trail {
	t := &Trail{
		maxEntries: defaultMaxEntries,
		sink:       NewNoopSink(),
		log:        logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordStart records the beginning of a valuation.
func (t *Trail) RecordStart(req *domain.ValuationRequest, requestID, userID string) {
	t.add(Entry{
		ID:        newEntryID(),
		Timestamp: t.now(),
		Event:     EventStart,
		Vehicle: VehicleRef{
			VIN:     req.VIN,
			Make:    req.Make,
			Model:   req.Model,
			Year:    req.Year,
			ZipCode: req.ZipCode,
		},
		RequestID: requestID,
		UserID:    userID,
	})
}

// RecordSuccess records a completed valuation and forwards the entry to the
// sink asynchronously.
func (t *Trail) RecordSuccess(req *domain.ValuationRequest, result *domain.ValuationResult, requestID, userID string, elapsed time.Duration) {
	entry := Entry{
		ID:        newEntryID(),
		Timestamp: t.now(),
		Event:     EventSuccess,
		Vehicle: VehicleRef{
			VIN:   req.VIN,
			Make:  req.Make,
			Model: req.Model,
			Year:  req.Year,
		},
		Result: &ResultRef{
			ID:              result.ID,
			EstimatedValue:  result.EstimatedValue,
			ConfidenceScore: result.ConfidenceScore,
			ValuationMethod: result.ValuationMethod,
		},
		RequestID:        requestID,
		UserID:           userID,
		ProcessingTimeMS: float64(elapsed.Milliseconds()),
	}
	t.add(entry)
	t.deliver(entry)
}

// RecordError records a failed valuation and forwards the entry to the
// sink asynchronously.
func (t *Trail) RecordError(req *domain.ValuationRequest, valErr error, requestID, userID string, elapsed time.Duration) {
	entry := Entry{
		ID:        newEntryID(),
		Timestamp: t.now(),
		Event:     EventError,
		Vehicle: VehicleRef{
			VIN:   req.VIN,
			Make:  req.Make,
			Model: req.Model,
			Year:  req.Year,
		},
		Error:            valErr.Error(),
		RequestID:        requestID,
		UserID:           userID,
		ProcessingTimeMS: float64(elapsed.Milliseconds()),
	}
	t.add(entry)
	t.deliver(entry)
}

func (t *Trail) add(entry Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.maxEntries {
		// drop the oldest overflow
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
	t.mu.Unlock()

	metrics.AuditEntriesTotal.Inc()
}

func (t *Trail) deliver(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkDeliveryTimeout)
		defer cancel()
		if err := t.sink.Deliver(ctx, &entry); err != nil {
			t.log.Warn("audit sink delivery failed",
				slog.String("entry_id", entry.ID),
				slog.String("error", err.Error()))
		}
	}()
}

// Entries returns matching entries, newest first.
func (t *Trail) Entries(f Filter) []Entry {
	t.mu.RLock()
	filtered := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if f.Event != "" && e.Event != f.Event {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if !f.DateFrom.IsZero() && e.Timestamp.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && e.Timestamp.After(f.DateTo) {
			continue
		}
		filtered = append(filtered, e)
	}
	t.mu.RUnlock()

	if f.Limit > 0 && len(filtered) > f.Limit {
		filtered = filtered[len(filtered)-f.Limit:]
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	return filtered
}

// Len returns the current number of entries in the trail.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Metrics derives performance metrics from the current trail contents.
func (t *Trail) Metrics() PerformanceMetrics {
	t.mu.RLock()
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	t.mu.RUnlock()

	var successes, errors []Entry
	for _, e := range entries {
		switch e.Event {
		case EventSuccess:
			successes = append(successes, e)
		case EventError:
			errors = append(errors, e)
		}
	}
	total := len(successes) + len(errors)

	m := PerformanceMetrics{
		TotalValuations:        total,
		AverageProcessingTime:  avgProcessingTime(successes),
		AverageConfidenceScore: avgConfidence(successes),
		LastUpdated:            t.now(),
		DailyStats:             dailyStats(entries),
	}
	if total > 0 {
		m.SuccessRate = float64(len(successes)) / float64(total) * 100
		m.ErrorRate = float64(len(errors)) / float64(total) * 100
	}
	return m
}

// ExportJSON returns the full trail as indented JSON.
func (t *Trail) ExportJSON() ([]byte, error) {
	t.mu.RLock()
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	t.mu.RUnlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling audit export: %w", err)
	}
	return data, nil
}

// ExportCSV returns the trail as CSV with one row per entry.
func (t *Trail) ExportCSV() ([]byte, error) {
	t.mu.RLock()
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	t.mu.RUnlock()

	var buf strings.Builder
	w := csv.NewWriter(&buf)

	header := []string{"id", "timestamp", "event", "vin", "estimated_value", "confidence_score", "processing_time_ms", "user_id"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, e := range entries {
		var value, confidence string
		if e.Result != nil {
			value = strconv.FormatFloat(e.Result.EstimatedValue, 'f', 2, 64)
			confidence = strconv.FormatFloat(e.Result.ConfidenceScore, 'f', 1, 64)
		}
		row := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			string(e.Event),
			e.Vehicle.VIN,
			value,
			confidence,
			strconv.FormatFloat(e.ProcessingTimeMS, 'f', 0, 64),
			e.UserID,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return []byte(buf.String()), nil
}

// Cleanup drops entries older than retentionDays and returns the number
// removed.
func (t *Trail) Cleanup(retentionDays int) int {
	if retentionDays <= 0 {
		retentionDays = defaultRetention
	}
	cutoff := t.now().AddDate(0, 0, -retentionDays)

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(t.entries) - len(kept)
	t.entries = kept

	if removed > 0 {
		t.log.Info("audit trail cleaned up", slog.Int("removed", removed))
	}
	return removed
}

func newEntryID() string {
	return "audit_" + uuid.NewString()
}

func avgProcessingTime(entries []Entry) float64 {
	var sum float64
	var n int
	for _, e := range entries {
		if e.ProcessingTimeMS > 0 {
			sum += e.ProcessingTimeMS
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func avgConfidence(entries []Entry) float64 {
	var sum float64
	var n int
	for _, e := range entries {
		if e.Result != nil {
			sum += e.Result.ConfidenceScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func dailyStats(entries []Entry) []DailyStats {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		date := e.Timestamp.Format("2006-01-02")
		groups[date] = append(groups[date], e)
	}

	var stats []DailyStats
	for date, dayEntries := range groups {
		var successes []Entry
		var valuations int
		for _, e := range dayEntries {
			switch e.Event {
			case EventSuccess:
				successes = append(successes, e)
				valuations++
			case EventError:
				valuations++
			}
		}
		if valuations == 0 {
			continue
		}
		stats = append(stats, DailyStats{
			Date:              date,
			Valuations:        valuations,
			AvgProcessingTime: avgProcessingTime(successes),
			SuccessRate:       float64(len(successes)) / float64(valuations) * 100,
			AvgConfidence:     avgConfidence(successes),
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Date > stats[j].Date })
	if len(stats) > 30 {
		stats = stats[:30]
	}
	return stats
}
