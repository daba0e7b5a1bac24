// Package notify delivers audit trail entries to external channels.
// Implementations satisfy audit.Sink so the trail can push entries as
// they are recorded.
package notify

import (
	"context"
	"errors"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
)

// FanoutSink delivers each entry to every configured sink. Delivery
// failures do not stop the remaining sinks; the errors are joined.
type FanoutSink struct {
	sinks []audit.Sink
}

// Fanout combines multiple sinks into one.
func Fanout(sinks ...audit.Sink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// Deliver forwards the entry to all sinks.
func (f *FanoutSink) Deliver(ctx context.Context, entry *audit.Entry) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Deliver(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrorsOnlySink forwards only valuation_error entries to the wrapped sink,
// for channels that monitor failures rather than mirror the whole trail.
type ErrorsOnlySink struct {
	next audit.Sink
}

// ErrorsOnly wraps a sink so it receives error entries only.
func ErrorsOnly(next audit.Sink) *ErrorsOnlySink {
	return &ErrorsOnlySink{next: next}
}

// Deliver forwards error entries and silently drops everything else.
func (s *ErrorsOnlySink) Deliver(ctx context.Context, entry *audit.Entry) error {
	if entry.Event != audit.EventError {
		return nil
	}
	return s.next.Deliver(ctx, entry)
}
