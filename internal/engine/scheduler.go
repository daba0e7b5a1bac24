package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
)

// Scheduler runs periodic audit maintenance tasks.
type Scheduler struct {
	cron          *cron.Cron
	trail         *audit.Trail
	retentionDays int
	log           *slog.Logger
}

// NewScheduler creates a Scheduler that prunes the audit trail and logs
// aggregate valuation stats on the given intervals.
func NewScheduler(
	trail *audit.Trail,
	cleanupInterval time.Duration,
	statsInterval time.Duration,
	retentionDays int,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:          c,
		trail:         trail,
		retentionDays: retentionDays,
		log:           log,
	}

	if _, err := c.AddFunc(
		"@every "+cleanupInterval.String(),
		s.runCleanup,
	); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(
		"@every "+statsInterval.String(),
		s.logStats,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runCleanup() {
	removed := s.trail.Cleanup(s.retentionDays)
	s.log.Info("audit cleanup complete",
		"removed", removed,
		"retention_days", s.retentionDays,
	)
}

func (s *Scheduler) logStats() {
	m := s.trail.Metrics()
	s.log.Info("valuation stats",
		"total", m.TotalValuations,
		"success_rate", m.SuccessRate,
		"avg_processing_ms", m.AverageProcessingTime,
		"avg_confidence", m.AverageConfidenceScore,
	)
}
