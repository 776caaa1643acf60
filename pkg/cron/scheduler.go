// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/pkg/config"
)

// Scheduler runs the stuck-upload watchdog on a cron schedule. An upload
// left in PROCESSING beyond the configured threshold is marked FAILED so
// it becomes retryable.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.WatchdogConfig
	uploads ingest.UploadRepository
	logger  *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(cfg config.WatchdogConfig, uploads ingest.UploadRepository, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		cfg:     cfg,
		uploads: uploads,
		logger:  logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, s.sweepStuckUploads)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.cfg.Schedule),
		slog.Duration("stuck_after", s.cfg.StuckAfter),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the watchdog sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.sweepStuckUploads()
}

// sweepStuckUploads fails uploads that entered PROCESSING before the
// stuck-after cutoff.
func (s *Scheduler) sweepStuckUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.StuckAfter)
	flagged, err := s.uploads.MarkStuckProcessing(ctx, cutoff, "processing timed out")
	if err != nil {
		s.logger.Error("stuck upload sweep failed", slog.Any("error", err))
		return
	}
	if flagged > 0 {
		s.logger.Warn("flagged stuck uploads as failed",
			slog.Int64("count", flagged),
			slog.Time("cutoff", cutoff),
		)
	}
}
