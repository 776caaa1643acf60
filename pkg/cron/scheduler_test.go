package cron

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/pkg/config"
)

type fakeUploads struct {
	ingest.UploadRepository

	gotCutoff  time.Time
	gotMessage string
	flagged    int64
	err        error
}

func (f *fakeUploads) MarkStuckProcessing(_ context.Context, cutoff time.Time, message string) (int64, error) {
	f.gotCutoff = cutoff
	f.gotMessage = message
	return f.flagged, f.err
}

func testScheduler(uploads *fakeUploads, stuckAfter time.Duration) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.WatchdogConfig{
		Schedule:   "*/10 * * * *",
		StuckAfter: stuckAfter,
	}
	return NewScheduler(cfg, uploads, logger)
}

func TestSweepStuckUploads(t *testing.T) {
	uploads := &fakeUploads{flagged: 2}
	s := testScheduler(uploads, 30*time.Minute)

	before := time.Now().Add(-30 * time.Minute)
	s.sweepStuckUploads()
	after := time.Now().Add(-30 * time.Minute)

	assert.Equal(t, "processing timed out", uploads.gotMessage)
	assert.False(t, uploads.gotCutoff.Before(before))
	assert.False(t, uploads.gotCutoff.After(after))
}

func TestSweepStuckUploads_RepositoryError(t *testing.T) {
	uploads := &fakeUploads{err: assert.AnError}
	s := testScheduler(uploads, time.Hour)

	// Must not panic; the error is logged and the next run retries.
	s.sweepStuckUploads()
}

func TestScheduler_StartStop(t *testing.T) {
	uploads := &fakeUploads{}
	s := testScheduler(uploads, time.Hour)

	require.NoError(t, s.Start())
	<-s.Stop().Done()
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	uploads := &fakeUploads{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScheduler(config.WatchdogConfig{Schedule: "not a schedule"}, uploads, logger)

	assert.Error(t, s.Start())
}
