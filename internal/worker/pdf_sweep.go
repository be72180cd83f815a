package worker

// pdf_sweep.go
// Background goroutine that re-queues PDF jobs for weekly reports that were
// saved but never got a PDF (Redis down at save time, job lost to the DLQ).

import (
	"context"
	"time"

	"pastel24h/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	sweepTickInterval = 5 * time.Minute
	sweepGracePeriod  = 2 * time.Minute
	sweepBatchSize    = 10
)

// PDFSweepConfig holds the dependencies of the sweep goroutine.
type PDFSweepConfig struct {
	Reports    repository.WeeklyReportRepository
	Dispatcher *Dispatcher
	Interval   time.Duration
}

// StartPDFSweep ticks every Interval (default 5 min) until ctx is cancelled.
func StartPDFSweep(ctx context.Context, cfg PDFSweepConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = sweepTickInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Msg("pdf_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("pdf_sweep: shutting down")
				return
			case <-ticker.C:
				sweepMissingPDFs(ctx, cfg, time.Now())
			}
		}
	}()
}

// sweepMissingPDFs enqueues one job per report without a PDF that is older
// than the grace period, so reports still in the queue are left alone.
func sweepMissingPDFs(ctx context.Context, cfg PDFSweepConfig, now time.Time) int {
	reports, err := cfg.Reports.ListMissingPDF(ctx, now.Add(-sweepGracePeriod), sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("pdf_sweep: failed to query reports")
		return 0
	}
	queued := 0
	for _, r := range reports {
		if err := cfg.Dispatcher.EnqueueReportPDF(ctx, ReportPDFJobPayload{
			ReportID:  r.ID.String(),
			WeekStart: r.WeekStart.UTC().Format("2006-01-02"),
		}); err != nil {
			log.Error().Err(err).Str("report_id", r.ID.String()).Msg("pdf_sweep: enqueue failed")
			continue
		}
		queued++
	}
	if queued > 0 {
		log.Info().Int("count", queued).Msg("pdf_sweep: re-queued missing report PDFs")
	}
	return queued
}
