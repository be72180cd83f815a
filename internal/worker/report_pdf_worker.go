package worker

// report_pdf_worker.go
// Processes QueueReportPDF jobs:
//  1. Load the saved weekly report
//  2. Render it with fpdf into REPORT_STORAGE_PATH
//  3. Upload a copy to object storage when configured
//  4. Record the PDF path on the report
//  5. Queue an email with the PDF attached when a recipient is configured

import (
	"context"
	"encoding/json"
	"fmt"

	"pastel24h/internal/infra"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportPDFJobPayload is the job envelope sent to QueueReportPDF.
type ReportPDFJobPayload struct {
	ReportID  string `json:"report_id"`
	WeekStart string `json:"week_start,omitempty"`
}

type ReportPDFWorker struct {
	reports     repository.WeeklyReportRepository
	store       infra.ObjectStore
	dispatcher  *Dispatcher
	storagePath string
	emailTo     string
}

// NewReportPDFWorker wires the worker. store and dispatcher may be nil;
// emailTo empty disables the follow-up email.
func NewReportPDFWorker(
	reports repository.WeeklyReportRepository,
	store infra.ObjectStore,
	dispatcher *Dispatcher,
	storagePath, emailTo string,
) *ReportPDFWorker {
	return &ReportPDFWorker{
		reports:     reports,
		store:       store,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		emailTo:     emailTo,
	}
}

func (w *ReportPDFWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportPDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("report_pdf_worker: invalid payload: %w", err)
	}
	id, err := uuid.Parse(payload.ReportID)
	if err != nil {
		return fmt.Errorf("report_pdf_worker: invalid report id %q", payload.ReportID)
	}

	report, err := w.reports.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("report_pdf_worker: load report %s: %w", id, err)
	}

	path, doc, err := infra.WriteWeeklyReportPDF(report, w.storagePath)
	if err != nil {
		return fmt.Errorf("report_pdf_worker: %w", err)
	}

	if w.store != nil {
		key := "reports/" + infra.WeeklyReportFileName(report)
		var uri string
		err = withRetry(ctx, maxAttempts, func(attempt int) error {
			var err error
			uri, err = w.store.Put(ctx, key, "application/pdf", doc)
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt+1).Str("report_id", payload.ReportID).Msg("report_pdf_worker: upload attempt failed")
			}
			return err
		})
		if err != nil {
			// The local copy is still usable; the upload is not retried later.
			log.Error().Err(err).Str("report_id", payload.ReportID).Msg("report_pdf_worker: upload failed")
		} else {
			log.Info().Str("report_id", payload.ReportID).Str("uri", uri).Msg("report_pdf_worker: uploaded")
		}
	}

	if err := w.reports.SetPDFPath(ctx, report.ID, path); err != nil {
		return fmt.Errorf("report_pdf_worker: save pdf path: %w", err)
	}
	log.Info().Str("report_id", payload.ReportID).Str("path", path).Msg("report_pdf_worker: pdf generated")

	if w.emailTo != "" && w.dispatcher != nil {
		week := report.WeekStart.UTC().Format("02/01/2006") + " a " + report.WeekEnd.UTC().Format("02/01/2006")
		err := w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
			ReportID:  payload.ReportID,
			WeekStart: report.WeekStart.UTC().Format("2006-01-02"),
			ToEmail:   w.emailTo,
			Subject:   "Folha semanal " + week,
			Body:      "Segue em anexo a folha semanal de " + week + ".",
			PDFPath:   path,
		})
		if err != nil {
			log.Error().Err(err).Str("report_id", payload.ReportID).Msg("report_pdf_worker: failed to enqueue email")
		}
	}
	return nil
}
