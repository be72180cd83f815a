package worker

// email_worker.go
// Processes email jobs from QueueEmail.
// Sends weekly payroll PDFs to the configured recipient via SMTP.

import (
	"context"
	"encoding/json"
	"fmt"

	"pastel24h/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ReportID  string `json:"report_id,omitempty"`
	WeekStart string `json:"week_start,omitempty"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path"`
}

// ReportSender delivers one email with an optional attachment.
type ReportSender interface {
	SendReport(to, subject, body, pdfPath string) error
}

// EmailWorker sends emails through the SMTP circuit breaker.
type EmailWorker struct {
	mailer ReportSender
	cb     *infra.Breaker
}

// NewEmailWorker creates an EmailWorker. cb may be nil.
func NewEmailWorker(mailer ReportSender, cb *infra.Breaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends the email, retrying transient SMTP failures.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	send := func(context.Context) error {
		return w.mailer.SendReport(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	}
	err := withRetry(ctx, maxAttempts, func(attempt int) error {
		var err error
		if w.cb != nil {
			err = w.cb.Do(ctx, send)
		} else {
			err = send(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).Msg("email_worker: send attempt failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: report sent")
	return nil
}
