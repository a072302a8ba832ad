package worker

// email_worker.go
// Processes email jobs from QueueEmail.
// Sends PDF receipts to customer emails via SMTP.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	VendaID string `json:"venda_id,omitempty"`
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// reciboSender is satisfied by *infra.Mailer.
type reciboSender interface {
	SendRecibo(to, subject, body, fileName string, pdf []byte) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer reciboSender
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer reciboSender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends an email with the PDF receipt as attachment.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	var pdf []byte
	if payload.PDFPath != "" {
		data, err := os.ReadFile(payload.PDFPath)
		if err != nil {
			return fmt.Errorf("email_worker: read PDF: %w", err)
		}
		pdf = data
	}

	if err := w.mailer.SendRecibo(payload.ToEmail, payload.Subject, payload.Body, filepath.Base(payload.PDFPath), pdf); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: recibo sent successfully")
	return nil
}
