package worker

// recibo_worker.go
// Processes receipt jobs from QueueRecibo: renders the sale's PDF receipt
// into PDF_STORAGE_PATH and, when the customer left an e-mail, enqueues the
// mail job carrying the file path.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReciboJobPayload is the job envelope sent to QueueRecibo.
type ReciboJobPayload struct {
	VendaID      string  `json:"venda_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

type vendaLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venda, error)
}

type configuracaoLoader interface {
	Get(ctx context.Context) (*model.Configuracao, error)
}

type emailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// ReciboWorker renders receipts off the request path.
type ReciboWorker struct {
	vendas         vendaLoader
	config         configuracaoLoader
	emails         emailEnqueuer
	pdfStoragePath string
}

// NewReciboWorker wires the receipt worker. emails may be nil, in which case
// no mail is ever queued.
func NewReciboWorker(vendas vendaLoader, config configuracaoLoader, emails emailEnqueuer, pdfStoragePath string) *ReciboWorker {
	return &ReciboWorker{vendas: vendas, config: config, emails: emails, pdfStoragePath: pdfStoragePath}
}

// Process handles a single receipt job. Malformed payloads and sales that no
// longer exist are logged and acknowledged; everything else is retried.
func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return nil
	}
	vendaID, err := uuid.Parse(payload.VendaID)
	if err != nil {
		log.Error().Str("venda_id", payload.VendaID).Msg("recibo_worker: invalid venda_id")
		return nil
	}

	venda, err := w.vendas.FindByID(ctx, vendaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Str("venda_id", payload.VendaID).Msg("recibo_worker: venda not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recibo_worker: load venda: %w", err)
	}

	cfg, err := w.config.Get(ctx)
	if err != nil {
		// receipts fall back to the default company name
		log.Warn().Err(err).Msg("recibo_worker: settings unavailable")
		cfg = nil
	}

	pdfPath, err := infra.GerarReciboPDF(venda, cfg, w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("venda_id", payload.VendaID).Msg("recibo_worker: PDF generated")

	if payload.ClienteEmail == nil || *payload.ClienteEmail == "" || w.emails == nil {
		return nil
	}
	emailJob := EmailJobPayload{
		VendaID: venda.ID.String(),
		ToEmail: *payload.ClienteEmail,
		Subject: fmt.Sprintf("Recibo %s - venda %s", cfg.NomeExibicao(), venda.ID.String()[:8]),
		Body:    fmt.Sprintf("Segue em anexo o recibo da sua compra.\nTotal: R$ %s", venda.Total.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, emailJob); err != nil {
		// the PDF exists; the mail is best-effort
		log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("recibo_worker: failed to enqueue email")
		return nil
	}
	log.Info().Str("email", *payload.ClienteEmail).Msg("recibo_worker: email job enqueued")
	return nil
}
