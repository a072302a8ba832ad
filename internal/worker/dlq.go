package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the dead-letter list of each job queue: a receipt
// job that keeps failing lands in "dlq:jobs:recibo".
const DLQPrefix = "dlq:"

// DLQEntry is a receipt or e-mail job given up on after MaxTentativas.
// VendaID is lifted out of the payload so an operator can regenerate the
// receipt from GET /v1/vendas/:id/recibo without decoding it.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	VendaID       string          `json:"venda_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// vendaDoPayload reads venda_id from either job payload; both carry it.
func vendaDoPayload(payload json.RawMessage) string {
	var ref struct {
		VendaID string `json:"venda_id"`
	}
	if len(payload) == 0 || json.Unmarshal(payload, &ref) != nil {
		return ""
	}
	return ref.VendaID
}

// SendToDLQ parks a failed job. A push failure is logged and the job is lost;
// the receipt can still be rendered on demand.
func SendToDLQ(ctx context.Context, rdb fila, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		VendaID:       vendaDoPayload(payload),
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("venda_id", entry.VendaID).Msg("dlq: entry not encodable")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("venda_id", entry.VendaID).Str("fila", queue).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("fila", queue).
		Str("job", jobType).
		Str("venda_id", entry.VendaID).
		Int("tentativas", attempts).
		Str("motivo", reason).
		Msg("dlq: job parked")
}

// DLQLengths counts parked jobs per queue for GET /v1/filas.
func DLQLengths(ctx context.Context, rdb *redis.Client) (map[string]int64, error) {
	pipe := rdb.Pipeline()
	cmds := map[string]*redis.IntCmd{
		QueueRecibo: pipe.LLen(ctx, DLQPrefix+QueueRecibo),
		QueueEmail:  pipe.LLen(ctx, DLQPrefix+QueueEmail),
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(cmds))
	for q, cmd := range cmds {
		out[q] = cmd.Val()
	}
	return out, nil
}
