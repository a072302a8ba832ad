package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueRecibo = "jobs:recibo"
	QueueEmail  = "jobs:email"

	JobRecibo = "recibo"
	JobEmail  = "email"

	// MaxTentativas is how many times a job runs before it is moved to the DLQ.
	MaxTentativas = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Tentativas int             `json:"tentativas,omitempty"`
}

// Processor handles the payload of one job type. A returned error schedules
// a retry; the job goes to the DLQ after MaxTentativas.
type Processor interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// WorkerHandlers maps each queue to its processor. Nil processors drop jobs
// with a warning.
type WorkerHandlers struct {
	Recibo  Processor
	Email   Processor
	Metrics *metrics.Metrics
}

func (h WorkerHandlers) porTipo(tipo string) Processor {
	switch tipo {
	case JobRecibo:
		return h.Recibo
	case JobEmail:
		return h.Email
	}
	return nil
}

// fila is the subset of the Redis client used to push jobs.
type fila interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb fila
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueRecibo pushes a receipt job to Redis.
func (d *Dispatcher) EnqueueRecibo(ctx context.Context, payload ReciboJobPayload) error {
	return d.enqueue(ctx, QueueRecibo, JobRecibo, payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return fmt.Errorf("dispatcher: redis not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb fila, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// consumidor is the subset of the Redis client a worker goroutine needs.
type consumidor interface {
	fila
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// esperaAposFalha is how long a worker backs off after BRPOP fails with
// anything but a timeout, e.g. while Redis is unreachable.
var esperaAposFalha = 2 * time.Second

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP: zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb consumidor, handlers WorkerHandlers, id int) {
	queues := []string{QueueRecibo, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
		}

		// Blocking pop: waits up to 5s then loops to check ctx
		result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Warn().Err(err).Int("worker", id).Dur("espera", esperaAposFalha).Msg("worker: BRPOP failed, backing off")
			select {
			case <-ctx.Done():
			case <-time.After(esperaAposFalha):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		processJob(ctx, rdb, handlers, result[0], result[1])
	}
}

// processJob runs one job. Failures are pushed back to the same queue with
// the attempt counter incremented until MaxTentativas, then dead-lettered.
func processJob(ctx context.Context, rdb fila, handlers WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "", json.RawMessage(`null`), "invalid envelope: "+err.Error(), 0)
		return
	}

	proc := handlers.porTipo(job.Type)
	if proc == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no processor for job type, dropping")
		return
	}

	job.Tentativas++
	err := proc.Process(ctx, job.Payload)
	handlers.Metrics.Job(job.Type, err == nil)
	if err == nil {
		log.Debug().Str("type", job.Type).Int("tentativa", job.Tentativas).Msg("job processed")
		return
	}

	if job.Tentativas >= MaxTentativas {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Tentativas)
		return
	}
	log.Warn().Err(err).
		Str("type", job.Type).
		Int("tentativa", job.Tentativas).
		Msg("job failed, requeueing")
	if perr := push(ctx, rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
	}
}
