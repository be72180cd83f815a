package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pastel24h/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportPDF = "jobs:report_pdf"
	QueueEmail     = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrNoQueue is returned when enqueueing without a Redis client.
var ErrNoQueue = errors.New("worker: job queue not configured")

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReportPDF pushes a weekly report PDF job to Redis.
func (d *Dispatcher) EnqueueReportPDF(ctx context.Context, payload ReportPDFJobPayload) error {
	return d.enqueue(ctx, QueueReportPDF, "report_pdf", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return ErrNoQueue
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobProcessor handles the payload of one queue. A returned error moves the
// job to the dead letter queue.
type JobProcessor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers maps each queue to its processor. Nil processors leave
// their queue unconsumed.
type WorkerHandlers struct {
	ReportPDF JobProcessor
	Email     JobProcessor
}

func (h *WorkerHandlers) queues() []string {
	var qs []string
	if h.ReportPDF != nil {
		qs = append(qs, QueueReportPDF)
	}
	if h.Email != nil {
		qs = append(qs, QueueEmail)
	}
	return qs
}

func (h *WorkerHandlers) processorFor(queue string) JobProcessor {
	switch queue {
	case QueueReportPDF:
		return h.ReportPDF
	case QueueEmail:
		return h.Email
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming the configured queues.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	queues := handlers.queues()
	if len(queues) == 0 {
		log.Warn().Msg("worker pool not started: no job processors configured")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, queues, i)
	}
	log.Info().Strs("queues", queues).Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queues []string, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Waits up to 5s, then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		deadLetter(ctx, rdb, newDeadJob(queue, undecodableJob(raw), fmt.Errorf("invalid job envelope: %w", err), 0, time.Now()))
		return
	}
	processor := handlers.processorFor(queue)
	if processor == nil {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no processor for queue")
		return
	}

	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	if err := processor.Process(ctx, job.Payload); err != nil {
		if ctx.Err() != nil {
			requeue(rdb, queue, raw)
			return
		}
		log.Error().Err(err).Str("type", job.Type).Str("queue", queue).Msg("job failed")
		deadLetter(ctx, rdb, newDeadJob(queue, job, err, maxAttempts, time.Now()))
	}
}

// requeue puts a job interrupted by shutdown back at the consuming end of its
// queue, so the next worker to start picks it up first.
func requeue(rdb *redis.Client, queue, raw string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.RPush(ctx, queue, raw).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to requeue interrupted job")
		return
	}
	log.Info().Str("queue", queue).Msg("interrupted job requeued")
}

// maxAttempts is the number of tries withRetry gives an external call.
const maxAttempts = 3

// withRetry calls fn up to attempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// An open breaker ends the loop early: the dependency is known to be down.
func withRetry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			if errors.Is(err, infra.ErrBreakerOpen) {
				return err
			}
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
