package worker

// dlq.go: jobs that exhausted their retries land in dlq:<queue>, newest
// first, so an operator can see which weekly report never got its PDF or
// email. The sweep in pdf_sweep.go regenerates missing PDFs on its own; the
// DLQ is the record of why they went missing.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	dlqPrefix = "dlq:"
	dlqMaxLen = 500
)

// DeadJob is one dead letter entry. ReportID and WeekStart are lifted out of
// the payload so the list can be scanned without decoding each job.
type DeadJob struct {
	Queue     string          `json:"queue"`
	Type      string          `json:"type"`
	ReportID  string          `json:"report_id,omitempty"`
	WeekStart string          `json:"week_start,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Attempts  int             `json:"attempts"`
	FailedAt  time.Time       `json:"failed_at"`
}

// reportRef is the part both report job payloads share.
type reportRef struct {
	ReportID  string `json:"report_id"`
	WeekStart string `json:"week_start"`
}

func newDeadJob(queue string, job Job, cause error, attempts int, now time.Time) DeadJob {
	d := DeadJob{
		Queue:    queue,
		Type:     job.Type,
		Payload:  job.Payload,
		Attempts: attempts,
		FailedAt: now.UTC(),
	}
	if cause != nil {
		d.Error = cause.Error()
	}
	var ref reportRef
	if len(job.Payload) > 0 && json.Unmarshal(job.Payload, &ref) == nil {
		d.ReportID = ref.ReportID
		d.WeekStart = ref.WeekStart
	}
	return d
}

// undecodableJob wraps a raw queue entry that is not a Job envelope. The raw
// text is kept as a JSON string so the entry itself still encodes.
func undecodableJob(raw string) Job {
	quoted, _ := json.Marshal(raw)
	return Job{Type: "unknown", Payload: quoted}
}

// deadLetter records d and keeps only the newest dlqMaxLen entries.
func deadLetter(ctx context.Context, rdb *redis.Client, d DeadJob) {
	data, err := json.Marshal(d)
	if err != nil {
		log.Error().Err(err).Str("queue", d.Queue).Msg("dlq: encode entry")
		return
	}
	key := dlqPrefix + d.Queue
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, dlqMaxLen-1)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dlq_key", key).Str("report_id", d.ReportID).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("queue", d.Queue).
		Str("type", d.Type).
		Str("report_id", d.ReportID).
		Str("week_start", d.WeekStart).
		Int("attempts", d.Attempts).
		Str("error", d.Error).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength is reported by the health endpoint.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqPrefix+queue).Result()
}
