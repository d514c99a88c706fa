package queue

import "fmt"

// Queue names, one per channel worker pool.
const (
	QueueSMS   = "broadcast_sms"
	QueueVoice = "broadcast_voice"
)

// Job is one batch dispatch. ID is the deterministic idempotency key.
type Job struct {
	ID         string `json:"id"`
	CampaignID int    `json:"campaign_id"`
	BatchID    int    `json:"batch_id"`
}

// JobID builds the idempotency key for a batch.
func JobID(campaignID, batchID int) string {
	return fmt.Sprintf("%d:%d", campaignID, batchID)
}

// Publisher is the write side used by the batch enqueuer.
type Publisher interface {
	Publish(queueName string, job Job) error
}

// Handler processes one batch job. A returned error triggers a retry with
// backoff up to the consumer's attempt ceiling.
type Handler func(job Job) error

// DeadHandler fires after the attempt ceiling is exhausted.
type DeadHandler func(job Job, err error)

// Consumer is the read side run by cmd/worker.
type Consumer interface {
	Consume(queueName string, concurrency int, handle Handler, dead DeadHandler) error
}
