package queue

import (
	"log"
	"sync"
	"time"
)

// InMemoryQueue runs batch jobs in-process. Used for local dev and tests; the
// retry behavior mirrors the RabbitMQ consumer.
type InMemoryQueue struct {
	mu          sync.Mutex
	handlers    map[string]consumer
	inflight    map[string]bool
	maxAttempts int
	backoffBase time.Duration
	wg          sync.WaitGroup
}

type consumer struct {
	handle Handler
	dead   DeadHandler
}

func NewInMemoryQueue(maxAttempts int) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:    make(map[string]consumer),
		inflight:    make(map[string]bool),
		maxAttempts: maxAttempts,
		backoffBase: 10 * time.Millisecond,
	}
}

// Publish hands the job to the registered consumer. A job id that is already
// in flight is dropped, which is what the durable queue's idempotency key
// buys us in production.
func (q *InMemoryQueue) Publish(queueName string, job Job) error {
	q.mu.Lock()
	c, ok := q.handlers[queueName]
	if !ok {
		q.mu.Unlock()
		log.Printf("⚠️ No consumer for queue %s, dropping job %s\n", queueName, job.ID)
		return nil
	}
	if q.inflight[job.ID] {
		q.mu.Unlock()
		log.Printf("Job %s already in flight, skipping duplicate\n", job.ID)
		return nil
	}
	q.inflight[job.ID] = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.processJob(queueName, c, job)
	return nil
}

func (q *InMemoryQueue) processJob(queueName string, c consumer, job Job) {
	defer q.wg.Done()
	defer func() {
		q.mu.Lock()
		delete(q.inflight, job.ID)
		q.mu.Unlock()
	}()

	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err = c.handle(job)
		if err == nil {
			return // ACK
		}
		log.Printf("Job %s failed (attempt %d/%d): %v\n", job.ID, attempt, q.maxAttempts, err)
		if attempt < q.maxAttempts {
			time.Sleep(q.backoffBase << uint(attempt-1))
		}
	}

	log.Printf("Job %s permanently failed after %d attempts\n", job.ID, q.maxAttempts)
	if c.dead != nil {
		c.dead(job, err)
	}
}

func (q *InMemoryQueue) Consume(queueName string, concurrency int, handle Handler, dead DeadHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[queueName] = consumer{handle: handle, dead: dead}
	return nil
}

// Wait blocks until all published jobs have settled. Test helper.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Publisher = (*InMemoryQueue)(nil)
var _ Consumer = (*InMemoryQueue)(nil)
