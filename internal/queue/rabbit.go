package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// RabbitQueue is the durable queue used outside of tests. One batch job per
// message; the job id doubles as the AMQP MessageId.
type RabbitQueue struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	maxAttempts int
	backoffBase time.Duration
}

func NewRabbitQueue(url string, maxAttempts int) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitQueue{
		conn:        conn,
		ch:          ch,
		maxAttempts: maxAttempts,
		backoffBase: 500 * time.Millisecond,
	}, nil
}

func (q *RabbitQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *RabbitQueue) declare(queueName string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *RabbitQueue) Publish(queueName string, job Job) error {
	if _, err := q.declare(queueName); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
			Body:         body,
		},
	)
}

// Consume runs `concurrency` workers over the queue. A failed job is
// republished with an incremented x-retry-count header after exponential
// backoff; once the attempt ceiling is hit the dead handler fires and the
// message is dropped.
func (q *RabbitQueue) Consume(queueName string, concurrency int, handle Handler, dead DeadHandler) error {
	// Each consumer needs its own channel so Qos applies per pool.
	ch, err := q.conn.Channel()
	if err != nil {
		return err
	}
	if _, err := q.declare(queueName); err != nil {
		return err
	}
	if err := ch.Qos(concurrency, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		queueName,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for i := 0; i < concurrency; i++ {
		go func() {
			for d := range msgs {
				q.process(ch, queueName, d, handle, dead)
			}
		}()
	}
	return nil
}

func (q *RabbitQueue) process(ch *amqp.Channel, queueName string, d amqp.Delivery, handle Handler, dead DeadHandler) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Println("⚠️ Invalid job payload, dropping:", err)
		d.Ack(false)
		return
	}

	err := handle(job)
	if err == nil {
		d.Ack(false)
		return
	}

	attempt := retryCount(d.Headers) + 1
	log.Printf("Job %s failed (attempt %d/%d): %v\n", job.ID, attempt, q.maxAttempts, err)

	if attempt >= q.maxAttempts {
		log.Printf("Job %s permanently failed after %d attempts\n", job.ID, attempt)
		if dead != nil {
			dead(job, err)
		}
		d.Ack(false)
		return
	}

	// Backoff, then republish with the bumped retry header.
	time.Sleep(q.backoffBase << uint(attempt-1))
	pubErr := ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Headers:      amqp.Table{"x-retry-count": int32(attempt)},
		Body:         d.Body,
	})
	if pubErr != nil {
		log.Println("⚠️ Failed to republish job, requeueing instead:", pubErr)
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

var _ Publisher = (*RabbitQueue)(nil)
var _ Consumer = (*RabbitQueue)(nil)
