package ranking

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/store"
)

// RankRequest asks the worker to recompute ranks for one job.
type RankRequest struct {
	JobID string `json:"jobId"`
}

// Queue is the RabbitMQ transport for asynchronous rank recomputation.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *errors.Logger
}

// NewQueue connects to RabbitMQ and declares the durable ranking queue.
func NewQueue(cfg config.QueueConfig, logger *errors.Logger) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to connect to rabbitmq", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to open channel", err)
	}

	q, err := ch.QueueDeclare(
		cfg.RankingQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to declare queue", err)
	}

	logger.Info("connected to ranking queue", "queue", q.Name)

	return &Queue{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Publish enqueues a rank recomputation request for a job.
func (q *Queue) Publish(ctx context.Context, jobID string) error {
	body, err := json.Marshal(RankRequest{JobID: jobID})
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeQueueFailed, "failed to encode rank request", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		q.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to publish rank request", err)
	}
	return nil
}

// Consume processes rank requests until the context is cancelled. Each
// request recomputes ranks for one job; a failed recompute is logged
// and the message dropped, the next apply re-enqueues the job anyway.
func (q *Queue) Consume(ctx context.Context, st store.Store) error {
	msgs, err := q.channel.Consume(
		q.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "failed to register consumer", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.NewNetworkError(errors.ErrCodeQueueFailed, "ranking queue channel closed", nil)
			}

			var req RankRequest
			if err := json.Unmarshal(msg.Body, &req); err != nil {
				q.logger.Warn("invalid rank request dropped", "error", err.Error())
				continue
			}
			if err := RankJob(ctx, st, req.JobID); err != nil {
				q.logger.LogError(err, "rank recomputation failed", "job_id", req.JobID)
				continue
			}
			q.logger.Debug("ranks recomputed", "job_id", req.JobID)
		}
	}
}

// Close releases the channel and connection.
func (q *Queue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
