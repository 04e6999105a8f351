package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueSender publishes messages to a durable RabbitMQ queue; cmd/mailworker
// consumes them and delivers through SMTP.
type QueueSender struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewQueueSender(url, queueName string) (*QueueSender, error) {
	const op = "services.NewQueueSender"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &QueueSender{conn: conn, channel: ch, queue: q}, nil
}

func (q *QueueSender) Send(ctx context.Context, to, name, subject, html string) error {
	const op = "services.QueueSender.Send"

	body, err := json.Marshal(EmailMessage{To: to, Name: name, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = q.channel.PublishWithContext(ctx, "", q.queue.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Consume delivers queued messages to sender until ctx is cancelled or the
// channel closes. Messages that fail to decode are dropped; delivery
// failures are requeued once.
func (q *QueueSender) Consume(ctx context.Context, sender EmailSender, onError func(error)) error {
	const op = "services.QueueSender.Consume"

	deliveries, err := q.channel.ConsumeWithContext(ctx, q.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}
			var msg EmailMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				onError(fmt.Errorf("%s: %w", op, err))
				_ = d.Nack(false, false)
				continue
			}
			if err := sender.Send(ctx, msg.To, msg.Name, msg.Subject, msg.HTML); err != nil {
				onError(fmt.Errorf("%s: %w", op, err))
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (q *QueueSender) Close() {
	_ = q.channel.Close()
	_ = q.conn.Close()
}
