package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"oms/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNacked = errors.New("broker did not acknowledge the message")

var _ ports.MessageBus = (*Publisher)(nil)

// Publisher implements ports.MessageBus. Publish returns only after the broker
// confirmed the message.
type Publisher struct {
	conn     *Connection
	exchange string
	mutex    sync.Mutex
}

func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn, exchange: conn.config.Exchange}
}

// Publish sends msg with routing key msg.Key so all events of one order share a
// routing path. MessageId carries the outbox entry ID for consumer dedup.
func (p *Publisher) Publish(ctx context.Context, msg ports.Message) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		msg.Key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg.Payload,
			MessageId:    msg.ID,
			Type:         msg.Type,
			Timestamp:    msg.OccurredAt,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message %s: %w", msg.ID, err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for confirmation of %s: %w", msg.ID, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNacked, msg.ID)
	}
	return nil
}
