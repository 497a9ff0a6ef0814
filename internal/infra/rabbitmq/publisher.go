package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// ProgressPublisher emits analysis progress events onto a topic exchange.
// Routing keys are tenant-scoped ("video.progress.<tenant_id>") so gateway
// consumers can bind one queue per tenant channel.
type ProgressPublisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewProgressPublisher(conn *amqp.Connection, exchange string) (*ProgressPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &ProgressPublisher{channel: ch, exchange: exchange}, nil
}

func (p *ProgressPublisher) Publish(ctx context.Context, event entity.ProgressEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}

	routingKey := "video.progress." + event.TenantID.String()
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

func (p *ProgressPublisher) Close() error {
	return p.channel.Close()
}
