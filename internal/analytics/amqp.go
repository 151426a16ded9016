package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// DefaultQueue is the queue the AMQP sink publishes to.
const DefaultQueue = "storefront.analytics"

// AMQPChannel is the part of *amqp.Channel the sink uses.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes each batch as one persistent message on a queue through
// the default exchange.
type AMQPSink struct {
	ch    AMQPChannel
	queue string
}

// NewAMQPSink creates a sink publishing to queue over ch.
func NewAMQPSink(ch AMQPChannel, queue string) *AMQPSink {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPSink{ch: ch, queue: queue}
}

// Name implements Sink.
func (s *AMQPSink) Name() string { return "amqp" }

// Send implements Sink.
func (s *AMQPSink) Send(ctx context.Context, b Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal analytics batch: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		Type:          TopicAnalyticsBatch,
		CorrelationId: logger.CorrelationIDFromContext(ctx),
		Headers:       amqp.Table{"session_id": b.SessionID, "event_count": int32(len(b.Events))},
		Body:          body,
	}
	if err := s.ch.PublishWithContext(ctx, "", s.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish analytics batch to %s: %w", s.queue, err)
	}
	return nil
}
