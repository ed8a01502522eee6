package rabbitmq

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/events"
)

// Producer publishes domain events to the events exchange. Delivery is
// at-least-once: a nil return means the publish was handed to the client
// library, not that the broker has durably stored it.
type Producer struct {
	conn     *Connection
	exchange string
	logger   *zap.Logger
}

// NewProducer creates a Producer publishing to the given exchange over the
// shared connection.
func NewProducer(conn *Connection, exchange string, logger *zap.Logger) *Producer {
	return &Producer{
		conn:     conn,
		exchange: exchange,
		logger:   logger,
	}
}

// Emit serializes the payload and publishes it under the event type as
// routing key, returning once the publish resolves. Any failure is wrapped
// in an EmitError carrying the cause. No retry is performed here; retry
// policy, if any, is the caller's responsibility.
func (p *Producer) Emit(eventType events.Type, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &EmitError{EventType: string(eventType), Err: err}
	}

	if err := p.conn.Publish(p.exchange, string(eventType), body); err != nil {
		p.logger.Error("Failed to emit event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return &EmitError{EventType: string(eventType), Err: err}
	}

	p.logger.Info("Emitted event",
		zap.String("event_type", string(eventType)),
		zap.ByteString("payload", body),
	)
	return nil
}
