// Package consumer dispatches broker deliveries to event handlers.
//
// The service queue is durable and has no dead-letter routing, so a
// negative acknowledgment would make the broker redeliver a poison message
// forever. The dispatcher therefore acknowledges every delivery exactly
// once, on every branch: malformed body, failed validation, handler error
// and handler panic all end in an ack. A message is never redelivered
// because of an application-level processing failure.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/rabbitmq"
)

// Handler reacts to one deserialized event payload. A non-nil error is
// logged by the dispatcher; the delivery is acknowledged either way.
type Handler interface {
	Handle(raw map[string]any) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(raw map[string]any) error

func (f HandlerFunc) Handle(raw map[string]any) error { return f(raw) }

// Dispatcher consumes deliveries from the service queue and runs one
// handler per routing key.
type Dispatcher struct {
	conn     *rabbitmq.Connection
	queue    string
	prefetch int
	logger   *zap.Logger
	handlers map[string]Handler

	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

// NewDispatcher creates a dispatcher with no handlers registered.
func NewDispatcher(conn *rabbitmq.Connection, queue string, prefetch int, logger *zap.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		conn:        conn,
		queue:       queue,
		prefetch:    prefetch,
		logger:      logger,
		handlers:    make(map[string]Handler),
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("notification-service-%d", time.Now().Unix()),
	}
}

// Register binds a handler to an event type. Must be called before Start.
func (d *Dispatcher) Register(eventType events.Type, handler Handler) {
	d.handlers[string(eventType)] = handler
}

// Start bounds the in-flight delivery window and begins consuming.
func (d *Dispatcher) Start() error {
	if d.queue == "" {
		return fmt.Errorf("queue name is required")
	}

	if err := d.conn.SetQoS(d.prefetch); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := d.startConsuming(); err != nil {
		return err
	}

	d.started = true
	d.logger.Info("Dispatcher started and consuming messages",
		zap.String("queue", d.queue),
		zap.String("consumer_tag", d.consumerTag),
		zap.Int("prefetch", d.prefetch),
	)
	return nil
}

func (d *Dispatcher) startConsuming() error {
	deliveries, err := d.conn.Consume(d.queue, d.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", d.queue, err)
	}

	go d.run(deliveries)
	return nil
}

// Stop cancels the consumer and stops processing.
func (d *Dispatcher) Stop() error {
	d.logger.Info("Stopping dispatcher",
		zap.String("consumer_tag", d.consumerTag),
	)
	d.cancel()

	if ch := d.conn.Channel(); ch != nil {
		if err := ch.Cancel(d.consumerTag, false); err != nil {
			d.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", d.consumerTag),
				zap.Error(err),
			)
			return err
		}
	}

	d.logger.Info("Dispatcher stopped")
	return nil
}

// run drains the delivery channel until shutdown. When the channel closes
// under a broker reconnection, consuming is restarted after a short delay.
func (d *Dispatcher) run(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Dispatcher context cancelled, stopping message processing")
			return
		case msg, ok := <-deliveries:
			if !ok {
				d.logger.Warn("Delivery channel closed, waiting for reconnection...",
					zap.String("queue", d.queue),
				)
				time.Sleep(2 * time.Second)
				if d.started {
					if err := d.startConsuming(); err != nil {
						d.logger.Error("Failed to restart consuming after channel close",
							zap.String("queue", d.queue),
							zap.Error(err),
						)
					}
				}
				return
			}
			d.dispatch(msg)
		}
	}
}

// dispatch processes a single delivery: deserialize, hand off to the
// handler for the routing key, and acknowledge. The ack is deferred first
// so it runs as the single exit for every branch, including a recovered
// panic. No failure escapes past this boundary to the broker client.
func (d *Dispatcher) dispatch(msg amqp.Delivery) {
	defer d.ack(msg)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic while processing delivery",
				zap.String("routing_key", msg.RoutingKey),
				zap.Uint64("delivery_tag", msg.DeliveryTag),
				zap.Any("panic", r),
			)
		}
	}()

	d.logger.Info("Received delivery",
		zap.String("routing_key", msg.RoutingKey),
		zap.Uint64("delivery_tag", msg.DeliveryTag),
	)

	handler, ok := d.handlers[msg.RoutingKey]
	if !ok {
		d.logger.Warn("No handler registered for routing key",
			zap.String("routing_key", msg.RoutingKey),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
		)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(msg.Body, &raw); err != nil {
		d.logger.Error("Dropping malformed delivery",
			zap.String("routing_key", msg.RoutingKey),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
		return
	}

	if err := handler.Handle(raw); err != nil {
		d.logger.Error("Event handler failed",
			zap.String("routing_key", msg.RoutingKey),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		d.logger.Error("Failed to ack delivery",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}
