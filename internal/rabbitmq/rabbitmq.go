package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/config"
)

const (
	maxInitialAttempts = 10
	maxBackoff         = 30 * time.Second
)

// Connection is the single logical link to the broker, shared by the whole
// process. It is established once at startup, monitored for closure in the
// background and re-dialed with exponential backoff when the broker drops
// it. Only the Producer and the consumer Dispatcher may use it.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     *config.BrokerConfig
	logger  *zap.Logger

	stopChan chan struct{}
	mu       sync.RWMutex

	reconnecting bool
	reconnectMu  sync.Mutex
}

// NewConnection creates an unconnected Connection.
func NewConnection(cfg *config.BrokerConfig, logger *zap.Logger) *Connection {
	return &Connection{
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Connect establishes the connection and starts the close monitor. The
// initial dial is retried with exponential backoff; once the attempts are
// exhausted a ConnectionError is returned and the service must not begin
// serving traffic or consuming messages.
func (c *Connection) Connect() error {
	backoff := time.Second

	for attempt := 1; ; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxInitialAttempts),
		)

		err := c.dial()
		if err == nil {
			break
		}
		if attempt >= maxInitialAttempts {
			return &ConnectionError{Op: "connect", Err: fmt.Errorf("after %d attempts: %w", maxInitialAttempts, err)}
		}

		c.logger.Warn("Connection to RabbitMQ failed, retrying...",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	go c.monitor()
	return nil
}

// dial performs one connect attempt, replacing any previous connection and
// channel.
func (c *Connection) dial() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		c.channel.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}

	amqpConfig := amqp.Config{
		// Heartbeat of 10s detects dead connections quickly.
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "user-microservices",
		},
	}

	conn, err := amqp.DialConfig(c.cfg.URI, amqpConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	c.logger.Info("Successfully connected to RabbitMQ",
		zap.Duration("heartbeat", amqpConfig.Heartbeat),
	)
	return nil
}

// monitor watches for connection or channel closure and triggers reconnects
// until Close is called.
func (c *Connection) monitor() {
	for {
		c.mu.RLock()
		if c.conn == nil || c.channel == nil {
			c.mu.RUnlock()
			return
		}
		connClose := c.conn.NotifyClose(make(chan *amqp.Error, 1))
		channelClose := c.channel.NotifyClose(make(chan *amqp.Error, 1))
		c.mu.RUnlock()

		select {
		case <-c.stopChan:
			return
		case err := <-connClose:
			if err == nil {
				continue
			}
			c.logger.Error("RabbitMQ connection closed, reconnecting",
				zap.Error(err),
				zap.String("reason", err.Reason),
			)
			c.reconnect()
		case err := <-channelClose:
			if err == nil {
				continue
			}
			c.logger.Error("RabbitMQ channel closed, reconnecting",
				zap.Error(err),
				zap.String("reason", err.Reason),
			)
			c.reconnect()
		}
	}
}

// reconnect re-dials with exponential backoff until it succeeds or the
// connection is closed for good.
func (c *Connection) reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	backoff := time.Second

	for attempt := 1; ; attempt++ {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.logger.Info("Attempting to reconnect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)

		if err := c.dial(); err != nil {
			c.logger.Warn("Failed to reconnect to RabbitMQ, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.logger.Info("Successfully reconnected to RabbitMQ",
			zap.Int("attempt", attempt),
		)
		return
	}
}

// Close stops the monitor and releases the channel and connection. Failures
// are logged and returned as a ConnectionError rather than swallowed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.stopChan:
		// Already closed.
	default:
		close(c.stopChan)
	}

	var closeErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		c.conn = nil
	}

	if closeErr != nil {
		c.logger.Error("Failed to close RabbitMQ connection", zap.Error(closeErr))
		return &ConnectionError{Op: "close", Err: closeErr}
	}

	c.logger.Info("RabbitMQ connection closed")
	return nil
}

// DeclareTopology declares the durable events exchange, the durable service
// queue and its bindings. Declarations are idempotent on the broker side.
func (c *Connection) DeclareTopology(exchange, queue string, routingKeys ...string) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("RabbitMQ channel is not initialized or closed")
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", queue, key, err)
		}
	}

	c.logger.Info("RabbitMQ topology declared",
		zap.String("exchange", exchange),
		zap.String("queue", queue),
		zap.Strings("routing_keys", routingKeys),
	)
	return nil
}

// Publish sends one persistent JSON message under the given routing key.
// It performs a single attempt; retry policy belongs to the caller.
func (c *Connection) Publish(exchange, routingKey string, body []byte) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("RabbitMQ channel is not initialized or closed")
	}

	err := ch.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume starts delivering messages from a queue with manual
// acknowledgment.
func (c *Connection) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return nil, fmt.Errorf("RabbitMQ channel is not initialized or closed")
	}

	deliveries, err := ch.Consume(
		queue,
		consumerTag,
		false, // autoAck - acknowledgment is owned by the dispatcher
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return deliveries, nil
}

// SetQoS bounds the number of unacknowledged deliveries in flight on the
// channel.
func (c *Connection) SetQoS(prefetchCount int) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("RabbitMQ channel is not initialized or closed")
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// Channel returns the current channel, for consumer cancellation.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// IsHealthy reports whether both the connection and the channel are open.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed()
}
