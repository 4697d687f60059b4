package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange is the durable topic exchange domain events are published to.
	Exchange = "reserva.events"
	// NotificationQueue is the worker's queue for admin notifications.
	NotificationQueue = "reserva.notifications"
)

// dial opens a channel and declares the topic exchange on it.
func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// AMQPPublisher publishes persistent messages to the topic exchange.
type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, ch, err := dial(url, Exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", Exchange)
	return &AMQPPublisher{conn: conn, ch: ch, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		AppId:        "reserva",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close closes the connection and with it the channel.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// AMQPConsumer feeds a durable queue bound to the exchange into a Router.
type AMQPConsumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	router *Router
	logger *slog.Logger
}

// NewAMQPConsumer declares queue and binds it to every key routed by router.
func NewAMQPConsumer(url, queue string, router *Router, logger *slog.Logger) (*AMQPConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = NotificationQueue
	}
	conn, ch, err := dial(url, Exchange)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range router.Keys() {
		if err := ch.QueueBind(queue, key, Exchange, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s to %s: %w", queue, key, err)
		}
	}
	logger.Info("RabbitMQ consumer connected", "queue", queue, "routing_keys", router.Keys())
	return &AMQPConsumer{conn: conn, ch: ch, queue: queue, router: router, logger: logger}, nil
}

// Run consumes one delivery at a time until ctx is done. A failed delivery
// is requeued once, then dropped.
func (c *AMQPConsumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, d amqp.Delivery) {
	log := c.logger.With("routing_key", d.RoutingKey, "redelivered", d.Redelivered)

	env, err := Decode(d.Body, d.RoutingKey)
	if err != nil {
		log.Error("dropping malformed envelope", "error", err)
		_ = d.Ack(false)
		return
	}
	if err := c.router.Route(ctx, env); err != nil {
		if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
			log.Error("nack failed", "error", nackErr)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("ack failed", "error", err)
	}
}

func (c *AMQPConsumer) Close() error {
	return c.conn.Close()
}
