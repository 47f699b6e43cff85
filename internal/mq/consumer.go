package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает сообщение. Ошибка — nack с возвратом в очередь.
type Handler func(ctx context.Context, msg *Message) error

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	// Queue — именованная очередь. Если пусто, объявляется временная
	// exclusive-очередь, привязанная к Exchange по RoutingKey.
	Queue Queue

	Exchange   Exchange
	RoutingKey RoutingKey

	Handler Handler

	// Prefetch — сколько сообщений брокер выдаёт без ack (по умолчанию 1).
	Prefetch int

	// Logger (опционально; по умолчанию slog.Default()).
	Logger *slog.Logger
}

// Consumer читает события из очереди и переживает переподключение.
type Consumer struct {
	conn *Connection
	cfg  ConsumerConfig

	logger *slog.Logger
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{conn: conn, cfg: cfg, logger: logger}
}

// Run читает сообщения до отмены ctx.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, queue, err := c.setup()
		if err != nil {
			c.logger.Error("failed to setup consumer", "queue", c.cfg.Queue, "error", err)
		} else {
			c.logger.Info("consumer started", "queue", queue)
			if err := c.process(ctx, queue, deliveries); err == nil || ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect", "queue", queue)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

func (c *Consumer) setup() (<-chan amqp.Delivery, string, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, "", ErrNoChannel
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, "", fmt.Errorf("set qos: %w", err)
	}

	queue := string(c.cfg.Queue)
	if queue == "" {
		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return nil, "", fmt.Errorf("declare temporary queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, string(c.cfg.RoutingKey), string(c.cfg.Exchange), false, nil); err != nil {
			return nil, "", fmt.Errorf("bind temporary queue: %w", err)
		}
		queue = q.Name
	}

	deliveries, err := ch.Consume(queue, "", false, queue != string(c.cfg.Queue), false, false, nil)
	if err != nil {
		return nil, "", fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, queue, nil
}

func (c *Consumer) process(ctx context.Context, queue string, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			c.handle(ctx, queue, raw)
		}
	}
}

// handle разбирает сообщение и вызывает Handler.
// Нечитаемое сообщение отклоняется без возврата (уходит в DLQ).
func (c *Consumer) handle(ctx context.Context, queue string, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message", "queue", queue, "error", err)
		raw.Nack(false, false)
		return
	}

	if err := c.cfg.Handler(ctx, &msg); err != nil {
		c.logger.Error("handler failed",
			"queue", queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}
