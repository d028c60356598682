package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки сообщения.
// Ненулевая ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение вместе с сырым AMQP-кадром.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Ack подтверждает обработку.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение. requeue=false отправляет его в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// ConsumerConfig — настройки подписки на очередь.
type ConsumerConfig struct {
	Queue    string
	Handler  Handler
	Prefetch int // сообщений в полёте, default 1
}

// Consumer читает очередь и прогоняет каждое сообщение через Handler.
// Результат Handler определяет судьбу сообщения: nil — ack, ошибка —
// nack с возвратом в очередь (исчерпание retry уводит в DLQ на уровне
// топологии). Нечитаемый JSON уходит в DLQ сразу, повторять его
// бессмысленно.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	cfg      ConsumerConfig
	stopFunc context.CancelFunc
}

// NewConsumer создаёт Consumer поверх существующего соединения.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	return &Consumer{
		conn:   conn,
		logger: logger,
		cfg:    cfg,
	}
}

// Start запускает цикл потребления. Блокирует до отмены ctx.
// После разрыва соединения подписка переустанавливается, как только
// Connection сообщит о восстановлении.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.stopFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("subscribe failed", "queue", c.cfg.Queue, "error", err)
			if err := c.awaitRestore(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consuming", "queue", c.cfg.Queue, "prefetch", c.cfg.Prefetch)

		if err := c.drain(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery stream ended", "queue", c.cfg.Queue, "error", err)
			if err := c.awaitRestore(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop отменяет цикл потребления.
func (c *Consumer) Stop() {
	if c.stopFunc != nil {
		c.stopFunc()
	}
}

func (c *Consumer) awaitRestore(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		return nil
	}
}

// subscribe выставляет prefetch и открывает поток доставок.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	return deliveries, nil
}

var errStreamClosed = errors.New("delivery stream closed")

// drain читает поток до отмены ctx либо закрытия канала доставок.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errStreamClosed
			}
			c.dispatch(ctx, raw)
		}
	}
}

// dispatch разбирает один кадр и вызывает Handler.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("malformed message",
			"queue", c.cfg.Queue,
			"error", err,
		)
		raw.Nack(false, false)
		return
	}

	d := &Delivery{Message: msg, Raw: raw}

	if err := c.cfg.Handler(ctx, d); err != nil {
		c.logger.Error("handler failed",
			"queue", c.cfg.Queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}

// ParsePayload приводит payload сообщения к конкретному типу.
// Payload после общего Unmarshal лежит как map, поэтому перегоняем
// через JSON ещё раз.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
