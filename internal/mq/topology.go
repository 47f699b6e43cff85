package mq

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conductor/internal/domain"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeTasks Exchange = "conductor.tasks"
	ExchangeDLQ   Exchange = "conductor.dlq"
)

const (
	// QueueTaskResults получает все результаты.
	QueueTaskResults Queue = "tasks.results"

	// QueueTaskFailures получает только неуспешные результаты.
	QueueTaskFailures Queue = "tasks.failures"

	QueueDLQResults Queue = "dlq.results"
)

// Ограничения очередей. Постоянного потребителя у них может не быть,
// поэтому старые сообщения вытесняются, а не копятся в брокере.
const (
	resultQueueMaxLength = 10000
	resultQueueTTL       = 24 * time.Hour
	dlqMaxLength         = 1000
	dlqTTL               = 7 * 24 * time.Hour
)

const (
	RoutingKeyAllResults RoutingKey = "result.#"
	RoutingKeyDLQResults RoutingKey = "results"
)

// ResultRoutingKey возвращает ключ для результата: result.<status>.<task type>.
//
// Точки в task type заменяются на "_", чтобы не ломать topic-маршрутизацию.
func ResultRoutingKey(status domain.TaskResultStatus, taskType string) RoutingKey {
	s := strings.ToLower(string(status))
	if s == "" {
		s = "unknown"
	}
	t := strings.ReplaceAll(taskType, ".", "_")
	if t == "" {
		t = "unknown"
	}
	return RoutingKey("result." + s + "." + t)
}

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// topology — полное описание объявляемых сущностей.
type topology struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}

func defaultTopology() topology {
	resultArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQResults),
		"x-max-length":              int32(resultQueueMaxLength),
		"x-overflow":                "drop-head",
		"x-message-ttl":             int32(resultQueueTTL / time.Millisecond),
	}
	dlqArgs := amqp.Table{
		"x-max-length":  int32(dlqMaxLength),
		"x-overflow":    "drop-head",
		"x-message-ttl": int32(dlqTTL / time.Millisecond),
	}

	failed := strings.ToLower(string(domain.TaskResultFailed))
	terminal := strings.ToLower(string(domain.TaskResultFailedWithTerminalError))

	return topology{
		exchanges: []exchangeDecl{
			{ExchangeTasks, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		queues: []queueDecl{
			{QueueTaskResults, resultArgs},
			{QueueTaskFailures, resultArgs},
			{QueueDLQResults, dlqArgs},
		},
		bindings: []bindingDecl{
			{QueueTaskResults, RoutingKeyAllResults, ExchangeTasks},
			{QueueTaskFailures, RoutingKey("result." + failed + ".*"), ExchangeTasks},
			{QueueTaskFailures, RoutingKey("result." + terminal + ".*"), ExchangeTasks},
			{QueueDLQResults, RoutingKeyDLQResults, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	t := defaultTopology()

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range t.exchanges {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range t.queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range t.bindings {
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}
