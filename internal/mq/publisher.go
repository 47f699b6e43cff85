package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conductor/internal/domain"
)

// MessageType — тип события.
type MessageType string

const (
	// MessageTypeTaskResult — воркер отправил результат task на сервер.
	MessageTypeTaskResult MessageType = "task.result"
)

// Message — конверт события.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// TaskResultPayload — payload события task.result.
type TaskResultPayload struct {
	TaskType           string                  `json:"task_type"`
	TaskID             string                  `json:"task_id"`
	WorkflowInstanceID string                  `json:"workflow_instance_id"`
	WorkerID           string                  `json:"worker_id,omitempty"`
	Status             domain.TaskResultStatus `json:"status"`
	Output             map[string]any          `json:"output,omitempty"`
	Logs               []string                `json:"logs,omitempty"`
}

// NewMessage упаковывает payload в конверт с новым ID.
func NewMessage(msgType MessageType, payload any, now time.Time) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   body,
		Timestamp: now.UTC(),
	}, nil
}

// NewTaskResultMessage строит событие task.result из результата.
func NewTaskResultMessage(taskType string, result *domain.TaskResult, now time.Time) (*Message, error) {
	if result == nil {
		return nil, fmt.Errorf("task result is nil")
	}
	return NewMessage(MessageTypeTaskResult, TaskResultPayload{
		TaskType:           taskType,
		TaskID:             result.TaskID,
		WorkflowInstanceID: result.WorkflowInstanceID,
		WorkerID:           result.WorkerID,
		Status:             result.Status,
		Output:             result.Output,
		Logs:               result.Logs,
	}, now)
}

// DecodePayload разбирает payload сообщения в T.
func DecodePayload[T any](msg *Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}

// Publisher публикует события в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
}

// Publish отправляет сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishTaskResult публикует результат task. Реализует worker.EventPublisher.
func (p *Publisher) PublishTaskResult(ctx context.Context, taskType string, result *domain.TaskResult) error {
	msg, err := NewTaskResultMessage(taskType, result, p.now())
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeTasks, ResultRoutingKey(result.Status, taskType), msg)
}
