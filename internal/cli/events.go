package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/mq"
)

// NewEventsCmd создаёт группу команд для шины событий RabbitMQ.
func NewEventsCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Observe task result events",
	}

	cmd.AddCommand(newEventsWatchCmd(deps))

	return cmd
}

func newEventsWatchCmd(deps Deps) *cobra.Command {
	var (
		rabbitURL  string
		routingKey string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print task.result events until interrupted",
		Long: `Подписывается на exchange conductor.tasks временной очередью.

Ключ маршрутизации: result.<status>.<task_type>, например
result.failed.# или result.*.http_get_generic.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rabbitURL == "" {
				cfg, err := deps.Config()
				if err != nil {
					return err
				}
				rabbitURL = cfg.RabbitMQURL
			}
			if rabbitURL == "" {
				return errors.New("RabbitMQ URL is not set (use --rabbitmq-url or RABBITMQ_URL)")
			}

			conn, err := mq.NewConnection(rabbitURL, nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				return fmt.Errorf("setup topology: %w", err)
			}

			out := deps.Output()
			consumer := mq.NewConsumer(conn, mq.ConsumerConfig{
				Exchange:   mq.ExchangeTasks,
				RoutingKey: mq.RoutingKey(routingKey),
				Handler:    printEvent(out),
			})

			out.Success(fmt.Sprintf("Watching %s (%s), press Ctrl+C to stop", mq.ExchangeTasks, routingKey))
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rabbitURL, "rabbitmq-url", os.Getenv("RABBITMQ_URL"), "RabbitMQ URL")
	cmd.Flags().StringVar(&routingKey, "routing-key", string(mq.RoutingKeyAllResults), "Binding routing key")

	return cmd
}

// printEvent выводит событие одной строкой или JSON-объектом.
func printEvent(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if out.IsJSON() {
			out.JSON(msg)
			return nil
		}

		if msg.Type != mq.MessageTypeTaskResult {
			out.Line(fmt.Sprintf("%s  %s  %s", msg.Timestamp.Format("15:04:05.000"), msg.Type, msg.ID))
			return nil
		}

		p, err := mq.DecodePayload[mq.TaskResultPayload](msg)
		if err != nil {
			// Битый payload не стоит возвращать в очередь.
			out.Error(err.Error())
			return nil
		}

		line := fmt.Sprintf("%s  %-26s  %-20s  task=%s workflow=%s",
			msg.Timestamp.Format("15:04:05.000"), p.Status, p.TaskType, p.TaskID, p.WorkflowInstanceID)
		if len(p.Logs) > 0 {
			line += "  " + strings.Join(p.Logs, "; ")
		}
		out.Line(line)
		return nil
	}
}
