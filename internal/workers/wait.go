package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/schema"
	"github.com/shaiso/Conductor/internal/taskdef"
	"github.com/shaiso/Conductor/internal/worker"
)

// WaitTaskName — тип task воркера ожидания.
const WaitTaskName = "Wait_in_seconds"

// maxWait — верхняя граница ожидания; дольше стоит использовать WAIT task.
const maxWait = time.Hour

// WaitInput — входная схема: time (секунды).
func WaitInput() *schema.Schema {
	return schema.New(schema.Field{
		Name:        "time",
		Kinds:       []schema.Kind{schema.KindInteger, schema.KindNumber},
		Required:    true,
		Description: "Time to wait in seconds",
	})
}

// NewWait создаёт воркер Wait_in_seconds.
//
// Ожидание прерывается отменой контекста. Poller отменяет его только
// по истечении ShutdownTimeout и такой результат на сервер не отправляет.
func NewWait(cfg Config) (*worker.Worker, error) {
	cfg = cfg.withDefaults()

	return worker.New(worker.Spec{
		Definition: taskdef.Declaration{
			Name:        WaitTaskName,
			Description: "Wait for a given number of seconds",
			Labels:      []string{"UTILS"},
			Overrides: taskdef.Overrides{
				TimeoutSeconds:         taskdef.Ptr(int(maxWait/time.Second) + 60),
				ResponseTimeoutSeconds: taskdef.Ptr(int(maxWait/time.Second) + 60),
			},
		},
		Input:      WaitInput(),
		Output:     WaitInput(),
		Template:   cfg.templateFor(WaitTaskName),
		OwnerEmail: cfg.OwnerEmail,
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
		Execute: func(ctx context.Context, in *worker.Input) (*domain.TaskResult, error) {
			d, _ := seconds(toFloat(in.Values["time"]))
			if d < 0 || d > maxWait {
				return domain.Failed(fmt.Sprintf("time must be between 0 and %d seconds", int(maxWait/time.Second))), nil
			}

			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-timer.C:
				return domain.Completed(map[string]any{"time": in.Values["time"]}), nil
			case <-ctx.Done():
				return nil, fmt.Errorf("wait interrupted: %w", ctx.Err())
			}
		},
	})
}

// toFloat приводит числовое значение из JSON или Go-кода к float64.
func toFloat(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}
