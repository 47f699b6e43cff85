package workers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shaiso/Conductor/internal/taskdef"
	"github.com/shaiso/Conductor/internal/worker"
	"github.com/shaiso/Conductor/internal/workflow"
)

// Ошибки встроенных воркеров.
var (
	// ErrInvalidRequest — http_request не удалось разобрать.
	ErrInvalidRequest = errors.New("invalid http_request")

	// ErrHTTPRequest — запрос не выполнен (сеть, таймаут).
	ErrHTTPRequest = errors.New("http request failed")
)

// Config — общие настройки встроенных воркеров.
type Config struct {
	// HTTPClient — клиент для http_get_generic. По умолчанию новый http.Client.
	HTTPClient *http.Client

	// Templates — шаблон definition по типу task (например, config.TemplateFor).
	Templates func(taskType string) *taskdef.Template

	OwnerEmail string
	Metrics    worker.Metrics
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) templateFor(taskType string) *taskdef.Template {
	if c.Templates == nil {
		return nil
	}
	return c.Templates(taskType)
}

// All создаёт все встроенные воркеры.
func All(cfg Config) ([]*worker.Worker, error) {
	ctors := []func(Config) (*worker.Worker, error){NewHTTP, NewWait}

	out := make([]*worker.Worker, 0, len(ctors))
	for _, ctor := range ctors {
		w, err := ctor(cfg)
		if err != nil {
			return nil, fmt.Errorf("create worker: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Workflows возвращает встроенные workflow.
func Workflows() []*workflow.Workflow {
	return []*workflow.Workflow{HTTPRequestWorkflow(), PostToSlack()}
}
