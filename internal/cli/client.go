package cli

import (
	"context"

	"github.com/shaiso/Conductor/internal/conductor"
	"github.com/shaiso/Conductor/internal/config"
	"github.com/shaiso/Conductor/internal/domain"
)

// API — операции сервера, которые использует CLI.
type API interface {
	ListTaskDefs(ctx context.Context) ([]domain.TaskDefinition, error)
	GetTaskDef(ctx context.Context, name string) (*domain.TaskDefinition, error)
	RegisterTaskDefs(ctx context.Context, defs []domain.TaskDefinition) error
	UnregisterTaskDef(ctx context.Context, name, reason string) error

	ListWorkflowDefs(ctx context.Context) ([]domain.WorkflowDef, error)
	GetWorkflowDef(ctx context.Context, name string, version int) (*domain.WorkflowDef, error)
	UpdateWorkflowDefs(ctx context.Context, defs []domain.WorkflowDef) error

	StartWorkflow(ctx context.Context, req conductor.StartWorkflowRequest) (string, error)
	GetWorkflow(ctx context.Context, workflowID string, includeTasks bool) (*domain.Workflow, error)
	RunningWorkflows(ctx context.Context, name string, version int) ([]string, error)
	TerminateWorkflow(ctx context.Context, workflowID, reason string) error
	PauseWorkflow(ctx context.Context, workflowID string) error
	ResumeWorkflow(ctx context.Context, workflowID string) error
	RestartWorkflow(ctx context.Context, workflowID string, useLatestDefinitions bool) error

	QueueSizes(ctx context.Context, taskTypes []string) (map[string]int, error)
}

var _ API = (*conductor.Client)(nil)

// NewClient создаёт клиент сервера по конфигурации.
// Непустой baseURL заменяет CONDUCTOR_URL_BASE.
func NewClient(cfg *config.Config, baseURL string) *conductor.Client {
	if baseURL == "" {
		baseURL = cfg.ConductorURL
	}
	return conductor.NewClient(conductor.Config{
		BaseURL: baseURL,
		Headers: cfg.Headers(),
	})
}

// Deps — ленивые зависимости команд.
//
// Создаются после разбора PersistentFlags, поэтому передаются замыканиями.
type Deps struct {
	Client func() (API, error)
	Output func() *Output
	Config func() (*config.Config, error)
}
