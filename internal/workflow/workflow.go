package workflow

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/shaiso/Conductor/internal/domain"
)

// Значения по умолчанию для workflow definition.
const (
	DefaultTimeoutPolicy  = domain.TimeoutPolicyTimeOutWorkflow
	DefaultTimeoutSeconds = 60
)

// Workflow — декларативное описание workflow.
type Workflow struct {
	Name        string
	Version     int
	Description string
	Labels      []string
	RBAC        []string

	Restartable bool
	Inputs      []InputField
	Tasks       []domain.WorkflowTask

	OutputParameters map[string]any

	// TimeoutPolicy — пустое значение означает TIME_OUT_WF.
	TimeoutPolicy domain.TimeoutPolicy

	// TimeoutSeconds — nil означает 60; явный 0 отключает таймаут.
	TimeoutSeconds *int

	FailureWorkflow               string
	SchemaVersion                 int
	WorkflowStatusListenerEnabled *bool
	OwnerEmail                    string
	OwnerApp                      string
	Variables                     map[string]any
}

// Input возвращает input поле по имени.
func (w *Workflow) Input(name string) (InputField, bool) {
	for _, f := range w.Inputs {
		if f.Name == name {
			return f, true
		}
	}
	return InputField{}, false
}

// Build проверяет описание и собирает definition для metadata/workflow.
//
// inputParameters — по одной JSON-строке на input поле, inputTemplate —
// значения по умолчанию этих полей. Повторный вызов даёт идентичный результат.
func (w *Workflow) Build() (*domain.WorkflowDef, error) {
	name := strings.TrimSpace(w.Name)
	if name == "" {
		return nil, fmt.Errorf("workflow: %w", ErrInvalidName)
	}
	if w.Version < 1 {
		return nil, fmt.Errorf("workflow %s: %w", name, ErrInvalidVersion)
	}

	params := make([]string, 0, len(w.Inputs))
	template := make(map[string]any, len(w.Inputs))
	for _, f := range w.Inputs {
		p, err := f.param()
		if err != nil {
			return nil, fmt.Errorf("workflow %s: input: %w", name, err)
		}
		if _, dup := template[f.Name]; dup {
			return nil, fmt.Errorf("workflow %s: %w: %s", name, ErrDuplicateInput, f.Name)
		}
		params = append(params, p)
		template[f.Name] = f.Default
	}

	if err := Validate(w.Tasks); err != nil {
		return nil, fmt.Errorf("workflow %s: %w", name, err)
	}

	description, err := domain.DescriptionMeta{
		Description: w.Description,
		Labels:      w.Labels,
		RBAC:        w.RBAC,
	}.Encode()
	if err != nil {
		return nil, fmt.Errorf("workflow %s: encode description: %w", name, err)
	}

	tasks, err := cloneTasks(w.Tasks)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: copy tasks: %w", name, err)
	}

	def := &domain.WorkflowDef{
		Name:             name,
		Description:      description,
		Version:          w.Version,
		Tasks:            tasks,
		InputParameters:  params,
		OutputParameters: map[string]any{},
		InputTemplate:    template,
		Restartable:      w.Restartable,
		TimeoutPolicy:    DefaultTimeoutPolicy,
		TimeoutSeconds:   DefaultTimeoutSeconds,

		FailureWorkflow:               w.FailureWorkflow,
		SchemaVersion:                 w.SchemaVersion,
		WorkflowStatusListenerEnabled: w.WorkflowStatusListenerEnabled,
		OwnerEmail:                    w.OwnerEmail,
		OwnerApp:                      w.OwnerApp,
	}
	maps.Copy(def.OutputParameters, w.OutputParameters)
	if w.Variables != nil {
		def.Variables = maps.Clone(w.Variables)
	}
	if w.TimeoutPolicy != "" {
		def.TimeoutPolicy = w.TimeoutPolicy
	}
	if w.TimeoutSeconds != nil {
		def.TimeoutSeconds = *w.TimeoutSeconds
	}

	return def, nil
}

// cloneTasks делает глубокую копию через JSON, чтобы definition
// не разделял вложенные map и slice с описанием.
func cloneTasks(tasks []domain.WorkflowTask) ([]domain.WorkflowTask, error) {
	b, err := json.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	var out []domain.WorkflowTask
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
