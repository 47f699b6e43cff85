package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/schema"
	"github.com/shaiso/Conductor/internal/taskdef"
)

// Префиксы логов результата. По ним отличают причину FAILED.
const (
	logValidationError       = "validation error: "
	logExecutionError        = "execution error: "
	logOutputValidationError = "output validation error: "
)

// ExecuteFunc — пользовательская логика воркера.
//
// Возвращает результат с выставленным статусом или ошибку.
// Ошибка и panic превращаются в FAILED результат.
type ExecuteFunc func(ctx context.Context, in *Input) (*domain.TaskResult, error)

// Spec — декларация воркера.
type Spec struct {
	// Definition — имя, описание, метки и явные переопределения.
	Definition taskdef.Declaration

	// Input/Output — схемы. nil означает пустую схему.
	Input  *schema.Schema
	Output *schema.Schema

	// Properties — политика нормализации. nil → DefaultExecutionProperties().
	Properties *ExecutionProperties

	// Template — шаблон definition (опционально).
	Template *taskdef.Template

	// OwnerEmail — owner_email системного слоя (опционально).
	OwnerEmail string

	// Execute — пользовательская логика (обязательно).
	Execute ExecuteFunc

	// Metrics — приёмник метрик (опционально).
	Metrics Metrics

	// Logger (опционально; по умолчанию slog.Default()).
	Logger *slog.Logger
}

// Worker — задекларированный исполнитель одного типа task.
//
// Собирается один раз через New и дальше только читается,
// поэтому Execute безопасно вызывать из нескольких горутин.
type Worker struct {
	def        *domain.TaskDefinition
	input      *schema.Schema
	output     *schema.Schema
	properties ExecutionProperties
	execute    ExecuteFunc
	metrics    Metrics
	logger     *slog.Logger
}

// New проверяет декларацию и строит definition.
//
// Ошибки (taskdef.ErrSchema, taskdef.ErrInvalidName, ErrNoExecute) —
// ошибки программиста; их стоит обрабатывать как фатальные при старте.
func New(spec Spec) (*Worker, error) {
	if spec.Execute == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoExecute, spec.Definition.Name)
	}

	input := spec.Input
	if input == nil {
		input = schema.Empty()
	}
	output := spec.Output
	if output == nil {
		output = schema.Empty()
	}

	var opts []taskdef.Option
	if spec.OwnerEmail != "" {
		opts = append(opts, taskdef.WithOwnerEmail(spec.OwnerEmail))
	}

	def, err := taskdef.Build(spec.Definition, input, output, spec.Template, opts...)
	if err != nil {
		return nil, err
	}

	props := DefaultExecutionProperties()
	if spec.Properties != nil {
		props = *spec.Properties
	}

	metrics := spec.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	logger := spec.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		def:        def,
		input:      input,
		output:     output,
		properties: props,
		execute:    spec.Execute,
		metrics:    metrics,
		logger:     logger.With("task_type", def.Name),
	}, nil
}

// Name возвращает тип task, который обслуживает воркер.
func (w *Worker) Name() string {
	return w.def.Name
}

// Definition возвращает копию definition для регистрации на сервере.
func (w *Worker) Definition() domain.TaskDefinition {
	return *w.def
}

// Properties возвращает политику нормализации.
func (w *Worker) Properties() ExecutionProperties {
	return w.properties
}

// Execute выполняет task и всегда возвращает корректный результат.
//
// Состояния: RECEIVED → VALIDATING → EXECUTING → {COMPLETED, FAILED}.
// Ошибки валидации и пользовательского кода не выходят наружу:
// они превращаются в FAILED с причиной в логах.
func (w *Worker) Execute(ctx context.Context, task *domain.Task) *domain.TaskResult {
	if task == nil {
		return domain.Failed(logValidationError + ErrNilTask.Error())
	}

	logger := w.logger.With("task_id", task.TaskID, "workflow_id", task.WorkflowInstanceID)
	start := time.Now()

	result := w.run(ctx, task, logger)

	result.TaskID = task.TaskID
	result.WorkflowInstanceID = task.WorkflowInstanceID
	if result.WorkerID == "" {
		result.WorkerID = task.WorkerID
	}

	w.metrics.TaskExecuteTime(w.def.Name, time.Since(start))
	logger.Debug("task executed", "status", result.Status, "duration", time.Since(start))

	return result
}

// run проходит состояния VALIDATING и EXECUTING.
func (w *Worker) run(ctx context.Context, task *domain.Task, logger *slog.Logger) *domain.TaskResult {
	// VALIDATING
	in, err := w.prepare(task)
	if err != nil {
		logger.Warn("input validation failed", "error", err)
		w.metrics.TaskExecuteError(w.def.Name, err)
		return domain.Failed(logValidationError + err.Error())
	}

	// EXECUTING
	result, err := w.invoke(ctx, in)
	if err != nil {
		logger.Error("task execution failed", "error", err)
		w.metrics.TaskExecuteError(w.def.Name, err)
		return domain.Failed(logExecutionError + err.Error())
	}

	switch result.Status {
	case "":
		result.Status = domain.TaskResultCompleted
	case domain.TaskResultFailed, domain.TaskResultFailedWithTerminalError:
		if len(result.Logs) == 0 {
			reason := result.ReasonForIncompletion
			if reason == "" {
				reason = "task failed without logs"
			}
			result.AddLog(reason)
		}
		return result
	}

	if result.Status == domain.TaskResultCompleted {
		if err := validateOutput(result.Output, w.output); err != nil {
			logger.Error("output validation failed", "error", err)
			w.metrics.TaskExecuteError(w.def.Name, err)
			failed := domain.Failed(logOutputValidationError + err.Error())
			failed.Output = result.Output
			return failed
		}
	}

	return result
}

// prepare нормализует и валидирует inputData.
func (w *Worker) prepare(task *domain.Task) (*Input, error) {
	raw, parseErrs := w.properties.normalize(task.InputData, w.input)

	values, err := validateInput(raw, w.input, parseErrs)
	if err != nil {
		return nil, err
	}

	return &Input{
		Task:   task,
		Values: values,
		Raw:    raw,
	}, nil
}

// invoke вызывает пользовательский код, перехватывая panic.
func (w *Worker) invoke(ctx context.Context, in *Input) (result *domain.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic in execute", "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("%w: panic: %v", ErrExecution, r)
		}
	}()

	result, err = w.execute(ctx, in)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNilResult
	}
	return result, nil
}

// Input — провалидированные входные данные task.
type Input struct {
	// Task — исходный task с сервера.
	Task *domain.Task

	// Values — значения по внутренним именам полей, с Default.
	Values map[string]any

	// Raw — нормализованный payload по wire-именам.
	Raw map[string]any
}

// Get возвращает значение поля по внутреннему имени.
func (in *Input) Get(name string) (any, bool) {
	v, ok := in.Values[name]
	return v, ok
}

// String возвращает строковое значение поля или "".
func (in *Input) String(name string) string {
	if s, ok := in.Values[name].(string); ok {
		return s
	}
	return ""
}

// Bind заполняет dst значениями через JSON (ключи — внутренние имена).
func (in *Input) Bind(dst any) error {
	b, err := json.Marshal(in.Values)
	if err != nil {
		return fmt.Errorf("bind input: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("bind input: %w", err)
	}
	return nil
}
