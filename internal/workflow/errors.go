package workflow

import "errors"

// Ошибки построения workflow definition.
var (
	// ErrInvalidName — пустое имя workflow или input поля.
	ErrInvalidName = errors.New("name is empty")

	// ErrInvalidVersion — версия меньше 1.
	ErrInvalidVersion = errors.New("workflow version must be >= 1")

	// ErrDuplicateInput — два input поля с одинаковым именем.
	ErrDuplicateInput = errors.New("duplicate workflow input")

	// ErrNoTasks — workflow без tasks.
	ErrNoTasks = errors.New("workflow has no tasks")

	// ErrEmptyTaskRef — task без taskReferenceName.
	ErrEmptyTaskRef = errors.New("task has empty reference name")

	// ErrDuplicateTaskRef — taskReferenceName повторяется (в том числе во вложенных tasks).
	ErrDuplicateTaskRef = errors.New("duplicate task reference name")

	// ErrUnknownTaskType — пустой или неизвестный тип task.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrEmptyBranches — FORK_JOIN без веток, DO_WHILE без тела,
	// DECISION/SWITCH без единого case.
	ErrEmptyBranches = errors.New("task has no branches")

	// ErrUnknownJoinRef — JOIN ждёт task, которого нет в workflow.
	ErrUnknownJoinRef = errors.New("join references unknown task")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	TaskRef string // taskReferenceName, если ошибка относится к task
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.TaskRef != "" {
		return "task " + e.TaskRef + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(taskRef, field, message string, err error) *ValidationError {
	return &ValidationError{
		TaskRef: taskRef,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
