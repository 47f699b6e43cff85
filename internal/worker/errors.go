package worker

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки воркера.
var (
	// ErrValidation — входные данные не соответствуют входной схеме.
	ErrValidation = errors.New("input validation failed")

	// ErrOutputValidation — COMPLETED результат не содержит обязательных полей.
	ErrOutputValidation = errors.New("output validation failed")

	// ErrTransform — строку не удалось распарсить как JSON.
	// Всегда всплывает как часть ValidationError.
	ErrTransform = errors.New("string is not valid JSON")

	// ErrExecution — пользовательский код вернул ошибку или упал.
	ErrExecution = errors.New("execution failed")

	// ErrNilResult — пользовательский код вернул nil без ошибки.
	ErrNilResult = errors.New("execute returned nil result")

	// ErrNilTask — на вход пришёл nil task.
	ErrNilTask = errors.New("task is nil")

	// ErrNoExecute — в Spec не задана функция выполнения.
	ErrNoExecute = errors.New("execute function is nil")

	// ErrDuplicateWorker — воркер с таким именем уже зарегистрирован.
	ErrDuplicateWorker = errors.New("worker already registered")

	// ErrPollerRunning — poller уже запущен.
	ErrPollerRunning = errors.New("poller already running")
)

// ValidationError — ошибка валидации одного поля.
type ValidationError struct {
	Field   string // wire-имя поля
	Message string // описание ошибки
	Err     error  // базовая ошибка (например, ErrTransform)
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Field + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Field + ": " + e.Message
}

// Unwrap позволяет errors.Is(err, ErrValidation) и errors.Is(err, e.Err).
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// ValidationErrors — все ошибки валидации одного payload.
type ValidationErrors []*ValidationError

// Error объединяет ошибки в одну строку.
func (es ValidationErrors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("%d validation error(s): %s", len(es), strings.Join(parts, "; "))
}

// Unwrap возвращает отдельные ошибки.
func (es ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(es))
	for _, e := range es {
		errs = append(errs, e)
	}
	return errs
}
