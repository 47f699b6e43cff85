package schema

import (
	"errors"
	"fmt"
)

// ErrSchema — объявление схемы не соответствует контракту.
// Это ошибка программиста: она всплывает при регистрации воркера.
var ErrSchema = errors.New("invalid schema declaration")

// FieldError — ошибка объявления конкретного поля.
type FieldError struct {
	Field  string // имя поля (может быть пустым)
	Reason string // что не так
}

// Error реализует интерфейс error.
func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSchema, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrSchema, e.Field, e.Reason)
}

// Unwrap позволяет errors.Is(err, ErrSchema).
func (e *FieldError) Unwrap() error {
	return ErrSchema
}
