package taskdef

import (
	"errors"

	"github.com/shaiso/Conductor/internal/schema"
)

// Ошибки построения definition.
var (
	// ErrSchema — входная или выходная схема не прошла проверку.
	// Совпадает с schema.ErrSchema, чтобы errors.Is работал с обоими.
	ErrSchema = schema.ErrSchema

	// ErrInvalidName — пустое имя task.
	ErrInvalidName = errors.New("task definition name is empty")

	// ErrMerge — не удалось смержить слои definition.
	ErrMerge = errors.New("failed to merge definition layers")
)
