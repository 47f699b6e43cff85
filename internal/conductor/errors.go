package conductor

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента.
var (
	// ErrNotFound — ресурс не найден (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrConflict — ресурс уже существует или в неподходящем состоянии (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrBadRequest — сервер отклонил запрос (HTTP 4xx).
	ErrBadRequest = errors.New("bad request")

	// ErrServer — ошибка на стороне сервера (HTTP 5xx).
	ErrServer = errors.New("server error")
)

// APIError — ответ сервера с кодом >= 400.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap сопоставляет код ответа с sentinel-ошибкой.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}
