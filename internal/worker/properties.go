package worker

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Conductor/internal/schema"
)

// ExecutionProperties — политика нормализации входных данных.
//
// Применяется к каждому task перед валидацией входной схемы.
// Read-only после создания воркера.
type ExecutionProperties struct {
	// ExcludeEmptyInputs — пустые строки считаются отсутствующими (null).
	ExcludeEmptyInputs bool

	// TransformStringToJSONValid — строки в полях со структурным типом
	// (array, object, number, ...) парсятся как JSON.
	TransformStringToJSONValid bool
}

// DefaultExecutionProperties возвращает политику по умолчанию: оба флага включены.
func DefaultExecutionProperties() ExecutionProperties {
	return ExecutionProperties{
		ExcludeEmptyInputs:         true,
		TransformStringToJSONValid: true,
	}
}

// Normalize возвращает нормализованную копию payload.
//
// Порядок проходов фиксирован:
//  1. пустые строки → nil (если ExcludeEmptyInputs)
//  2. JSON-парсинг строк (если TransformStringToJSONValid)
//
// Пустая строка никогда не доходит до JSON-парсера.
// Строка, которую не удалось распарсить, остаётся строкой:
// валидация затем сообщит о несовпадении типа.
func (p ExecutionProperties) Normalize(raw map[string]any, s *schema.Schema) map[string]any {
	out, _ := p.normalize(raw, s)
	return out
}

// normalize — Normalize плюс ошибки парсинга по ключам payload.
func (p ExecutionProperties) normalize(raw map[string]any, s *schema.Schema) (map[string]any, map[string]error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	if p.ExcludeEmptyInputs {
		for k, v := range out {
			if str, ok := v.(string); ok && str == "" {
				out[k] = nil
			}
		}
	}

	if !p.TransformStringToJSONValid || s == nil {
		return out, nil
	}

	var parseErrs map[string]error
	for k, v := range out {
		str, ok := v.(string)
		if !ok {
			continue
		}

		field, ok := s.Lookup(k)
		if !ok || field.Accepts(schema.KindString) {
			continue
		}

		var parsed any
		if err := json.Unmarshal([]byte(str), &parsed); err != nil {
			if parseErrs == nil {
				parseErrs = make(map[string]error)
			}
			parseErrs[k] = fmt.Errorf("%w: %v", ErrTransform, err)
			continue
		}
		out[k] = parsed
	}

	return out, parseErrs
}
