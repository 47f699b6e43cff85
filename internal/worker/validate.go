package worker

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/shaiso/Conductor/internal/schema"
)

// validateInput проверяет нормализованный payload по входной схеме.
//
// Возвращает значения по внутренним именам полей.
// Отсутствующие необязательные поля получают Default.
// Незадекларированные ключи пропускаются как есть.
func validateInput(payload map[string]any, s *schema.Schema, parseErrs map[string]error) (map[string]any, error) {
	values := make(map[string]any, len(payload))
	var errs ValidationErrors

	declared := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		key, v, ok := lookupValue(payload, f)
		declared[f.WireName()] = true
		declared[f.Name] = true

		if !ok {
			if f.Required {
				errs = append(errs, &ValidationError{Field: f.WireName(), Message: "field required"})
				continue
			}
			if f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}

		if err := checkValue(f, v); err != nil {
			err.Err = parseErrs[key]
			errs = append(errs, err)
			continue
		}
		values[f.Name] = v
	}

	for k, v := range payload {
		if !declared[k] {
			values[k] = v
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

// validateOutput проверяет, что в output есть обязательные поля схемы
// и их значения подходят по типу.
func validateOutput(output map[string]any, s *schema.Schema) error {
	var errs ValidationErrors
	for _, f := range s.Fields {
		_, v, ok := lookupValue(output, f)
		if !ok {
			if f.Required {
				errs = append(errs, &ValidationError{Field: f.WireName(), Message: "field required"})
			}
			continue
		}
		if err := checkValue(f, v); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// lookupValue ищет значение поля по wire-имени, затем по внутреннему.
func lookupValue(m map[string]any, f schema.Field) (string, any, bool) {
	if v, ok := m[f.WireName()]; ok {
		return f.WireName(), v, true
	}
	if v, ok := m[f.Name]; ok {
		return f.Name, v, true
	}
	return "", nil, false
}

// checkValue проверяет одно значение. nil допустим только для необязательных полей.
func checkValue(f schema.Field, v any) *ValidationError {
	if v == nil {
		if f.Required {
			return &ValidationError{Field: f.WireName(), Message: "none is not an allowed value"}
		}
		return nil
	}

	kind := kindOf(v)
	if !accepts(f.Kinds, f.IsAny(), kind) {
		return &ValidationError{
			Field:   f.WireName(),
			Message: "expected " + f.TypeString() + ", got " + string(kind),
		}
	}

	if kind == schema.KindArray && f.Items != "" && f.Items != schema.KindAny && f.Accepts(schema.KindArray) {
		rv := reflect.ValueOf(v)
		for i := 0; i < rv.Len(); i++ {
			ik := kindOf(rv.Index(i).Interface())
			if !accepts([]schema.Kind{f.Items}, false, ik) {
				return &ValidationError{
					Field:   f.WireName(),
					Message: "expected array<" + string(f.Items) + ">, item is " + string(ik),
				}
			}
		}
	}

	return nil
}

// accepts проверяет тип с учётом того, что integer — частный случай number.
func accepts(kinds []schema.Kind, isAny bool, k schema.Kind) bool {
	if isAny {
		return true
	}
	for _, want := range kinds {
		if want == k || want == schema.KindAny {
			return true
		}
		if want == schema.KindNumber && k == schema.KindInteger {
			return true
		}
	}
	return false
}

// kindOf определяет тип значения, пришедшего из JSON или из Go-кода.
func kindOf(v any) schema.Kind {
	switch x := v.(type) {
	case nil:
		return schema.KindAny
	case string:
		return schema.KindString
	case bool:
		return schema.KindBoolean
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return schema.KindInteger
		}
		return schema.KindNumber
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return schema.KindInteger
		}
		return schema.KindNumber
	case []any:
		return schema.KindArray
	case map[string]any:
		return schema.KindObject
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.KindInteger
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return schema.KindInteger
		}
		return schema.KindNumber
	case reflect.Slice, reflect.Array:
		return schema.KindArray
	case reflect.Map, reflect.Struct:
		return schema.KindObject
	case reflect.Pointer:
		if rv.IsNil() {
			return schema.KindAny
		}
		return kindOf(rv.Elem().Interface())
	case reflect.String:
		return schema.KindString
	case reflect.Bool:
		return schema.KindBoolean
	default:
		return schema.KindAny
	}
}
