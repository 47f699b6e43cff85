package worker

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Conductor/internal/schema"
)

func propertiesSchema() *schema.Schema {
	return schema.New(
		schema.Field{Name: "required_string", Kinds: []schema.Kind{schema.KindString}, Required: true},
		schema.Field{Name: "optional_string", Kinds: []schema.Kind{schema.KindString}},
		schema.Field{Name: "string_list", Kinds: []schema.Kind{schema.KindArray}, Items: schema.KindString},
		schema.Field{Name: "dict", Kinds: []schema.Kind{schema.KindObject}},
		schema.Field{Name: "count", Kinds: []schema.Kind{schema.KindInteger}},
		schema.Field{Name: "anything"},
	)
}

func TestNormalize_EmptyStringBecomesNilBeforeParsing(t *testing.T) {
	props := DefaultExecutionProperties()

	out, parseErrs := props.normalize(map[string]any{
		"optional_string": "",
		"dict":            "",
	}, propertiesSchema())

	if v, ok := out["optional_string"]; !ok || v != nil {
		t.Errorf("expected optional_string=nil, got %v (present=%v)", v, ok)
	}
	if v, ok := out["dict"]; !ok || v != nil {
		t.Errorf("expected dict=nil, got %v", v)
	}
	if len(parseErrs) != 0 {
		t.Errorf("empty strings must not reach the JSON parser: %v", parseErrs)
	}
}

func TestNormalize_ParsesStructuredStrings(t *testing.T) {
	props := DefaultExecutionProperties()

	out := props.Normalize(map[string]any{
		"string_list": `["a","b","c"]`,
		"dict":        `{"key": "value"}`,
		"count":       "5",
	}, propertiesSchema())

	if !reflect.DeepEqual(out["string_list"], []any{"a", "b", "c"}) {
		t.Errorf("unexpected string_list: %#v", out["string_list"])
	}
	if !reflect.DeepEqual(out["dict"], map[string]any{"key": "value"}) {
		t.Errorf("unexpected dict: %#v", out["dict"])
	}
	if out["count"] != float64(5) {
		t.Errorf("unexpected count: %#v", out["count"])
	}
}

func TestNormalize_KeepsStringFields(t *testing.T) {
	props := DefaultExecutionProperties()

	out := props.Normalize(map[string]any{
		"required_string": `["not","a","list"]`,
		"anything":        `{"a": 1}`,
		"undeclared":      `[1,2]`,
	}, propertiesSchema())

	if out["required_string"] != `["not","a","list"]` {
		t.Errorf("string field must not be parsed: %#v", out["required_string"])
	}
	if out["anything"] != `{"a": 1}` {
		t.Errorf("any field must not be parsed: %#v", out["anything"])
	}
	if out["undeclared"] != `[1,2]` {
		t.Errorf("undeclared field must not be parsed: %#v", out["undeclared"])
	}
}

func TestNormalize_InvalidJSONKeepsString(t *testing.T) {
	props := DefaultExecutionProperties()

	out, parseErrs := props.normalize(map[string]any{"string_list": "a,b,c"}, propertiesSchema())

	if out["string_list"] != "a,b,c" {
		t.Errorf("expected original string, got %#v", out["string_list"])
	}
	if !errors.Is(parseErrs["string_list"], ErrTransform) {
		t.Errorf("expected ErrTransform, got %v", parseErrs["string_list"])
	}
}

func TestNormalize_Disabled(t *testing.T) {
	props := ExecutionProperties{}

	out := props.Normalize(map[string]any{
		"optional_string": "",
		"string_list":     `["a"]`,
	}, propertiesSchema())

	if out["optional_string"] != "" {
		t.Errorf("expected empty string kept, got %#v", out["optional_string"])
	}
	if out["string_list"] != `["a"]` {
		t.Errorf("expected string kept, got %#v", out["string_list"])
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"optional_string": "", "string_list": `["a"]`}

	DefaultExecutionProperties().Normalize(raw, propertiesSchema())

	if raw["optional_string"] != "" || raw["string_list"] != `["a"]` {
		t.Errorf("input was mutated: %#v", raw)
	}
}

func TestValidateInput(t *testing.T) {
	s := schema.New(
		schema.Field{Name: "name", Kinds: []schema.Kind{schema.KindString}, Required: true},
		schema.Field{Name: "status_code", Alias: "statusCode", Kinds: []schema.Kind{schema.KindInteger}},
		schema.Field{Name: "ratio", Kinds: []schema.Kind{schema.KindNumber}},
		schema.Field{Name: "tags", Kinds: []schema.Kind{schema.KindArray}, Items: schema.KindString},
		schema.Field{Name: "method", Kinds: []schema.Kind{schema.KindString}, Default: "GET"},
	)

	tests := []struct {
		name    string
		payload map[string]any
		wantErr bool
		check   func(t *testing.T, values map[string]any)
	}{
		{
			name:    "valid with alias and default",
			payload: map[string]any{"name": "x", "statusCode": float64(200), "ratio": 0.5},
			check: func(t *testing.T, values map[string]any) {
				if values["status_code"] != float64(200) {
					t.Errorf("expected status_code by internal name, got %v", values)
				}
				if values["method"] != "GET" {
					t.Errorf("expected default method, got %v", values["method"])
				}
			},
		},
		{
			name:    "internal name accepted",
			payload: map[string]any{"name": "x", "status_code": 201},
		},
		{
			name:    "integer accepted as number",
			payload: map[string]any{"name": "x", "ratio": float64(1)},
		},
		{
			name:    "missing required",
			payload: map[string]any{},
			wantErr: true,
		},
		{
			name:    "required is nil",
			payload: map[string]any{"name": nil},
			wantErr: true,
		},
		{
			name:    "optional nil is allowed",
			payload: map[string]any{"name": "x", "statusCode": nil},
		},
		{
			name:    "fractional integer",
			payload: map[string]any{"name": "x", "statusCode": 1.5},
			wantErr: true,
		},
		{
			name:    "wrong item kind",
			payload: map[string]any{"name": "x", "tags": []any{"a", float64(1)}},
			wantErr: true,
		},
		{
			name:    "unknown keys pass through",
			payload: map[string]any{"name": "x", "extra": true},
			check: func(t *testing.T, values map[string]any) {
				if values["extra"] != true {
					t.Errorf("expected extra passed through, got %v", values)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := validateInput(tt.payload, s, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, values)
			}
		})
	}
}

func TestValidateInput_ReportsTransformError(t *testing.T) {
	s := propertiesSchema()
	raw, parseErrs := DefaultExecutionProperties().normalize(map[string]any{
		"required_string": "x",
		"string_list":     "not json",
	}, s)

	_, err := validateInput(raw, s, parseErrs)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !errors.Is(err, ErrTransform) {
		t.Errorf("expected ErrTransform in chain, got %v", err)
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 1 || verrs[0].Field != "string_list" {
		t.Errorf("unexpected validation errors: %v", err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value any
		want  schema.Kind
	}{
		{"s", schema.KindString},
		{true, schema.KindBoolean},
		{float64(3), schema.KindInteger},
		{3.25, schema.KindNumber},
		{7, schema.KindInteger},
		{[]any{1}, schema.KindArray},
		{[]string{"a"}, schema.KindArray},
		{map[string]any{}, schema.KindObject},
		{map[string]string{}, schema.KindObject},
		{struct{}{}, schema.KindObject},
	}

	for _, tt := range tests {
		if got := kindOf(tt.value); got != tt.want {
			t.Errorf("kindOf(%#v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
