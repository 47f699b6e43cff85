package schema

import "strings"

// Kind — допустимый тип значения поля.
type Kind string

// Типы значений. Соответствуют типам JSON, плюс "any".
const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindAny     Kind = "any"
)

var validKinds = map[Kind]bool{
	KindString:  true,
	KindInteger: true,
	KindNumber:  true,
	KindBoolean: true,
	KindArray:   true,
	KindObject:  true,
	KindAny:     true,
}

// IsValid проверяет, что тип известен.
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// Field — объявление одного поля.
type Field struct {
	// Name — внутреннее имя поля.
	Name string

	// Alias — имя поля на wire. Пустое значит "как Name".
	Alias string

	// Kinds — допустимые типы (union). Пустой список значит KindAny.
	Kinds []Kind

	// Items — тип элементов для массивов. Пустой — без ограничений.
	Items Kind

	// Required — поле обязано присутствовать и быть не null.
	Required bool

	// Default — значение для отсутствующего необязательного поля.
	Default any

	// Description — описание для людей.
	Description string
}

// WireName возвращает имя поля в payload.
func (f Field) WireName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Accepts проверяет, входит ли тип в union поля.
func (f Field) Accepts(k Kind) bool {
	if f.IsAny() {
		return true
	}
	for _, fk := range f.Kinds {
		if fk == k {
			return true
		}
	}
	return false
}

// IsAny возвращает true, если поле принимает значения любого типа.
func (f Field) IsAny() bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == KindAny {
			return true
		}
	}
	return false
}

// TypeString возвращает union типов в виде "string|object".
func (f Field) TypeString() string {
	if f.IsAny() {
		return string(KindAny)
	}
	parts := make([]string, 0, len(f.Kinds))
	for _, k := range f.Kinds {
		if k == KindArray && f.Items != "" {
			parts = append(parts, "array<"+string(f.Items)+">")
			continue
		}
		parts = append(parts, string(k))
	}
	return strings.Join(parts, "|")
}

// Schema — упорядоченный набор полей.
//
// Порядок полей важен: из него строятся inputKeys/outputKeys.
type Schema struct {
	Fields []Field
}

// New создаёт схему из полей.
func New(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// Empty возвращает схему без полей.
func Empty() *Schema {
	return &Schema{}
}

// Keys возвращает wire-имена полей в порядке объявления.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.WireName())
	}
	return keys
}

// Lookup ищет поле по wire-имени, затем по внутреннему имени.
func (s *Schema) Lookup(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.WireName() == key {
			return f, true
		}
	}
	for _, f := range s.Fields {
		if f.Name == key {
			return f, true
		}
	}
	return Field{}, false
}

// Check проверяет само объявление схемы.
//
// Проверяет:
//   - схема не nil
//   - у каждого поля есть имя
//   - wire-имена уникальны
//   - типы полей известны
func (s *Schema) Check() error {
	if s == nil {
		return &FieldError{Reason: "schema is nil"}
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return &FieldError{Field: f.Alias, Reason: "empty field name"}
		}

		wire := f.WireName()
		if seen[wire] {
			return &FieldError{Field: wire, Reason: "duplicate wire name"}
		}
		seen[wire] = true

		for _, k := range f.Kinds {
			if !k.IsValid() {
				return &FieldError{Field: f.Name, Reason: "unknown kind " + string(k)}
			}
		}
		if f.Items != "" && !f.Items.IsValid() {
			return &FieldError{Field: f.Name, Reason: "unknown item kind " + string(f.Items)}
		}
	}

	return nil
}

// Required возвращает обязательные поля.
func (s *Schema) Required() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}
