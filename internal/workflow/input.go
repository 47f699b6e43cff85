package workflow

import (
	"encoding/json"
	"strings"
)

// InputType — как UI показывает input поле.
type InputType string

const (
	InputToggle   InputType = "toggle"
	InputSelect   InputType = "select"
	InputString   InputType = "string"
	InputInt      InputType = "int"
	InputTextarea InputType = "textarea"
)

// InputField — входной параметр workflow.
type InputField struct {
	Name        string
	Default     any
	Description string
	Options     []any
	Type        InputType
}

// Ref возвращает выражение, ссылающееся на поле: ${workflow.input.<name>}.
func (f InputField) Ref() string {
	return "${workflow.input." + f.Name + "}"
}

// inputParam — описание поля в inputParameters. Порядок полей важен для UI.
type inputParam struct {
	Value       any       `json:"value"`
	Description string    `json:"description"`
	Type        InputType `json:"type"`
	Options     []any     `json:"options"`
}

// param сериализует поле в строку {"<name>": {"value", "description", "type", "options"}}.
func (f InputField) param() (string, error) {
	if strings.TrimSpace(f.Name) == "" {
		return "", ErrInvalidName
	}

	b, err := json.Marshal(map[string]inputParam{
		f.Name: {
			Value:       f.Default,
			Description: f.Description,
			Type:        f.Type,
			Options:     f.Options,
		},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
