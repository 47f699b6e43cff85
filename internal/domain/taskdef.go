package domain

import "encoding/json"

// TaskDefinition — задекларированный контракт одного типа task.
//
// Это то, что регистрируется на сервере через metadata/taskdefs.
// Создаётся один раз при регистрации воркера (см. taskdef.Build)
// и дальше только читается, поэтому безопасно разделяется между горутинами.
//
// Поля-указатели опциональны: nil не попадает в JSON.
type TaskDefinition struct {
	// Name — уникальное имя типа task.
	Name string `json:"name"`

	// Description — JSON-строка вида {"description": ..., "labels": [...], "rbac": [...]}.
	// У сервера нет отдельных полей под labels/rbac, поэтому они живут здесь.
	Description string `json:"description,omitempty"`

	RetryCount             int           `json:"retryCount"`
	TimeoutSeconds         int           `json:"timeoutSeconds"`
	InputKeys              []string      `json:"inputKeys"`
	OutputKeys             []string      `json:"outputKeys"`
	TimeoutPolicy          TimeoutPolicy `json:"timeoutPolicy"`
	RetryLogic             RetryLogic    `json:"retryLogic"`
	RetryDelaySeconds      int           `json:"retryDelaySeconds"`
	ResponseTimeoutSeconds int           `json:"responseTimeoutSeconds"`

	ConcurrentExecLimit *int           `json:"concurrentExecLimit,omitempty"`
	InputTemplate       map[string]any `json:"inputTemplate,omitempty"`

	RateLimitPerFrequency       int `json:"rateLimitPerFrequency"`
	RateLimitFrequencyInSeconds int `json:"rateLimitFrequencyInSeconds"`

	IsolationGroupID   string `json:"isolationGroupId,omitempty"`
	ExecutionNameSpace string `json:"executionNameSpace,omitempty"`
	OwnerEmail         string `json:"ownerEmail,omitempty"`

	PollTimeoutSeconds *int `json:"pollTimeoutSeconds,omitempty"`
	BackoffScaleFactor *int `json:"backoffScaleFactor,omitempty"`
	LimitToThreadCount *int `json:"limitToThreadCount,omitempty"`
}

// DescriptionMeta — человекочитаемое описание плюс метаданные,
// которые сервер хранит внутри одного строкового поля description.
type DescriptionMeta struct {
	Description string   `json:"description"`
	Labels      []string `json:"labels,omitempty"`
	RBAC        []string `json:"rbac,omitempty"`
}

// Encode сериализует метаданные в строку для поля description.
func (m DescriptionMeta) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDescription разбирает description обратно.
// Строка, не являющаяся JSON, считается просто текстом описания.
func DecodeDescription(s string) DescriptionMeta {
	var m DescriptionMeta
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return DescriptionMeta{Description: s}
	}
	return m
}
