package domain

// Task — task, полученный воркером через poll.
//
// Сервер возвращает гораздо больше полей; здесь только те, что нужны
// воркеру для выполнения и отчёта. Остальные поля игнорируются при decode.
type Task struct {
	// TaskID — уникальный идентификатор экземпляра task.
	TaskID string `json:"taskId"`

	// TaskType — имя task definition (совпадает с TaskDefinition.Name).
	TaskType string `json:"taskType"`

	// ReferenceTaskName — ссылка на task внутри workflow.
	ReferenceTaskName string `json:"referenceTaskName,omitempty"`

	// WorkflowInstanceID — экземпляр workflow, которому принадлежит task.
	WorkflowInstanceID string `json:"workflowInstanceId"`

	// WorkflowType — имя workflow definition.
	WorkflowType string `json:"workflowType,omitempty"`

	// Status — статус task на сервере (SCHEDULED, IN_PROGRESS, ...).
	Status string `json:"status,omitempty"`

	// InputData — сырые входные данные. Их проверяет и нормализует Worker.
	InputData map[string]any `json:"inputData"`

	// PollCount — сколько раз task был выдан воркерам.
	PollCount int `json:"pollCount,omitempty"`

	// RetryCount — номер retry на стороне сервера.
	RetryCount int `json:"retryCount,omitempty"`

	// CorrelationID — correlation id workflow.
	CorrelationID string `json:"correlationId,omitempty"`

	// WorkerID — кто забрал task.
	WorkerID string `json:"workerId,omitempty"`

	// Domain — task domain, если используется изоляция.
	Domain string `json:"domain,omitempty"`

	// CallbackAfterSeconds — задержка перед повторной выдачей IN_PROGRESS task.
	CallbackAfterSeconds int64 `json:"callbackAfterSeconds,omitempty"`
}
