package domain

import (
	"encoding/json"
	"time"
)

// TaskExecLog — одна запись лога выполнения task.
//
// На wire сервер ожидает объект {"log": ..., "createdTime": ...},
// внутри SDK это просто строка с меткой времени.
type TaskExecLog struct {
	Log         string `json:"log"`
	CreatedTime int64  `json:"createdTime,omitempty"`
}

// TaskResult — результат одного выполнения task.
//
// Создаётся заново на каждую попытку и сразу отправляется на сервер.
// Инварианты:
//   - FAILED несёт хотя бы одну запись лога с причиной
//   - COMPLETED несёт output с обязательными полями выходной схемы
type TaskResult struct {
	// TaskID — идентификатор task (копируется из Task).
	TaskID string `json:"taskId"`

	// WorkflowInstanceID — идентификатор workflow (копируется из Task).
	WorkflowInstanceID string `json:"workflowInstanceId"`

	// WorkerID — идентификатор воркера, выполнившего task.
	WorkerID string `json:"workerId,omitempty"`

	// Status — итоговый статус.
	Status TaskResultStatus `json:"status"`

	// Output — выходные данные (outputData на wire).
	Output map[string]any `json:"outputData,omitempty"`

	// Logs — диагностические сообщения в порядке появления.
	Logs []string `json:"-"`

	// ReasonForIncompletion — краткая причина ошибки для UI сервера.
	ReasonForIncompletion string `json:"reasonForIncompletion,omitempty"`

	// CallbackAfterSeconds — для IN_PROGRESS: когда выдать task повторно.
	CallbackAfterSeconds int64 `json:"callbackAfterSeconds,omitempty"`
}

// Completed создаёт успешный результат с output.
func Completed(output map[string]any) *TaskResult {
	return &TaskResult{
		Status: TaskResultCompleted,
		Output: output,
	}
}

// Failed создаёт результат с ошибкой и логами.
func Failed(logs ...string) *TaskResult {
	r := &TaskResult{
		Status: TaskResultFailed,
		Logs:   logs,
	}
	if len(logs) > 0 {
		r.ReasonForIncompletion = logs[0]
	}
	return r
}

// AddLog добавляет запись в лог результата.
func (r *TaskResult) AddLog(msg string) {
	r.Logs = append(r.Logs, msg)
}

// MarshalJSON сериализует результат в формат update-task эндпоинта.
func (r TaskResult) MarshalJSON() ([]byte, error) {
	type plain TaskResult

	now := time.Now().UnixMilli()
	logs := make([]TaskExecLog, 0, len(r.Logs))
	for _, l := range r.Logs {
		logs = append(logs, TaskExecLog{Log: l, CreatedTime: now})
	}

	return json.Marshal(struct {
		plain
		Logs []TaskExecLog `json:"logs"`
	}{
		plain: plain(r),
		Logs:  logs,
	})
}

// UnmarshalJSON читает результат, включая логи в формате сервера.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	type plain TaskResult

	var aux struct {
		plain
		Logs []TaskExecLog `json:"logs"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = TaskResult(aux.plain)
	r.Logs = nil
	for _, l := range aux.Logs {
		r.Logs = append(r.Logs, l.Log)
	}
	return nil
}
