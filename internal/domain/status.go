package domain

// TaskResultStatus — статус результата выполнения task, который воркер
// отправляет обратно на сервер оркестрации.
//
// Жизненный цикл (глазами воркера):
//
//	IN_PROGRESS → COMPLETED
//	            ↘ FAILED | FAILED_WITH_TERMINAL_ERROR
type TaskResultStatus string

const (
	// TaskResultInProgress — task ещё выполняется (long-running worker).
	TaskResultInProgress TaskResultStatus = "IN_PROGRESS"

	// TaskResultCompleted — task успешно выполнен.
	TaskResultCompleted TaskResultStatus = "COMPLETED"

	// TaskResultFailed — task завершился с ошибкой, сервер может сделать retry.
	TaskResultFailed TaskResultStatus = "FAILED"

	// TaskResultFailedWithTerminalError — ошибка без права на retry.
	TaskResultFailedWithTerminalError TaskResultStatus = "FAILED_WITH_TERMINAL_ERROR"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskResultStatus) IsTerminal() bool {
	switch s {
	case TaskResultCompleted, TaskResultFailed, TaskResultFailedWithTerminalError:
		return true
	default:
		return false
	}
}

// IsFailure возвращает true для любого из статусов ошибки.
func (s TaskResultStatus) IsFailure() bool {
	return s == TaskResultFailed || s == TaskResultFailedWithTerminalError
}

// WorkflowStatus — статус экземпляра workflow на сервере.
type WorkflowStatus string

const (
	WorkflowStatusRunning    WorkflowStatus = "RUNNING"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed     WorkflowStatus = "FAILED"
	WorkflowStatusTimedOut   WorkflowStatus = "TIMED_OUT"
	WorkflowStatusTerminated WorkflowStatus = "TERMINATED"
	WorkflowStatusPaused     WorkflowStatus = "PAUSED"
)

// IsTerminal возвращает true, если workflow завершён.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusTimedOut, WorkflowStatusTerminated:
		return true
	default:
		return false
	}
}

// RetryLogic — стратегия retry, которую применяет сервер.
type RetryLogic string

const (
	RetryLogicFixed              RetryLogic = "FIXED"
	RetryLogicExponentialBackoff RetryLogic = "EXPONENTIAL_BACKOFF"
	RetryLogicLinearBackoff      RetryLogic = "LINEAR_BACKOFF"
)

// IsValid проверяет, что значение известно серверу.
func (r RetryLogic) IsValid() bool {
	switch r {
	case RetryLogicFixed, RetryLogicExponentialBackoff, RetryLogicLinearBackoff:
		return true
	default:
		return false
	}
}

// TimeoutPolicy — поведение сервера при таймауте task или workflow.
type TimeoutPolicy string

const (
	// TimeoutPolicyRetry — повторить task.
	TimeoutPolicyRetry TimeoutPolicy = "RETRY"

	// TimeoutPolicyTimeOutWorkflow — пометить весь workflow как TIMED_OUT.
	TimeoutPolicyTimeOutWorkflow TimeoutPolicy = "TIME_OUT_WF"

	// TimeoutPolicyAlertOnly — только зарегистрировать событие.
	TimeoutPolicyAlertOnly TimeoutPolicy = "ALERT_ONLY"
)

// IsValid проверяет, что значение известно серверу.
func (p TimeoutPolicy) IsValid() bool {
	switch p {
	case TimeoutPolicyRetry, TimeoutPolicyTimeOutWorkflow, TimeoutPolicyAlertOnly:
		return true
	default:
		return false
	}
}
