package worker

import "time"

// Metrics — приёмник метрик воркера и poller'а.
//
// Передаётся явно через Spec/PollerConfig; реализация для Prometheus —
// telemetry.Metrics.
type Metrics interface {
	TaskPolled(taskType string)
	TaskPollError(taskType string, err error)
	TaskPollTime(taskType string, d time.Duration)
	TaskExecutionQueueFull(taskType string)
	TaskExecuteTime(taskType string, d time.Duration)
	TaskExecuteError(taskType string, err error)
	TaskUpdateError(taskType string, err error)
	TaskResultSize(taskType string, size int)
	TaskPaused(taskType string)
}

// NopMetrics ничего не записывает.
type NopMetrics struct{}

func (NopMetrics) TaskPolled(string)                     {}
func (NopMetrics) TaskPollError(string, error)           {}
func (NopMetrics) TaskPollTime(string, time.Duration)    {}
func (NopMetrics) TaskExecutionQueueFull(string)         {}
func (NopMetrics) TaskExecuteTime(string, time.Duration) {}
func (NopMetrics) TaskExecuteError(string, error)        {}
func (NopMetrics) TaskUpdateError(string, error)         {}
func (NopMetrics) TaskResultSize(string, int)            {}
func (NopMetrics) TaskPaused(string)                     {}
