package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conductor/internal/conductor"
	"github.com/shaiso/Conductor/internal/worker"
)

const (
	labelTaskType  = "task_type"
	labelException = "exception"
)

// errorClasses — известные ошибки и их значения label exception.
// Порядок важен: проверяется первое совпадение.
var errorClasses = []struct {
	err   error
	label string
}{
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
	{worker.ErrValidation, "validation"},
	{worker.ErrTransform, "validation"},
	{worker.ErrNilResult, "nil_result"},
	{worker.ErrExecution, "execution"},
	{conductor.ErrNotFound, "not_found"},
	{conductor.ErrConflict, "conflict"},
	{conductor.ErrBadRequest, "bad_request"},
	{conductor.ErrServer, "server"},
}

// MetricsConfig — настройки метрик.
type MetricsConfig struct {
	// Enabled — если false, все методы Metrics ничего не делают.
	Enabled bool

	// Namespace — префикс имён метрик (опционально).
	Namespace string
}

// Metrics — Prometheus-метрики poller'а и воркеров.
//
// Все коллекторы регистрируются в собственном Registry, поэтому несколько
// экземпляров (например, в тестах) не конфликтуют.
type Metrics struct {
	enabled  bool
	registry *prometheus.Registry

	taskPoll      *prometheus.CounterVec
	taskPollError *prometheus.CounterVec
	queueFull     *prometheus.CounterVec
	executeError  *prometheus.CounterVec
	updateError   *prometheus.CounterVec
	taskPaused    *prometheus.CounterVec

	pollTime    *prometheus.GaugeVec
	executeTime *prometheus.GaugeVec
	resultSize  *prometheus.GaugeVec
}

var _ worker.Metrics = (*Metrics)(nil)

// NewMetrics создаёт метрики и регистрирует их в новом Registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	m := &Metrics{
		enabled:  cfg.Enabled,
		registry: prometheus.NewRegistry(),
	}
	if !m.enabled {
		return m
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      name,
			Help:      help,
		}, []string{labelTaskType})
	}

	m.taskPoll = counter("task_poll_total", "Task poll count", labelTaskType)
	m.taskPollError = counter("task_poll_error_total", "Task poll error count", labelTaskType, labelException)
	m.queueFull = counter("task_execution_queue_full_total", "Task execution queue full count", labelTaskType)
	m.executeError = counter("task_execute_error_total", "Task execution error count", labelTaskType, labelException)
	m.updateError = counter("task_update_error_total", "Task status update error count", labelTaskType, labelException)
	m.taskPaused = counter("task_paused_total", "Task paused count", labelTaskType)

	m.pollTime = gauge("task_poll_time_seconds", "Time spent polling a task")
	m.executeTime = gauge("task_execute_time_seconds", "Time spent executing a task")
	m.resultSize = gauge("task_result_size_bytes", "Serialized task result payload size")

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.taskPoll, m.taskPollError, m.queueFull, m.executeError, m.updateError, m.taskPaused,
		m.pollTime, m.executeTime, m.resultSize,
	)

	return m
}

// Enabled сообщает, включены ли метрики.
func (m *Metrics) Enabled() bool {
	return m.enabled
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP handler для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TaskPolled(taskType string) {
	if m.enabled {
		m.taskPoll.WithLabelValues(taskType).Inc()
	}
}

func (m *Metrics) TaskPollError(taskType string, err error) {
	if m.enabled {
		m.taskPollError.WithLabelValues(taskType, exceptionLabel(err)).Inc()
	}
}

func (m *Metrics) TaskPollTime(taskType string, d time.Duration) {
	if m.enabled {
		m.pollTime.WithLabelValues(taskType).Set(d.Seconds())
	}
}

func (m *Metrics) TaskExecutionQueueFull(taskType string) {
	if m.enabled {
		m.queueFull.WithLabelValues(taskType).Inc()
	}
}

func (m *Metrics) TaskExecuteTime(taskType string, d time.Duration) {
	if m.enabled {
		m.executeTime.WithLabelValues(taskType).Set(d.Seconds())
	}
}

func (m *Metrics) TaskExecuteError(taskType string, err error) {
	if m.enabled {
		m.executeError.WithLabelValues(taskType, exceptionLabel(err)).Inc()
	}
}

func (m *Metrics) TaskUpdateError(taskType string, err error) {
	if m.enabled {
		m.updateError.WithLabelValues(taskType, exceptionLabel(err)).Inc()
	}
}

func (m *Metrics) TaskResultSize(taskType string, size int) {
	if m.enabled {
		m.resultSize.WithLabelValues(taskType).Set(float64(size))
	}
}

func (m *Metrics) TaskPaused(taskType string) {
	if m.enabled {
		m.taskPaused.WithLabelValues(taskType).Inc()
	}
}

// exceptionLabel возвращает класс ошибки, а не её текст:
// в тексте бывают URL и ID, и число серий росло бы без ограничений.
func exceptionLabel(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.err) {
			return c.label
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network"
	}

	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}
