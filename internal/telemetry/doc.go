// Package telemetry обеспечивает наблюдаемость воркеров.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики poller'а и воркеров
//
// Метрики живут в собственном prometheus.Registry, который создаётся
// один раз на процесс и передаётся компонентам явно.
package telemetry
