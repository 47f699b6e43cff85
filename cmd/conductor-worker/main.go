// Conductor Worker — процесс, который выполняет встроенные воркеры.
//
// При старте:
//   - читает конфигурацию из env и CONFIG_FILE
//   - регистрирует task definitions и перезаписывает workflow definitions
//   - запускает polling по каждому типу task
//   - публикует результаты в RabbitMQ, если задан RABBITMQ_URL
//
// HTTP: /healthz на WORKER_PORT, /metrics на METRICS_PORT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/Conductor/internal/conductor"
	"github.com/shaiso/Conductor/internal/config"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/mq"
	"github.com/shaiso/Conductor/internal/telemetry"
	"github.com/shaiso/Conductor/internal/worker"
	"github.com/shaiso/Conductor/internal/workers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting conductor-worker")

	if err := run(logger); err != nil {
		logger.Error("conductor-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("conductor-worker stopped")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: cfg.MetricsEnabled})

	client := conductor.NewClient(conductor.Config{
		BaseURL: cfg.ConductorURL,
		Headers: cfg.Headers(),
		Logger:  logger,
	})

	// RabbitMQ (опционально)
	var publisher worker.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, result events disabled", "error", err)
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(mqConn, logger)
		}
	}

	ws, err := workers.All(workers.Config{
		Templates: cfg.TemplateFor,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if err := registerWorkflows(ctx, client, logger); err != nil {
		return err
	}

	poller := worker.NewPoller(worker.PollerConfig{
		Client:          client,
		Registrar:       client,
		Publisher:       publisher,
		WorkerID:        cfg.WorkerID,
		Domain:          cfg.TaskDomain,
		Domains:         cfg.Domains(),
		Paused:          cfg.Paused(),
		PollInterval:    cfg.PollInterval,
		MaxThreadCount:  cfg.MaxThreadCount,
		ShutdownTimeout: shutdownTimeout,
		Metrics:         metrics,
		Logger:          logger,
	})
	for _, w := range ws {
		if err := poller.Register(w); err != nil {
			return err
		}
	}

	if err := poller.Start(ctx); err != nil {
		return err
	}

	servers := []*http.Server{healthServer(cfg.HealthPort)}
	if metrics.Enabled() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}
	for _, srv := range servers {
		go func() {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "addr", srv.Addr, "error", err)
				cancel()
			}
		}()
	}

	// Ожидаем сигнал завершения
	<-ctx.Done()

	poller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", "addr", srv.Addr, "error", err)
		}
	}
	return nil
}

// registerWorkflows перезаписывает встроенные workflow definitions на сервере.
func registerWorkflows(ctx context.Context, client *conductor.Client, logger *slog.Logger) error {
	wfs := workers.Workflows()
	defs := make([]domain.WorkflowDef, 0, len(wfs))
	for _, wf := range wfs {
		def, err := wf.Build()
		if err != nil {
			return err
		}
		defs = append(defs, *def)
	}

	if err := client.UpdateWorkflowDefs(ctx, defs); err != nil {
		return fmt.Errorf("register workflows: %w", err)
	}
	logger.Info("workflow definitions registered", "count", len(defs))
	return nil
}

func healthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
