package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/shaiso/Conductor/internal/domain"
)

// Default configuration values.
const (
	defaultPollInterval     = 100 * time.Millisecond
	defaultMaxThreadCount   = 50
	defaultUpdateRetries    = 3
	defaultUpdateRetryDelay = 500 * time.Millisecond
	defaultShutdownTimeout  = 30 * time.Second
)

// TaskClient — операции сервера, нужные poller'у.
type TaskClient interface {
	PollTask(ctx context.Context, taskType, workerID, taskDomain string) (*domain.Task, error)
	UpdateTask(ctx context.Context, result *domain.TaskResult) error
}

// DefinitionRegistrar регистрирует definitions на сервере.
type DefinitionRegistrar interface {
	RegisterTaskDefs(ctx context.Context, defs []domain.TaskDefinition) error
}

// EventPublisher публикует результаты во внешнюю шину (опционально).
type EventPublisher interface {
	PublishTaskResult(ctx context.Context, taskType string, result *domain.TaskResult) error
}

// Poller опрашивает сервер и выполняет tasks зарегистрированных воркеров.
//
// На каждый тип task запускается свой цикл polling.
// Общее число одновременно выполняемых tasks ограничено MaxThreadCount;
// если все слоты заняты, poll пропускается.
type Poller struct {
	client    TaskClient
	registrar DefinitionRegistrar
	publisher EventPublisher

	workers []*Worker
	names   map[string]bool
	limits  map[string]*semaphore.Weighted

	// Configuration
	workerID         string
	taskDomain       string
	domains          map[string]string
	paused           map[string]bool
	pollInterval     time.Duration
	updateRetries    int
	updateRetryDelay time.Duration
	shutdownTimeout  time.Duration
	sem              *semaphore.Weighted

	// Lifecycle
	metrics    Metrics
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	execCancel context.CancelFunc
	group      *errgroup.Group
	inflight   sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// PollerConfig — конфигурация Poller.
type PollerConfig struct {
	// Client — REST клиент сервера (обязательно).
	Client TaskClient

	// Registrar регистрирует definitions при Start (опционально).
	Registrar DefinitionRegistrar

	// Publisher публикует результаты (опционально).
	Publisher EventPublisher

	// WorkerID — идентификатор процесса в запросах poll.
	WorkerID string

	// Domain — task domain по умолчанию; Domains — по типу task.
	Domain  string
	Domains map[string]string

	// Paused — типы task, которые не опрашиваются.
	Paused map[string]bool

	PollInterval     time.Duration // интервал polling (default: 100ms)
	MaxThreadCount   int           // лимит одновременных tasks (default: 50)
	UpdateRetries    int           // попыток UpdateTask (default: 3)
	UpdateRetryDelay time.Duration // базовая задержка retry (default: 500ms)

	// ShutdownTimeout — сколько Stop ждёт выполняемые tasks (default: 30s).
	// Tasks, не успевшие завершиться, прерываются без UpdateTask:
	// сервер выдаст их снова по responseTimeoutSeconds.
	ShutdownTimeout time.Duration

	Metrics Metrics
	Logger  *slog.Logger
}

// NewPoller создаёт Poller.
func NewPoller(cfg PollerConfig) *Poller {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	maxThreads := cfg.MaxThreadCount
	if maxThreads <= 0 {
		maxThreads = defaultMaxThreadCount
	}

	updateRetries := cfg.UpdateRetries
	if updateRetries <= 0 {
		updateRetries = defaultUpdateRetries
	}

	updateRetryDelay := cfg.UpdateRetryDelay
	if updateRetryDelay <= 0 {
		updateRetryDelay = defaultUpdateRetryDelay
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		client:           cfg.Client,
		registrar:        cfg.Registrar,
		publisher:        cfg.Publisher,
		names:            make(map[string]bool),
		limits:           make(map[string]*semaphore.Weighted),
		workerID:         cfg.WorkerID,
		taskDomain:       cfg.Domain,
		domains:          cfg.Domains,
		paused:           cfg.Paused,
		pollInterval:     pollInterval,
		updateRetries:    updateRetries,
		updateRetryDelay: updateRetryDelay,
		shutdownTimeout:  shutdownTimeout,
		sem:              semaphore.NewWeighted(int64(maxThreads)),
		metrics:          metrics,
		logger:           logger,
	}
}

// Register добавляет воркер. Вызывается до Start.
func (p *Poller) Register(w *Worker) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerRunning
	}
	if p.names[w.Name()] {
		return fmt.Errorf("%w: %s", ErrDuplicateWorker, w.Name())
	}

	p.names[w.Name()] = true
	p.workers = append(p.workers, w)

	if limit := w.def.LimitToThreadCount; limit != nil && *limit > 0 {
		p.limits[w.Name()] = semaphore.NewWeighted(int64(*limit))
	}
	return nil
}

// Workers возвращает зарегистрированные воркеры.
func (p *Poller) Workers() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Start регистрирует definitions и запускает циклы polling.
//
// Ошибка регистрации definitions возвращается: без definitions
// сервер не выдаст tasks этого типа.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPollerRunning
	}
	p.running = true
	workers := make([]*Worker, len(p.workers))
	copy(workers, p.workers)
	p.mu.Unlock()

	if p.registrar != nil && len(workers) > 0 {
		defs := make([]domain.TaskDefinition, 0, len(workers))
		for _, w := range workers {
			defs = append(defs, w.Definition())
		}
		if err := p.registrar.RegisterTaskDefs(ctx, defs); err != nil {
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return fmt.Errorf("register task definitions: %w", err)
		}
		p.logger.Info("task definitions registered", "count", len(defs))
	}

	// Выполнение не зависит от отмены polling: Stop даёт tasks
	// завершиться в пределах ShutdownTimeout.
	execCtx, execCancel := context.WithCancel(context.WithoutCancel(ctx))

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	p.mu.Lock()
	p.cancelFunc = cancel
	p.execCancel = execCancel
	p.group = group
	p.mu.Unlock()

	for _, w := range workers {
		group.Go(func() error {
			p.pollLoop(ctx, execCtx, w)
			return nil
		})
	}

	p.logger.Info("poller started",
		"workers", len(workers),
		"worker_id", p.workerID,
		"poll_interval", p.pollInterval,
	)
	return nil
}

// Stop останавливает polling и ждёт завершения выполняемых tasks.
//
// По истечении ShutdownTimeout контекст выполнения отменяется;
// результаты прерванных tasks на сервер не отправляются.
func (p *Poller) Stop() {
	p.logger.Info("stopping poller...")

	p.mu.Lock()
	cancel, execCancel, group := p.cancelFunc, p.execCancel, p.group
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		p.logger.Warn("shutdown timeout exceeded, interrupting running tasks", "timeout", p.shutdownTimeout)
		if execCancel != nil {
			execCancel()
		}
		<-done
	}
	if execCancel != nil {
		execCancel()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.logger.Info("poller stopped")
}

// pollLoop — цикл polling одного типа task.
func (p *Poller) pollLoop(ctx, execCtx context.Context, w *Worker) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, execCtx, w)
		}
	}
}

// poll запрашивает один task и запускает его выполнение на execCtx.
func (p *Poller) poll(ctx, execCtx context.Context, w *Worker) {
	taskType := w.Name()

	if p.paused[taskType] {
		p.metrics.TaskPaused(taskType)
		return
	}

	if !p.sem.TryAcquire(1) {
		p.metrics.TaskExecutionQueueFull(taskType)
		return
	}

	limit := p.limits[taskType]
	if limit != nil && !limit.TryAcquire(1) {
		p.sem.Release(1)
		p.metrics.TaskExecutionQueueFull(taskType)
		return
	}

	release := func() {
		if limit != nil {
			limit.Release(1)
		}
		p.sem.Release(1)
	}

	start := time.Now()
	task, err := p.client.PollTask(ctx, taskType, p.workerID, p.domainFor(taskType))
	p.metrics.TaskPollTime(taskType, time.Since(start))
	if err != nil {
		release()
		if errors.Is(err, context.Canceled) {
			return
		}
		p.metrics.TaskPollError(taskType, err)
		p.logger.Warn("failed to poll task", "task_type", taskType, "error", err)
		return
	}

	if task == nil {
		release()
		return
	}

	p.metrics.TaskPolled(taskType)
	if task.WorkerID == "" {
		task.WorkerID = p.workerID
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer release()
		p.process(execCtx, w, task)
	}()
}

// process выполняет task и отправляет результат.
func (p *Poller) process(ctx context.Context, w *Worker, task *domain.Task) {
	logger := p.logger.With("task_id", task.TaskID, "task_type", task.TaskType)

	result := w.Execute(ctx, task)

	if ctx.Err() != nil && result.Status != domain.TaskResultCompleted {
		// Без UpdateTask сервер выдаст task повторно по responseTimeoutSeconds.
		logger.Warn("task interrupted by shutdown, leaving it to server timeout")
		return
	}

	if body, err := json.Marshal(result); err == nil {
		p.metrics.TaskResultSize(w.Name(), len(body))
	}

	// Результат отправляется даже после отмены ctx: task уже выполнен.
	updateCtx := context.WithoutCancel(ctx)
	if err := p.updateWithRetry(updateCtx, result); err != nil {
		p.metrics.TaskUpdateError(w.Name(), err)
		logger.Error("failed to update task", "error", err)
		return
	}

	logger.Info("task processed", "status", result.Status)

	if p.publisher != nil {
		if err := p.publisher.PublishTaskResult(updateCtx, w.Name(), result); err != nil {
			logger.Warn("failed to publish task result", "error", err)
		}
	}
}

// updateWithRetry отправляет результат с линейным backoff.
func (p *Poller) updateWithRetry(ctx context.Context, result *domain.TaskResult) error {
	var lastErr error
	for attempt := 1; attempt <= p.updateRetries; attempt++ {
		lastErr = p.client.UpdateTask(ctx, result)
		if lastErr == nil {
			return nil
		}

		if attempt == p.updateRetries {
			break
		}

		delay := p.updateRetryDelay * time.Duration(attempt)
		p.logger.Debug("retrying task update",
			"task_id", result.TaskID,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// domainFor возвращает task domain для типа task.
func (p *Poller) domainFor(taskType string) string {
	if d, ok := p.domains[taskType]; ok {
		return d
	}
	return p.taskDomain
}
