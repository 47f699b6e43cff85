package conductor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody — сколько байт тела ошибки попадает в APIError.
	maxErrorBody = 512
)

// Config — конфигурация Client.
type Config struct {
	// BaseURL — корень API, например http://workflow-proxy:8088/proxy/api.
	BaseURL string

	// Headers — заголовки для каждого запроса.
	Headers map[string]string

	// HTTPClient (опционально; по умолчанию клиент с таймаутом 30s).
	HTTPClient *http.Client

	// Logger (опционально; по умолчанию slog.Default()).
	Logger *slog.Logger
}

// Client — HTTP-клиент REST API сервера.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient создаёт клиент.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    headers,
		httpClient: httpClient,
		logger:     logger,
	}
}

// --- Metadata: task definitions ---

// RegisterTaskDefs регистрирует новые task definitions.
func (c *Client) RegisterTaskDefs(ctx context.Context, defs []domain.TaskDefinition) error {
	return c.post(ctx, "metadata/taskdefs", nil, defs, nil)
}

// UpdateTaskDef обновляет существующую task definition.
func (c *Client) UpdateTaskDef(ctx context.Context, def domain.TaskDefinition) error {
	return c.put(ctx, "metadata/taskdefs", nil, def, nil)
}

// GetTaskDef возвращает task definition по имени.
func (c *Client) GetTaskDef(ctx context.Context, name string) (*domain.TaskDefinition, error) {
	var def domain.TaskDefinition
	if err := c.get(ctx, "metadata/taskdefs/"+url.PathEscape(name), nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ListTaskDefs возвращает все task definitions.
func (c *Client) ListTaskDefs(ctx context.Context) ([]domain.TaskDefinition, error) {
	var defs []domain.TaskDefinition
	err := c.get(ctx, "metadata/taskdefs", nil, &defs)
	return defs, err
}

// UnregisterTaskDef удаляет task definition. reason необязателен.
func (c *Client) UnregisterTaskDef(ctx context.Context, name, reason string) error {
	return c.delete(ctx, "metadata/taskdefs/"+url.PathEscape(name), reasonParams(nil, reason))
}

// --- Metadata: workflow definitions ---

// CreateWorkflowDef создаёт workflow definition.
func (c *Client) CreateWorkflowDef(ctx context.Context, def domain.WorkflowDef) error {
	return c.post(ctx, "metadata/workflow", nil, def, nil)
}

// UpdateWorkflowDefs создаёт или перезаписывает workflow definitions.
func (c *Client) UpdateWorkflowDefs(ctx context.Context, defs []domain.WorkflowDef) error {
	return c.put(ctx, "metadata/workflow", nil, defs, nil)
}

// GetWorkflowDef возвращает workflow definition. version=0 — последняя версия.
func (c *Client) GetWorkflowDef(ctx context.Context, name string, version int) (*domain.WorkflowDef, error) {
	params := url.Values{}
	if version > 0 {
		params.Set("version", strconv.Itoa(version))
	}

	var def domain.WorkflowDef
	if err := c.get(ctx, "metadata/workflow/"+url.PathEscape(name), params, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ListWorkflowDefs возвращает все workflow definitions.
func (c *Client) ListWorkflowDefs(ctx context.Context) ([]domain.WorkflowDef, error) {
	var defs []domain.WorkflowDef
	err := c.get(ctx, "metadata/workflow", nil, &defs)
	return defs, err
}

// UnregisterWorkflowDef удаляет версию workflow definition.
func (c *Client) UnregisterWorkflowDef(ctx context.Context, name string, version int) error {
	return c.delete(ctx, "metadata/workflow/"+url.PathEscape(name)+"/"+strconv.Itoa(version), nil)
}

// --- Tasks ---

// PollTask запрашивает один task. Пустая очередь → (nil, nil).
func (c *Client) PollTask(ctx context.Context, taskType, workerID, taskDomain string) (*domain.Task, error) {
	params := url.Values{}
	if workerID != "" {
		params.Set("workerid", workerID)
	}
	if taskDomain != "" {
		params.Set("domain", taskDomain)
	}

	var task domain.Task
	found, err := c.getOptional(ctx, "tasks/poll/"+url.PathEscape(taskType), params, &task)
	if err != nil || !found {
		return nil, err
	}
	return &task, nil
}

// BatchPollTasks запрашивает до count tasks, ожидая не дольше timeout.
func (c *Client) BatchPollTasks(ctx context.Context, taskType, workerID string, count int, timeout time.Duration, taskDomain string) ([]domain.Task, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	if workerID != "" {
		params.Set("workerid", workerID)
	}
	if taskDomain != "" {
		params.Set("domain", taskDomain)
	}

	var tasks []domain.Task
	_, err := c.getOptional(ctx, "tasks/poll/batch/"+url.PathEscape(taskType), params, &tasks)
	return tasks, err
}

// UpdateTask отправляет результат выполнения task.
func (c *Client) UpdateTask(ctx context.Context, result *domain.TaskResult) error {
	return c.post(ctx, "tasks", nil, result, nil)
}

// GetTask возвращает task по ID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var task domain.Task
	if err := c.get(ctx, "tasks/"+url.PathEscape(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// TasksInQueue возвращает tasks, ожидающие в очереди типа task.
func (c *Client) TasksInQueue(ctx context.Context, taskType string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := c.get(ctx, "tasks/queue/"+url.PathEscape(taskType), nil, &tasks)
	return tasks, err
}

// QueueSizes возвращает размеры очередей для типов task.
func (c *Client) QueueSizes(ctx context.Context, taskTypes []string) (map[string]int, error) {
	sizes := make(map[string]int)
	err := c.post(ctx, "tasks/queue/sizes", nil, taskTypes, &sizes)
	return sizes, err
}

// RemoveTaskFromQueue удаляет task из очереди.
func (c *Client) RemoveTaskFromQueue(ctx context.Context, taskID, reason string) error {
	return c.delete(ctx, "tasks/queue/"+url.PathEscape(taskID), reasonParams(nil, reason))
}

// --- Workflows ---

// StartWorkflowRequest — параметры запуска workflow.
type StartWorkflowRequest struct {
	Name          string
	Version       int
	CorrelationID string
	Input         map[string]any
}

// StartWorkflow запускает workflow и возвращает его ID.
func (c *Client) StartWorkflow(ctx context.Context, req StartWorkflowRequest) (string, error) {
	params := url.Values{}
	if req.Version > 0 {
		params.Set("version", strconv.Itoa(req.Version))
	}
	if req.CorrelationID != "" {
		params.Set("correlationId", req.CorrelationID)
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}

	var id string
	err := c.post(ctx, "workflow/"+url.PathEscape(req.Name), params, input, &id)
	return id, err
}

// GetWorkflow возвращает экземпляр workflow.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string, includeTasks bool) (*domain.Workflow, error) {
	params := url.Values{}
	params.Set("includeTasks", strconv.FormatBool(includeTasks))

	var wf domain.Workflow
	if err := c.get(ctx, "workflow/"+url.PathEscape(workflowID), params, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// RunningWorkflows возвращает ID запущенных экземпляров workflow.
func (c *Client) RunningWorkflows(ctx context.Context, name string, version int) ([]string, error) {
	params := url.Values{}
	if version > 0 {
		params.Set("version", strconv.Itoa(version))
	}

	var ids []string
	err := c.get(ctx, "workflow/running/"+url.PathEscape(name), params, &ids)
	return ids, err
}

// TerminateWorkflow останавливает workflow.
func (c *Client) TerminateWorkflow(ctx context.Context, workflowID, reason string) error {
	params := url.Values{}
	if reason != "" {
		params.Set("reason", reason)
	}
	return c.delete(ctx, "workflow/"+url.PathEscape(workflowID), params)
}

// RemoveWorkflow удаляет workflow из системы.
func (c *Client) RemoveWorkflow(ctx context.Context, workflowID string, archive bool, reason string) error {
	params := url.Values{}
	params.Set("archiveWorkflow", strconv.FormatBool(archive))
	return c.delete(ctx, "workflow/"+url.PathEscape(workflowID)+"/remove", reasonParams(params, reason))
}

// PauseWorkflow ставит workflow на паузу.
func (c *Client) PauseWorkflow(ctx context.Context, workflowID string) error {
	return c.put(ctx, "workflow/"+url.PathEscape(workflowID)+"/pause", nil, nil, nil)
}

// ResumeWorkflow снимает workflow с паузы.
func (c *Client) ResumeWorkflow(ctx context.Context, workflowID string) error {
	return c.put(ctx, "workflow/"+url.PathEscape(workflowID)+"/resume", nil, nil, nil)
}

// SkipTask пропускает task в запущенном workflow.
func (c *Client) SkipTask(ctx context.Context, workflowID, taskRefName string, req map[string]any) error {
	return c.post(ctx, "workflow/"+url.PathEscape(workflowID)+"/skiptask/"+url.PathEscape(taskRefName), nil, req, nil)
}

// RerunWorkflow перезапускает workflow с указанного task.
func (c *Client) RerunWorkflow(ctx context.Context, workflowID string, req map[string]any) (string, error) {
	var id string
	err := c.post(ctx, "workflow/"+url.PathEscape(workflowID)+"/rerun", nil, req, &id)
	return id, err
}

// RestartWorkflow перезапускает завершённый workflow с начала.
func (c *Client) RestartWorkflow(ctx context.Context, workflowID string, useLatestDefinitions bool) error {
	params := url.Values{}
	params.Set("useLatestDefinitions", strconv.FormatBool(useLatestDefinitions))
	return c.post(ctx, "workflow/"+url.PathEscape(workflowID)+"/restart", params, nil, nil)
}

// --- Events ---

// ListEventHandlers возвращает все event handlers.
func (c *Client) ListEventHandlers(ctx context.Context) ([]domain.EventHandler, error) {
	var handlers []domain.EventHandler
	err := c.get(ctx, "event", nil, &handlers)
	return handlers, err
}

// GetEventHandlers возвращает handlers для события.
func (c *Client) GetEventHandlers(ctx context.Context, event string, activeOnly bool) ([]domain.EventHandler, error) {
	params := url.Values{}
	params.Set("activeOnly", strconv.FormatBool(activeOnly))

	var handlers []domain.EventHandler
	err := c.get(ctx, "event/"+url.PathEscape(event), params, &handlers)
	return handlers, err
}

// CreateEventHandler создаёт event handler.
func (c *Client) CreateEventHandler(ctx context.Context, h domain.EventHandler) error {
	return c.post(ctx, "event", nil, h, nil)
}

// UpdateEventHandler обновляет event handler.
func (c *Client) UpdateEventHandler(ctx context.Context, h domain.EventHandler) error {
	return c.put(ctx, "event", nil, h, nil)
}

// RemoveEventHandler удаляет event handler.
func (c *Client) RemoveEventHandler(ctx context.Context, name string) error {
	return c.delete(ctx, "event/"+url.PathEscape(name), nil)
}

// EventQueues возвращает зарегистрированные очереди событий.
func (c *Client) EventQueues(ctx context.Context) (map[string]any, error) {
	queues := make(map[string]any)
	err := c.get(ctx, "event/queues", nil, &queues)
	return queues, err
}

// --- HTTP helpers ---

// reasonParams добавляет reason, если он задан.
func reasonParams(params url.Values, reason string) url.Values {
	if reason == "" {
		return params
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("reason", reason)
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	_, err := c.doData(ctx, http.MethodGet, path, params, nil, result)
	return err
}

func (c *Client) getOptional(ctx context.Context, path string, params url.Values, result any) (bool, error) {
	return c.doData(ctx, http.MethodGet, path, params, nil, result)
}

func (c *Client) post(ctx context.Context, path string, params url.Values, body, result any) error {
	_, err := c.doData(ctx, http.MethodPost, path, params, body, result)
	return err
}

func (c *Client) put(ctx context.Context, path string, params url.Values, body, result any) error {
	_, err := c.doData(ctx, http.MethodPut, path, params, body, result)
	return err
}

func (c *Client) delete(ctx context.Context, path string, params url.Values) error {
	_, err := c.doData(ctx, http.MethodDelete, path, params, nil, nil)
	return err
}

// doData выполняет запрос и декодирует тело в result.
// Возвращает false, если тело пустое (например, 204 No Content).
// Если result — *string, тело записывается как есть.
func (c *Client) doData(ctx context.Context, method, path string, params url.Values, body, result any) (bool, error) {
	resp, err := c.do(ctx, method, path, params, body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if err := c.checkError(method, path, resp); err != nil {
		return false, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	if result == nil {
		return true, nil
	}
	if s, ok := result.(*string); ok {
		*s = strings.TrimSpace(string(data))
		return true, nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers.Clone()

	c.logger.Debug("conductor request", "method", method, "path", path)

	return c.httpClient.Do(req)
}

func (c *Client) checkError(method, path string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	// Сервер обычно отвечает {"message": "..."}; иначе берём тело как есть.
	var er struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &er); err == nil && er.Message != "" {
		msg = er.Message
	}

	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
