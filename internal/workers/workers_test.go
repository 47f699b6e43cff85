package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/taskdef"
)

func newTask(taskType string, input map[string]any) *domain.Task {
	return &domain.Task{
		TaskID:             "task-1",
		TaskType:           taskType,
		WorkflowInstanceID: "wf-1",
		InputData:          input,
	}
}

// --- http_get_generic ---

func TestHTTP_GET_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("X-Custom", "test-value")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": map[string]any{"uri": server.URL},
	}))

	if result.Status != domain.TaskResultCompleted {
		t.Fatalf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
	if result.TaskID != "task-1" || result.WorkflowInstanceID != "wf-1" {
		t.Errorf("ids not copied: %+v", result)
	}

	resp := result.Output["http_response"].(map[string]any)
	if resp["status_code"] != http.StatusOK {
		t.Errorf("expected status 200, got %v", resp["status_code"])
	}
	headers := resp["headers"].(map[string]any)
	if headers["X-Custom"] != "test-value" {
		t.Errorf("expected X-Custom header, got %v", headers)
	}
	body, ok := resp["body"].(map[string]any)
	if !ok || body["result"] != "ok" {
		t.Errorf("expected parsed JSON body, got %v", resp["body"])
	}
}

func TestHTTP_POST_WithBody(t *testing.T) {
	var receivedBody map[string]any
	var receivedContentType, receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, "created")
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	// Строка с JSON-объектом разбирается так же, как объект.
	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": `{"uri":"` + server.URL + `","method":"post","body":{"text":"hello"},"headers":{"Authorization":"Bearer token123"}}`,
	}))

	if result.Status != domain.TaskResultCompleted {
		t.Fatalf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
	if receivedBody["text"] != "hello" {
		t.Errorf("server should receive body, got %v", receivedBody)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}
	if receivedAuth != "Bearer token123" {
		t.Errorf("expected Authorization header, got %s", receivedAuth)
	}

	resp := result.Output["http_response"].(map[string]any)
	if resp["status_code"] != http.StatusCreated || resp["body"] != "created" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestHTTP_ContentType(t *testing.T) {
	var receivedContentType, receivedBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		receivedBody = string(b)
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": map[string]any{
			"uri":         server.URL,
			"method":      "PUT",
			"contentType": "text/plain",
			"body":        "raw text",
		},
	}))

	if result.Status != domain.TaskResultCompleted {
		t.Fatalf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
	if receivedContentType != "text/plain" || receivedBody != "raw text" {
		t.Errorf("unexpected request: %q %q", receivedContentType, receivedBody)
	}
}

func TestHTTP_PlainURIString(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodGet
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": server.URL,
	}))

	if result.Status != domain.TaskResultCompleted || !called {
		t.Errorf("expected GET to %s, got %s: %v", server.URL, result.Status, result.Logs)
	}
}

func TestHTTP_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": map[string]any{"uri": server.URL},
	}))

	if result.Status != domain.TaskResultFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if len(result.Logs) == 0 || !strings.HasPrefix(result.Logs[0], "HTTP 500") {
		t.Errorf("unexpected logs: %v", result.Logs)
	}
	resp, ok := result.Output["http_response"].(map[string]any)
	if !ok || resp["status_code"] != http.StatusInternalServerError {
		t.Errorf("response must be kept in output, got %v", result.Output)
	}
}

func TestHTTP_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	start := time.Now()
	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{
		"http_request": map[string]any{"uri": server.URL, "timeout": "0.1"},
	}))

	if result.Status != domain.TaskResultFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not applied: %v", time.Since(start))
	}
	if !strings.Contains(result.Logs[0], ErrHTTPRequest.Error()) {
		t.Errorf("unexpected logs: %v", result.Logs)
	}
}

func TestHTTP_InvalidInput(t *testing.T) {
	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	tests := []struct {
		name    string
		input   map[string]any
		wantLog string
	}{
		{name: "missing", input: map[string]any{}, wantLog: "validation error"},
		{name: "wrong type", input: map[string]any{"http_request": 42}, wantLog: "validation error"},
		{name: "no uri", input: map[string]any{"http_request": map[string]any{"method": "GET"}}, wantLog: "uri is required"},
		{name: "broken json", input: map[string]any{"http_request": `{"uri":`}, wantLog: ErrInvalidRequest.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := w.Execute(context.Background(), newTask(HTTPTaskName, tt.input))

			if result.Status != domain.TaskResultFailed {
				t.Fatalf("expected FAILED, got %s", result.Status)
			}
			if len(result.Logs) == 0 || !strings.Contains(result.Logs[0], tt.wantLog) {
				t.Errorf("expected log containing %q, got %v", tt.wantLog, result.Logs)
			}
		})
	}
}

func TestHTTP_Definition(t *testing.T) {
	tmpl := &taskdef.Template{Name: "fast", Overrides: taskdef.Overrides{RetryCount: taskdef.Ptr(7)}}
	w, err := NewHTTP(Config{
		OwnerEmail: "ops@example.com",
		Templates: func(taskType string) *taskdef.Template {
			if taskType == HTTPTaskName {
				return tmpl
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	def := w.Definition()
	if def.Name != HTTPTaskName || def.TimeoutSeconds != 60 || def.ResponseTimeoutSeconds != 60 {
		t.Errorf("unexpected definition: %+v", def)
	}
	if def.RetryCount != 7 {
		t.Errorf("template not applied: retry_count=%d", def.RetryCount)
	}
	if def.OwnerEmail != "ops@example.com" {
		t.Errorf("unexpected owner: %s", def.OwnerEmail)
	}
	if len(def.InputKeys) != 1 || def.InputKeys[0] != "http_request" {
		t.Errorf("unexpected input keys: %v", def.InputKeys)
	}
}

func TestParseHTTPRequest(t *testing.T) {
	req, err := parseHTTPRequest(map[string]any{"url": "http://x", "readTimeOut": "3600"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Target() != "http://x" || req.Method != http.MethodGet {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.timeout() != time.Hour {
		t.Errorf("expected 1h timeout, got %v", req.timeout())
	}

	_, err = parseHTTPRequest(map[string]any{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

// --- Wait_in_seconds ---

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "short", in: "ok", maxLen: 10, want: "ok"},
		{name: "ascii", in: "abcdef", maxLen: 3, want: "abc..."},
		{name: "cyrillic boundary", in: "ошибка", maxLen: 3, want: "о..."},
		{name: "cyrillic exact", in: "ошибка", maxLen: 4, want: "ош..."},
		{name: "invalid bytes", in: "a\xffb", maxLen: 10, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.maxLen)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestWait_Success(t *testing.T) {
	w, err := NewWait(Config{})
	if err != nil {
		t.Fatalf("NewWait: %v", err)
	}

	start := time.Now()
	result := w.Execute(context.Background(), newTask(WaitTaskName, map[string]any{"time": 0.05}))

	if result.Status != domain.TaskResultCompleted {
		t.Fatalf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("returned before the wait elapsed")
	}
	if result.Output["time"] != 0.05 {
		t.Errorf("unexpected output: %v", result.Output)
	}
}

func TestWait_StringInput(t *testing.T) {
	w, err := NewWait(Config{})
	if err != nil {
		t.Fatalf("NewWait: %v", err)
	}

	result := w.Execute(context.Background(), newTask(WaitTaskName, map[string]any{"time": "0"}))
	if result.Status != domain.TaskResultCompleted {
		t.Errorf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
}

func TestWait_ContextCancel(t *testing.T) {
	w, err := NewWait(Config{})
	if err != nil {
		t.Fatalf("NewWait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := w.Execute(ctx, newTask(WaitTaskName, map[string]any{"time": 10}))

	if result.Status != domain.TaskResultFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancel not honored: %v", time.Since(start))
	}
}

func TestWait_OutOfRange(t *testing.T) {
	w, err := NewWait(Config{})
	if err != nil {
		t.Fatalf("NewWait: %v", err)
	}

	for _, v := range []any{-1, 7200} {
		result := w.Execute(context.Background(), newTask(WaitTaskName, map[string]any{"time": v}))
		if result.Status != domain.TaskResultFailed {
			t.Errorf("time=%v: expected FAILED, got %s", v, result.Status)
		}
	}
}

// --- registry ---

func TestAll(t *testing.T) {
	ws, err := All(Config{})
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	names := map[string]bool{}
	for _, w := range ws {
		names[w.Name()] = true
	}
	if !names[HTTPTaskName] || !names[WaitTaskName] || len(ws) != 2 {
		t.Errorf("unexpected workers: %v", names)
	}
}

func TestWorkflows_Build(t *testing.T) {
	for _, wf := range Workflows() {
		t.Run(wf.Name, func(t *testing.T) {
			def, err := wf.Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if def.Tasks[0].Name != HTTPTaskName {
				t.Errorf("workflow must run %s, got %s", HTTPTaskName, def.Tasks[0].Name)
			}
		})
	}
}

func TestPostToSlack(t *testing.T) {
	def, err := PostToSlack().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if def.SchemaVersion != 2 || def.WorkflowStatusListenerEnabled == nil || *def.WorkflowStatusListenerEnabled {
		t.Errorf("unexpected flags: %+v", def)
	}
	req := def.Tasks[0].InputParameters["http_request"].(map[string]any)
	if req["uri"] != "https://hooks.slack.com/services/${workflow.input.slack_webhook_id}" {
		t.Errorf("unexpected uri: %v", req["uri"])
	}
	if def.Description != `{"description":"Post a message to your favorite Slack channel","labels":["SLACK","HTTP"]}` {
		t.Errorf("unexpected description: %s", def.Description)
	}
}

func TestHTTPRequestWorkflow_EndToEnd(t *testing.T) {
	var gotMethod, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	def, err := HTTPRequestWorkflow().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Сервер подставляет workflow input вместо ${workflow.input.*}.
	input := map[string]any{}
	for k, v := range def.InputTemplate {
		input[k] = v
	}
	input["uri"] = server.URL
	input["method"] = "POST"
	input["body"] = map[string]any{"a": 1}

	request := map[string]any{}
	for k, v := range def.Tasks[0].InputParameters["http_request"].(map[string]any) {
		name := strings.TrimSuffix(strings.TrimPrefix(v.(string), "${workflow.input."), "}")
		request[k] = input[name]
	}

	w, err := NewHTTP(Config{})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	result := w.Execute(context.Background(), newTask(HTTPTaskName, map[string]any{"http_request": request}))

	if result.Status != domain.TaskResultCompleted {
		t.Fatalf("expected COMPLETED, got %s: %v", result.Status, result.Logs)
	}
	if gotMethod != http.MethodPost || gotType != "application/json" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotType)
	}
}
