package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/conductor"
	"github.com/shaiso/Conductor/internal/config"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/mq"
	"github.com/shaiso/Conductor/internal/workers"
)

// fakeAPI записывает вызовы и отдаёт заготовленные ответы.
type fakeAPI struct {
	calls []string

	taskDefs     []domain.TaskDefinition
	workflowDefs []domain.WorkflowDef
	registered   []domain.TaskDefinition
	updated      []domain.WorkflowDef
	started      conductor.StartWorkflowRequest
	workflow     *domain.Workflow
	running      []string
	sizes        map[string]int
	err          error
}

func (f *fakeAPI) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeAPI) ListTaskDefs(context.Context) ([]domain.TaskDefinition, error) {
	return f.taskDefs, f.record("ListTaskDefs")
}

func (f *fakeAPI) GetTaskDef(_ context.Context, name string) (*domain.TaskDefinition, error) {
	if err := f.record("GetTaskDef " + name); err != nil {
		return nil, err
	}
	return &f.taskDefs[0], nil
}

func (f *fakeAPI) RegisterTaskDefs(_ context.Context, defs []domain.TaskDefinition) error {
	f.registered = defs
	return f.record("RegisterTaskDefs")
}

func (f *fakeAPI) UnregisterTaskDef(_ context.Context, name, reason string) error {
	return f.record("UnregisterTaskDef " + name + " " + reason)
}

func (f *fakeAPI) ListWorkflowDefs(context.Context) ([]domain.WorkflowDef, error) {
	return f.workflowDefs, f.record("ListWorkflowDefs")
}

func (f *fakeAPI) GetWorkflowDef(_ context.Context, name string, version int) (*domain.WorkflowDef, error) {
	if err := f.record("GetWorkflowDef " + name); err != nil {
		return nil, err
	}
	return &f.workflowDefs[0], nil
}

func (f *fakeAPI) UpdateWorkflowDefs(_ context.Context, defs []domain.WorkflowDef) error {
	f.updated = defs
	return f.record("UpdateWorkflowDefs")
}

func (f *fakeAPI) StartWorkflow(_ context.Context, req conductor.StartWorkflowRequest) (string, error) {
	f.started = req
	return "wf-1", f.record("StartWorkflow " + req.Name)
}

func (f *fakeAPI) GetWorkflow(_ context.Context, id string, _ bool) (*domain.Workflow, error) {
	return f.workflow, f.record("GetWorkflow " + id)
}

func (f *fakeAPI) RunningWorkflows(_ context.Context, name string, _ int) ([]string, error) {
	return f.running, f.record("RunningWorkflows " + name)
}

func (f *fakeAPI) TerminateWorkflow(_ context.Context, id, reason string) error {
	return f.record("TerminateWorkflow " + id + " " + reason)
}

func (f *fakeAPI) PauseWorkflow(_ context.Context, id string) error {
	return f.record("PauseWorkflow " + id)
}

func (f *fakeAPI) ResumeWorkflow(_ context.Context, id string) error {
	return f.record("ResumeWorkflow " + id)
}

func (f *fakeAPI) RestartWorkflow(_ context.Context, id string, useLatest bool) error {
	if useLatest {
		return f.record("RestartWorkflow " + id + " latest")
	}
	return f.record("RestartWorkflow " + id)
}

func (f *fakeAPI) QueueSizes(_ context.Context, types []string) (map[string]int, error) {
	return f.sizes, f.record("QueueSizes " + strings.Join(types, ","))
}

type harness struct {
	api    *fakeAPI
	stdout bytes.Buffer
	stderr bytes.Buffer
	json   bool
}

func (h *harness) deps() Deps {
	return Deps{
		Client: func() (API, error) { return h.api, nil },
		Output: func() *Output { return NewOutputTo(&h.stdout, &h.stderr, h.json) },
		Config: func() (*config.Config, error) { return &config.Config{}, nil },
	}
}

func (h *harness) run(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetArgs(args)
	root.SetOut(&h.stderr)
	root.SetErr(&h.stderr)
	return root.ExecuteContext(context.Background())
}

func TestTaskDefList(t *testing.T) {
	h := &harness{api: &fakeAPI{taskDefs: []domain.TaskDefinition{
		{Name: "http_get_generic", RetryCount: 3, TimeoutSeconds: 60, TimeoutPolicy: domain.TimeoutPolicyTimeOutWorkflow},
	}}}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "list"); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := h.stdout.String()
	if !strings.Contains(got, "NAME") || !strings.Contains(got, "http_get_generic") || !strings.Contains(got, "TIME_OUT_WF") {
		t.Errorf("unexpected table:\n%s", got)
	}
}

func TestTaskDefShow_JSON(t *testing.T) {
	h := &harness{json: true, api: &fakeAPI{taskDefs: []domain.TaskDefinition{
		{Name: "http_get_generic", Description: `{"description":"HTTP","labels":["HTTP"]}`},
	}}}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "show", "http_get_generic"); err != nil {
		t.Fatalf("run: %v", err)
	}

	var def domain.TaskDefinition
	if err := json.Unmarshal(h.stdout.Bytes(), &def); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, h.stdout.String())
	}
	if def.Name != "http_get_generic" {
		t.Errorf("unexpected definition: %+v", def)
	}
}

func TestTaskDefRenderAndRegister(t *testing.T) {
	h := &harness{api: &fakeAPI{}}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "render", workers.WaitTaskName); err != nil {
		t.Fatalf("render: %v", err)
	}
	var def domain.TaskDefinition
	if err := json.Unmarshal(h.stdout.Bytes(), &def); err != nil || def.Name != workers.WaitTaskName {
		t.Fatalf("unexpected render output: %v\n%s", err, h.stdout.String())
	}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "render", "missing"); err == nil {
		t.Error("expected error for unknown worker")
	}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "register"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(h.api.registered) != 2 {
		t.Errorf("expected 2 registered definitions, got %d", len(h.api.registered))
	}
}

func TestWorkflowDefRenderAndRegister(t *testing.T) {
	h := &harness{api: &fakeAPI{}}

	if err := h.run(t, NewWorkflowDefCmd(h.deps()), "render", "Post_to_Slack"); err != nil {
		t.Fatalf("render: %v", err)
	}
	var def domain.WorkflowDef
	if err := json.Unmarshal(h.stdout.Bytes(), &def); err != nil || def.Name != "Post_to_Slack" {
		t.Fatalf("unexpected render output: %v\n%s", err, h.stdout.String())
	}

	if err := h.run(t, NewWorkflowDefCmd(h.deps()), "register"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(h.api.updated) != 2 {
		t.Errorf("expected 2 workflow definitions, got %d", len(h.api.updated))
	}
}

func TestWorkflowStart(t *testing.T) {
	h := &harness{api: &fakeAPI{}}

	err := h.run(t, NewWorkflowCmd(h.deps()), "start", "Http_request",
		"--version", "2", "--correlation-id", "c-1", "--input", `{"uri":"http://example.com"}`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	req := h.api.started
	if req.Name != "Http_request" || req.Version != 2 || req.CorrelationID != "c-1" || req.Input["uri"] != "http://example.com" {
		t.Errorf("unexpected request: %+v", req)
	}
	if !strings.Contains(h.stdout.String(), "wf-1") {
		t.Errorf("workflow id not printed: %s", h.stdout.String())
	}
}

func TestWorkflowStart_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(`{"message_text":"hi"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	h := &harness{api: &fakeAPI{}}
	if err := h.run(t, NewWorkflowCmd(h.deps()), "start", "Post_to_Slack", "--input-file", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.api.started.Input["message_text"] != "hi" {
		t.Errorf("unexpected input: %v", h.api.started.Input)
	}
}

func TestWorkflowStart_InvalidInput(t *testing.T) {
	h := &harness{api: &fakeAPI{}}

	err := h.run(t, NewWorkflowCmd(h.deps()), "start", "Http_request", "--input", "[1,2]")
	if err == nil || !strings.Contains(err.Error(), "invalid input JSON") {
		t.Errorf("expected invalid input error, got %v", err)
	}
	if len(h.api.calls) != 0 {
		t.Errorf("server must not be called: %v", h.api.calls)
	}
}

func TestWorkflowActions(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"pause", "wf-1"}, want: "PauseWorkflow wf-1"},
		{args: []string{"resume", "wf-1"}, want: "ResumeWorkflow wf-1"},
		{args: []string{"terminate", "wf-1", "--reason", "manual"}, want: "TerminateWorkflow wf-1 manual"},
		{args: []string{"restart", "wf-1", "--use-latest-definitions"}, want: "RestartWorkflow wf-1 latest"},
		{args: []string{"running", "Http_request"}, want: "RunningWorkflows Http_request"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			h := &harness{api: &fakeAPI{}}
			if err := h.run(t, NewWorkflowCmd(h.deps()), tt.args...); err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(h.api.calls) != 1 || h.api.calls[0] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, h.api.calls)
			}
		})
	}
}

func TestWorkflowShow(t *testing.T) {
	h := &harness{api: &fakeAPI{workflow: &domain.Workflow{
		WorkflowID:   "wf-1",
		WorkflowName: "Http_request",
		Version:      1,
		Status:       domain.WorkflowStatusRunning,
		StartTime:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(),
	}}}

	if err := h.run(t, NewWorkflowCmd(h.deps()), "show", "wf-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := h.stdout.String()
	for _, want := range []string{"wf-1", "RUNNING", "2024-01-02T03:04:05Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "end_time") {
		t.Errorf("empty fields must be skipped:\n%s", got)
	}
}

func TestQueueSizes(t *testing.T) {
	h := &harness{api: &fakeAPI{sizes: map[string]int{"b": 2, "a": 5}}}

	if err := h.run(t, NewQueueCmd(h.deps()), "sizes"); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "QueueSizes " + workers.HTTPTaskName + "," + workers.WaitTaskName
	if h.api.calls[0] != want {
		t.Errorf("expected %q, got %q", want, h.api.calls[0])
	}
	out := h.stdout.String()
	if strings.Index(out, "a ") > strings.Index(out, "b ") {
		t.Errorf("rows must be sorted:\n%s", out)
	}
}

func TestTaskDefDelete_Reason(t *testing.T) {
	h := &harness{api: &fakeAPI{}}

	if err := h.run(t, NewTaskDefCmd(h.deps()), "delete", "old_task", "--reason", "replaced"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.api.calls) != 1 || h.api.calls[0] != "UnregisterTaskDef old_task replaced" {
		t.Errorf("unexpected calls: %v", h.api.calls)
	}
	if !strings.Contains(h.stderr.String(), "Task definition deleted: old_task") {
		t.Errorf("expected success message, got %q", h.stderr.String())
	}
}

func TestAPIErrorPropagates(t *testing.T) {
	h := &harness{api: &fakeAPI{err: conductor.ErrNotFound}}

	err := h.run(t, NewTaskDefCmd(h.deps()), "delete", "missing")
	if !errors.Is(err, conductor.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if strings.Contains(h.stderr.String(), "Task definition deleted") {
		t.Error("success message printed on error")
	}
}

func TestPrintEvent(t *testing.T) {
	result := domain.Failed("HTTP 500: boom")
	result.TaskID = "t-1"
	result.WorkflowInstanceID = "wf-1"

	msg, err := mq.NewTaskResultMessage(workers.HTTPTaskName, result, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("message: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := printEvent(NewOutputTo(&stdout, &stderr, false))(context.Background(), msg); err != nil {
		t.Fatalf("handler: %v", err)
	}

	line := stdout.String()
	for _, want := range []string{"10:00:00.000", "FAILED", workers.HTTPTaskName, "task=t-1", "workflow=wf-1", "HTTP 500: boom"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}
}
