package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/conductor"
)

// NewWorkflowCmd создаёт группу команд для экземпляров workflow.
func NewWorkflowCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflow executions",
	}

	cmd.AddCommand(
		newWorkflowStartCmd(deps),
		newWorkflowShowCmd(deps),
		newWorkflowRunningCmd(deps),
		newWorkflowActionCmd(deps, "pause", "Pause a running workflow", "paused",
			func(c *cobra.Command, api API, id string) error {
				return api.PauseWorkflow(c.Context(), id)
			}),
		newWorkflowActionCmd(deps, "resume", "Resume a paused workflow", "resumed",
			func(c *cobra.Command, api API, id string) error {
				return api.ResumeWorkflow(c.Context(), id)
			}),
		newWorkflowTerminateCmd(deps),
		newWorkflowRestartCmd(deps),
	)

	return cmd
}

func newWorkflowStartCmd(deps Deps) *cobra.Command {
	var (
		version       int
		correlationID string
		inputJSON     string
		inputFile     string
	)

	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}
			out := deps.Output()

			input, err := readInput(inputJSON, inputFile)
			if err != nil {
				return err
			}

			id, err := client.StartWorkflow(cmd.Context(), conductor.StartWorkflowRequest{
				Name:          args[0],
				Version:       version,
				CorrelationID: correlationID,
				Input:         input,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow started: %s", id))
			out.Print([]string{"WORKFLOW_ID"}, [][]string{{id}}, map[string]string{"workflowId": id})
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Definition version (0 = latest)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation ID")
	cmd.Flags().StringVar(&inputJSON, "input", "", "Workflow input as JSON object")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Path to JSON file with workflow input")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")

	return cmd
}

func newWorkflowShowCmd(deps Deps) *cobra.Command {
	var withTasks bool

	cmd := &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Show workflow execution status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}
			out := deps.Output()

			wf, err := client.GetWorkflow(cmd.Context(), args[0], withTasks)
			if err != nil {
				return err
			}

			if !withTasks || out.IsJSON() {
				out.Fields([][2]string{
					{"workflow_id", wf.WorkflowID},
					{"name", wf.WorkflowName},
					{"version", strconv.Itoa(wf.Version)},
					{"status", string(wf.Status)},
					{"correlation_id", wf.CorrelationID},
					{"start_time", formatMillis(wf.StartTime)},
					{"end_time", formatMillis(wf.EndTime)},
					{"reason", wf.ReasonForIncompletion},
				}, wf)
				return nil
			}

			headers := []string{"REF", "TYPE", "STATUS", "TASK_ID"}
			rows := make([][]string, len(wf.Tasks))
			for i, t := range wf.Tasks {
				rows[i] = []string{t.ReferenceTaskName, t.TaskType, t.Status, t.TaskID}
			}
			out.Table(headers, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withTasks, "tasks", false, "Include tasks")

	return cmd
}

func newWorkflowRunningCmd(deps Deps) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "running <name>",
		Short: "List IDs of running workflows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}

			ids, err := client.RunningWorkflows(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}

			rows := make([][]string, len(ids))
			for i, id := range ids {
				rows[i] = []string{id}
			}
			deps.Output().Print([]string{"WORKFLOW_ID"}, rows, ids)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Definition version (0 = any)")

	return cmd
}

func newWorkflowTerminateCmd(deps Deps) *cobra.Command {
	var reason string

	cmd := newWorkflowActionCmd(deps, "terminate", "Terminate a workflow", "terminated",
		func(c *cobra.Command, api API, id string) error {
			return api.TerminateWorkflow(c.Context(), id, reason)
		})
	cmd.Flags().StringVar(&reason, "reason", "", "Termination reason")

	return cmd
}

func newWorkflowRestartCmd(deps Deps) *cobra.Command {
	var useLatest bool

	cmd := newWorkflowActionCmd(deps, "restart", "Restart a completed workflow", "restarted",
		func(c *cobra.Command, api API, id string) error {
			return api.RestartWorkflow(c.Context(), id, useLatest)
		})
	cmd.Flags().BoolVar(&useLatest, "use-latest-definitions", false, "Restart with the latest definitions")

	return cmd
}

// newWorkflowActionCmd — команда "<verb> <workflow-id>" без вывода данных.
func newWorkflowActionCmd(deps Deps, use, short, done string, action func(*cobra.Command, API, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <workflow-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}

			if err := action(cmd, client, args[0]); err != nil {
				return err
			}

			deps.Output().Success(fmt.Sprintf("Workflow %s: %s", done, args[0]))
			return nil
		},
	}
}

// readInput читает workflow input из строки или файла.
func readInput(inline, path string) (map[string]any, error) {
	data := []byte(inline)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		data = b
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %w", err)
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
