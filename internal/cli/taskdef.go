package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/workers"
)

// NewTaskDefCmd создаёт группу команд для task definitions.
func NewTaskDefCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskdef",
		Short: "Manage task definitions",
	}

	cmd.AddCommand(
		newTaskDefListCmd(deps),
		newTaskDefShowCmd(deps),
		newTaskDefDeleteCmd(deps),
		newTaskDefRenderCmd(deps),
		newTaskDefRegisterCmd(deps),
	)

	return cmd
}

func newTaskDefListCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List task definitions registered on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}
			out := deps.Output()

			defs, err := client.ListTaskDefs(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"NAME", "RETRIES", "TIMEOUT", "POLICY", "OWNER"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = taskDefRow(d)
			}

			out.Print(headers, rows, defs)
			return nil
		},
	}
}

func newTaskDefShowCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a task definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}
			out := deps.Output()

			def, err := client.GetTaskDef(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			meta := domain.DecodeDescription(def.Description)
			out.Fields([][2]string{
				{"name", def.Name},
				{"description", meta.Description},
				{"labels", strings.Join(meta.Labels, ",")},
				{"rbac", strings.Join(meta.RBAC, ",")},
				{"input_keys", strings.Join(def.InputKeys, ",")},
				{"output_keys", strings.Join(def.OutputKeys, ",")},
				{"retry_count", strconv.Itoa(def.RetryCount)},
				{"retry_logic", string(def.RetryLogic)},
				{"timeout_seconds", strconv.Itoa(def.TimeoutSeconds)},
				{"timeout_policy", string(def.TimeoutPolicy)},
				{"response_timeout_seconds", strconv.Itoa(def.ResponseTimeoutSeconds)},
				{"owner_email", def.OwnerEmail},
			}, def)
			return nil
		},
	}
}

func newTaskDefDeleteCmd(deps Deps) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Unregister a task definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}

			if err := client.UnregisterTaskDef(cmd.Context(), args[0], reason); err != nil {
				return err
			}

			deps.Output().Success(fmt.Sprintf("Task definition deleted: %s", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason for unregistering")

	return cmd
}

func newTaskDefRenderCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "render [name]",
		Short: "Print definitions of built-in workers as they would be registered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := builtinTaskDefs(deps)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				for _, d := range defs {
					if d.Name == args[0] {
						deps.Output().JSON(d)
						return nil
					}
				}
				return fmt.Errorf("unknown worker: %s", args[0])
			}

			deps.Output().JSON(defs)
			return nil
		},
	}
}

func newTaskDefRegisterCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register definitions of built-in workers on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := builtinTaskDefs(deps)
			if err != nil {
				return err
			}
			client, err := deps.Client()
			if err != nil {
				return err
			}

			if err := client.RegisterTaskDefs(cmd.Context(), defs); err != nil {
				return err
			}

			deps.Output().Success(fmt.Sprintf("Registered %d task definitions", len(defs)))
			return nil
		},
	}
}

// builtinTaskDefs собирает definitions встроенных воркеров с шаблонами из конфигурации.
func builtinTaskDefs(deps Deps) ([]domain.TaskDefinition, error) {
	cfg, err := deps.Config()
	if err != nil {
		return nil, err
	}

	ws, err := workers.All(workers.Config{Templates: cfg.TemplateFor})
	if err != nil {
		return nil, err
	}

	defs := make([]domain.TaskDefinition, len(ws))
	for i, w := range ws {
		defs[i] = w.Definition()
	}
	return defs, nil
}

func taskDefRow(d domain.TaskDefinition) []string {
	return []string{
		d.Name,
		strconv.Itoa(d.RetryCount),
		strconv.Itoa(d.TimeoutSeconds),
		string(d.TimeoutPolicy),
		d.OwnerEmail,
	}
}
