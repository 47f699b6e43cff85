package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/workers"
)

// NewWorkflowDefCmd создаёт группу команд для workflow definitions.
func NewWorkflowDefCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflowdef",
		Short: "Manage workflow definitions",
	}

	cmd.AddCommand(
		newWorkflowDefListCmd(deps),
		newWorkflowDefShowCmd(deps),
		newWorkflowDefRenderCmd(deps),
		newWorkflowDefRegisterCmd(deps),
	)

	return cmd
}

func newWorkflowDefListCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow definitions registered on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}
			out := deps.Output()

			defs, err := client.ListWorkflowDefs(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"NAME", "VERSION", "TASKS", "RESTARTABLE", "DESCRIPTION"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{
					d.Name,
					strconv.Itoa(d.Version),
					strconv.Itoa(len(d.Tasks)),
					strconv.FormatBool(d.Restartable),
					domain.DecodeDescription(d.Description).Description,
				}
			}

			out.Print(headers, rows, defs)
			return nil
		},
	}
}

func newWorkflowDefShowCmd(deps Deps) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a workflow definition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}

			def, err := client.GetWorkflowDef(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}

			deps.Output().JSON(def)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Definition version (0 = latest)")

	return cmd
}

func newWorkflowDefRenderCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "render [name]",
		Short: "Print built-in workflow definitions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := builtinWorkflowDefs()
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
				return fmt.Errorf("unknown workflow: %s", args[0])
			}

			deps.Output().JSON(defs)
			return nil
		},
	}
}

func newWorkflowDefRegisterCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create or overwrite built-in workflow definitions on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := builtinWorkflowDefs()
			if err != nil {
				return err
			}
			client, err := deps.Client()
			if err != nil {
				return err
			}

			if err := client.UpdateWorkflowDefs(cmd.Context(), defs); err != nil {
				return err
			}

			deps.Output().Success(fmt.Sprintf("Registered %d workflow definitions", len(defs)))
			return nil
		},
	}
}

func builtinWorkflowDefs() ([]domain.WorkflowDef, error) {
	wfs := workers.Workflows()
	defs := make([]domain.WorkflowDef, 0, len(wfs))
	for _, wf := range wfs {
		def, err := wf.Build()
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}
