package cli

import (
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/workers"
)

// NewQueueCmd создаёт группу команд для очередей tasks.
func NewQueueCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect task queues",
	}

	cmd.AddCommand(newQueueSizesCmd(deps))

	return cmd
}

func newQueueSizesCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes [task-type...]",
		Short: "Show pending task counts (default: built-in workers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.Client()
			if err != nil {
				return err
			}

			types := args
			if len(types) == 0 {
				types = []string{workers.HTTPTaskName, workers.WaitTaskName}
			}

			sizes, err := client.QueueSizes(cmd.Context(), types)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(sizes))
			for name := range sizes {
				names = append(names, name)
			}
			slices.Sort(names)

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{name, strconv.Itoa(sizes[name])}
			}
			deps.Output().Print([]string{"TASK_TYPE", "PENDING"}, rows, sizes)
			return nil
		},
	}
}
