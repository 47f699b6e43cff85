// conductorctl — инструмент командной строки для сервера workflow:
// definitions, экземпляры workflow, очереди и события результатов.
//
// Использование:
//
//	conductorctl [--url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	taskdef      Task definitions
//	workflowdef  Workflow definitions
//	workflow     Экземпляры workflow
//	queue        Очереди tasks
//	events       События task.result из RabbitMQ
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conductor/internal/cli"
	"github.com/shaiso/Conductor/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var baseURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conductorctl",
		Short:         "Conductor CLI — definitions, workflows and task queues",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Server API URL (default: $CONDUCTOR_URL_BASE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	configFn := sync.OnceValues(config.Load)

	deps := cli.Deps{
		Client: func() (cli.API, error) {
			cfg, err := configFn()
			if err != nil {
				return nil, err
			}
			return cli.NewClient(cfg, baseURL), nil
		},
		Output: func() *cli.Output { return cli.NewOutput(jsonOutput) },
		Config: configFn,
	}

	rootCmd.AddCommand(
		cli.NewTaskDefCmd(deps),
		cli.NewWorkflowDefCmd(deps),
		cli.NewWorkflowCmd(deps),
		cli.NewQueueCmd(deps),
		cli.NewEventsCmd(deps),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
