package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

type appKey struct{}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// execute runs one command. Tracing is shut down afterwards even when the
// command fails, so buffered spans are flushed.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	defer shutdownSystem()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "bot",
		Short: "Index-following investment bot for the Tinkoff Invest API",
		Long: `bot keeps a brokerage account aligned with the weights of the
MOEX Russia index. Weights are scraped from smart-lab.ru, account data and
orders go through the Tinkoff Invest REST gateway.

Orders are only simulated unless mode is LIVE in the config file.`,
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			if err := initializeSystem(); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), a))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "path to the config file")

	root.AddCommand(
		newWeightsCmd(),
		newPortfolioCmd(),
		newPlanCmd(),
		newRebalanceCmd(),
		newRunCmd(),
		newEODCmd(),
	)
	return root
}
