// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lakesift/lakesift/cmd/config"
)

// Version is the lakesift version
var (
	Version = "development"
	Env     string
)

const trueStr = "true"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lakesift",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return nil
		},
	}

	viper.SetEnvPrefix("LAKESIFT")
	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with lakesift if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")

	// validate cmd
	validateCmd.Flags().StringP("rules", "r", "", "Path to the rule spec file (yaml or json)")
	validateCmd.Flags().StringP("input", "i", "", "Path to the batch file to validate")
	validateCmd.Flags().String("schema", "", "Path to the schema metadata CSV (optional)")
	validateCmd.Flags().String("table", "", "Table name to select from the schema metadata")
	validateCmd.Flags().String("batch-id", "", "Batch identifier for manifest tracking. Defaults to the input file name")
	validateCmd.Flags().String("manifest", "", "Path to the manifest log file")
	validateCmd.Flags().String("manifest-url", "", "Postgres URL for the manifest store. Takes precedence over the file manifest")
	validateCmd.Flags().StringP("output", "o", "", "Directory where accepted/rejected outputs and the report are written")
	validateCmd.Flags().Int("workers", 0, "Number of concurrent validation workers. Defaults to the number of CPUs")
	validateCmd.Flags().Bool("skip-manifest", false, "Skip the manifest gate and always process the batch")
	validateCmd.Flags().Bool("json", false, "Output the run report in JSON format")

	// validate rules cmd
	validateRulesCmd.Flags().StringP("rules-file", "f", "", "Path to the rule spec file to validate")
	validateCmd.AddCommand(validateRulesCmd)

	// status cmd
	statusCmd.Flags().String("batch-id", "", "Batch identifier to look up in the manifest")
	statusCmd.Flags().String("manifest", "", "Path to the manifest log file")
	statusCmd.Flags().String("manifest-url", "", "Postgres URL for the manifest store")
	statusCmd.Flags().Bool("json", false, "Output the manifest status in JSON format")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-sigc
		cancel()
	}()

	return func(cmd *cobra.Command, args []string) error {
		defer cancel()
		return fn(ctx)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("LAKESIFT_LOG_LEVEL", cmd.PersistentFlags().Lookup("log-level"))
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}
