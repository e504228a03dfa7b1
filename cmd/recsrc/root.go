package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recsrc/pkg/config"
	"recsrc/pkg/logging"
)

// app carries state shared by subcommands once the root has loaded it.
type app struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "recsrc",
		Short: "recsrc - explain and run record-source plans",
		Long: `recsrc compiles a YAML plan document into a tree of record sources
(scans, filters, quantified ANY / ALL tests, limits) and either prints the
tree or executes it.

Explain a plan:
  recsrc explain plan.yaml

Run a plan four times concurrently and expose metrics:
  recsrc run plan.yaml --parallel 4 --metrics-addr :9090`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recsrc %s (built %s)\n", version, buildDate)
		},
	})
	rootCmd.AddCommand(newExplainCmd(a))
	rootCmd.AddCommand(newRunCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	// Another command in the same process may have left the logger set.
	_ = logging.Close()
	if err := logging.Init(logging.Config{
		Level:      logging.LogLevel(cfg.Log.Level),
		OutputPath: cfg.Log.Output,
		Format:     cfg.Log.Format,
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	return nil
}
