package cli

import (
	"fmt"
	"os"

	"github.com/splitcheck/splitcheck/internal/config"
	"github.com/splitcheck/splitcheck/internal/logger"
	"github.com/spf13/cobra"
)

// app carries state shared by every command once the root has loaded the
// configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "splitcheck",
		Short: "splitcheck - significance testing for A/B conversion experiments",
		Long: `splitcheck decides whether a treatment group converts better than its
control by simulating the difference in conversion rates under the
hypothesis that both groups share one rate.

Datasets are CSV files with group and converted columns, or SQLite
databases holding the same columns.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&a.configPath, "config", getEnvOrDefault("SC_CONFIG", ""), "config file path")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")

	cmd.AddCommand(
		newAnalyzeCmd(a),
		newSimulateCmd(a),
		newBreakdownCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	a.cfg = cfg
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
