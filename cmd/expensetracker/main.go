// Package main implements the expensetracker CLI: project, receipt and
// expense management against the local stores, and the ipc loop the
// desktop UI talks to.
package main

import (
	"context"
	"fmt"
	"os"

	"expensetracker/internal/cli"

	"github.com/spf13/cobra"
)

var (
	// dataDir overrides EXPENSES_DATA_DIR when set
	dataDir string
	// logLevel overrides EXPENSES_LOG_LEVEL when set
	logLevel string
	// jsonOutput switches command output to JSON
	jsonOutput bool

	version = "dev"

	// app is initialized before every command runs
	app *cli.App
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "expensetracker",
	Short: "Track project expenses from receipt images",
	Long: `expensetracker stores receipt images and the expenses recorded from
them in a local data directory (a SQLite database plus a receipts folder).

Configuration is read from the environment (and a .env file if present):
  EXPENSES_DATA_DIR, EXPENSES_DB_PATH, EXPENSES_RECEIPTS_DIR,
  EXPENSES_LOG_LEVEL, EXPENSES_PROJECT_CACHE_TTL, EXPENSES_PROJECT_CACHE_SIZE,
  AMQP_URL, AMQP_EXCHANGE, AMQP_QUEUE, AMQP_RESULT_QUEUE,
  GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME, GOOGLE_SERVICE_ACCOUNT_JSON,
  GOOGLE_SERVICE_ACCOUNT_FILE`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides EXPENSES_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides EXPENSES_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// bootstrap loads configuration and initializes the stores. Any failure
// aborts the command before it runs.
func bootstrap(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()
	if dataDir != "" {
		os.Setenv("EXPENSES_DATA_DIR", dataDir)
	}
	if logLevel != "" {
		os.Setenv("EXPENSES_LOG_LEVEL", logLevel)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	a, err := cli.InitStores(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize stores", "error", err)
		return err
	}
	app = a
	return nil
}
