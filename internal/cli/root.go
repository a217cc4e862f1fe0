// Package cli holds the companion command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/config"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Local companion for the linguaflow app",
	Long: `companion keeps the linguaflow session, subscription status and
notification delivery in one local process and exposes them to the UI
over a small HTTP bridge.

Configuration comes from the environment and an optional .env file.
PLATFORM_URL and PLATFORM_ANON_KEY are required.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.Init(logLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
}

// ExecuteContext runs the command tree with ctx as the root context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(envFile)
}
