package cli

import (
	"github.com/spf13/cobra"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/app"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the companion and its local HTTP bridge",
	Long: `Restore the stored session, follow auth events and serve the
bridge until interrupted. Shutdown drains in-flight requests and waits
for detached post sign-in work.

Example:
  companion serve
  companion serve --port 5180`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (default from SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.Serve(ctx)
}
