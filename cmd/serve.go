package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fitbridge/internal/app"
)

// serveDebug enables debug logging regardless of FITBRIDGE_LOG_LEVEL.
var serveDebug bool

// serveConfigPath is an optional YAML config file. Environment variables
// override its values.
var serveConfigPath string

// serveListenAddr overrides FITBRIDGE_LISTEN_ADDR.
var serveListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fitbridge HTTP server",
	Long: `Starts the fitbridge HTTP server.

Endpoints:
  GET /                    log the food described by the query parameters
  GET /api/auth/callback   OAuth redirect target (register it with Fitbit)
  GET /api/auth/logout     clear the session and redirect to ?returnTo=
  GET /health              liveness check

Configuration:
  Settings are read from defaults, then the optional --config YAML file,
  then the environment. Required: OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET,
  OAUTH_REDIRECT_URL and SESSION_SECRET (see 'fitbridge secret generate').

The server shuts down gracefully on SIGINT and SIGTERM and notifies systemd
when run as a Type=notify unit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveListenAddr)
	cfg.LogOutput = cmd.ErrOrStderr()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML config file")
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address, overrides FITBRIDGE_LISTEN_ADDR")
}
