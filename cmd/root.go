// Package cmd holds the portal command line: the HTTP server and the
// operator commands that bootstrap a deployment.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"property-portal/internal/config"
	"property-portal/internal/logging"
)

const serviceName = "property-portal"

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Real-estate listing portal",
	Long: `portal serves the listing API and manages agencies and users.

Settings come from .env, the YAML file named by CONFIG_FILE and the
environment, in that order.

Examples:
  portal migrate                               # Apply the database schema
  portal agency create --name "Casa Norte"     # Register an agency
  portal user create --auth-id ... --role SUPER_ADMIN --email root@example.com
  portal serve                                 # Start the HTTP server`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With(slog.String("service", serviceName))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(agencyCmd)
	rootCmd.AddCommand(userCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
