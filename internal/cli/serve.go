package cli

import (
	"github.com/splitcheck/splitcheck/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the splitcheck HTTP server.

The server provides:
  - Inline analysis of posted records
  - Direct null-distribution simulations
  - Analysis of the configured dataset
  - Health check and Prometheus metrics endpoints

Example:
  splitcheck serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			srv := server.New(a.cfg)
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (overrides config)")
	return cmd
}
