package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/kiosk/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the shop as a JSON API. Events are posted to /events, per-session
activity streams from /events/stream and Prometheus metrics from /metrics.
The API is described at /openapi.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		port, _ := cmd.Flags().GetString("port")
		return cli.RunServe(ctx, cli.ServeOptions{
			Options: optionsFrom(cmd),
			Addr:    ":" + port,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", cli.EnvOr(cli.EnvPort, "8080"), "Port to listen on")
}
