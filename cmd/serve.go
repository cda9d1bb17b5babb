package cmd

import (
	"github.com/spf13/cobra"

	"github.com/minaironcapital/dividendos/internal/converter"
	"github.com/minaironcapital/dividendos/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed as a read-only JSON API",
	Long: `Loads the feed once and serves it until interrupted.

Routes:
  GET  /api/timeline             month buckets
  GET  /api/records?q=&estado=   filtered records
  GET  /api/statuses             distinct statuses, for filter facets
  GET  /api/diagnostics          run statistics and feed warnings
  POST /api/reload               refetch the feed; on failure the previous data stays
  GET  /healthz                  liveness

Until a load succeeds, data routes answer 503.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}

		cfg := app.cfg.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		pipeline := converter.New(src, app.cfg, app.log)
		return server.New(pipeline, cfg, app.log).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
}
