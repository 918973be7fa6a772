package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/journal"
	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveSpeed  float64
	serveRecord bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().Float64Var(&serveSpeed, "speed", 0, "playback speed multiplier (default from config)")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "record runs in the playback journal")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the playback HTTP API",
	Long: `Serve the scenario catalog and playback controls over HTTP.

Browser dashboards follow the active run on the /api/playback/events
websocket. Prometheus metrics are served on /metrics. Recorded runs are
served on /api/runs when the journal database can be opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		addr := strings.TrimSpace(serveAddr)
		if addr == "" {
			addr = cfg.Server.Addr
		}

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		seq := newSequencer(catalog, serveSpeed)

		opts := []server.Option{}
		database, err := openDatabase()
		if err != nil {
			if serveRecord {
				return err
			}
			logger := logging.Component("cli")
			logger.Warn().Err(err).Msg("playback journal unavailable, /api/runs disabled")
		} else {
			defer database.Close()
			repo := db.NewPlaybackRepository(database)
			opts = append(opts, server.WithHistory(repo))

			if serveRecord {
				recorder, err := journal.NewRecorder(context.Background(), repo, seq)
				if err != nil {
					return err
				}
				defer recorder.Close()
			}
		}

		srv, err := server.New(seq, opts...)
		if err != nil {
			return err
		}
		defer seq.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.ListenAndServe(ctx, addr)
	},
}
