package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tiksnap/internal/server"
)

var (
	flagListen        string
	flagAllowOrigin   string
	flagVerboseErrors bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolve API over HTTP",
	Long: `Serve POST /api/tik.json with a JSON body {"url": "...", "quality": "sd|hd"}.
GET /api/tik.json?url=... is accepted for older clients. GET /healthz reports liveness.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&flagAllowOrigin, "allow-origin", "*", "CORS allowed origin")
	serveCmd.Flags().BoolVar(&flagVerboseErrors, "verbose-errors", false, "Include status and timestamp in error bodies")
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, _, err := newResolver(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Logger:         logger,
		AllowOrigin:    flagAllowOrigin,
		VerboseErrors:  cfg.VerboseErrors || flagVerboseErrors,
		DefaultQuality: quality(),
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		// The log is optional; serving continues without it.
		logger.Warn("history disabled", "err", err)
	} else if store != nil {
		defer store.Close()
		opts.History = store
	}

	addr := cfg.Listen
	if flagListen != "" {
		addr = flagListen
	}
	logger.Info("starting", "version", Version, "backends", cfg.Backends, "timeout", cfg.Timeout)
	if err := server.New(res, opts).ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
