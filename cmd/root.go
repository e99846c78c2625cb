// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tiksnap/internal/config"
	"tiksnap/internal/logging"
	"tiksnap/internal/resolver"
	"tiksnap/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagQuality   string
	flagTimeout   time.Duration
	flagBackends  []string
	flagNoHistory bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is the process logger, configured in loadConfig.
var logger = logging.Discard()

var rootCmd = &cobra.Command{
	Use:   "tiksnap [url or text]",
	Short: "Resolve TikTok share links into downloadable media",
	Long: `tiksnap turns a TikTok share link, or text containing one, into direct
video, audio and image URLs. Several extraction services are tried in order
until one succeeds.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return resolveRun(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(errorMessage(err)))
		os.Exit(1)
	}
}

// errorMessage hides upstream detail behind the resolver's user-facing
// message unless debug logging is on.
func errorMessage(err error) string {
	var re *resolver.Error
	if errors.As(err, &re) && (cfg == nil || !cfg.Debug) {
		return re.Message
	}
	return err.Error()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Video quality: sd | hd")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-request upstream timeout (must be under 10s)")
	rootCmd.PersistentFlags().StringSliceVarP(&flagBackends, "backends", "b", nil, "Backend order, e.g. ssstik,tiksave,library,tikwm")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record resolutions")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	addResolveFlags(rootCmd)

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	if len(flagBackends) > 0 {
		cfg.Backends = flagBackends
	}
	if flagNoHistory {
		cfg.History = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = logging.New(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tiksnap %s\n", Version)
	},
}
