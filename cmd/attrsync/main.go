// Command attrsync replays attribute reconciliation scenarios and serves
// live reconciliation over WebSocket.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/attrsync/internal/config"
	"github.com/vango-dev/attrsync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configDir string
	logLevel  string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "attrsync",
		Short: "Attribute reconciliation toolkit",
		Long: `attrsync reconciles element attributes against a desired state.

Replay scenarios against an in-memory element, inspect the binary
patch frames a remote client would receive, or run the live
reconciliation server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing "+config.ConfigFileName)
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		replayCmd(&flags),
		encodeCmd(&flags),
		serveCmd(&flags),
		versionCmd(),
	)
	return cmd
}

// loadConfig reads the config directory and applies flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(f.configDir)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}
