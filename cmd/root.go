package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/config"
	"github.com/mj1618/inspector-cli/internal/logging"
	"github.com/mj1618/inspector-cli/internal/output"
	"github.com/mj1618/inspector-cli/internal/version"
)

// Set by the root command before any subcommand runs.
var (
	cfg    config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "inspector-cli",
	Short: "Inspect and drive Android UI through the accessibility inspection service",
	Long: `A CLI client for the Android accessibility inspection service. It connects over
WebSocket, sends find, action, gesture, launch and capture commands, and matches
each response amid the event traffic the service streams on the same connection.`,
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("url", "", "Inspection service WebSocket URL (default ws://localhost:38301/)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Response timeout per command (default 10s)")
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $INSPECTOR_CONFIG or ~/.config/inspector-cli/config.yaml)")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject commands that fail client-side validation instead of sending them")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(cfg.Output.Format)
		if err != nil {
			return err
		}
		output.OutputFormat = format
		output.PrettyOutput = cfg.Output.Pretty
		return nil
	}
}
