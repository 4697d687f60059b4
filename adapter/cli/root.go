package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reserva/pkg/observability"
)

var (
	verbose bool
	logger  = slog.Default()
)

type startedAtKey struct{}

var rootCmd = &cobra.Command{
	Use:   "reserva",
	Short: "Table reservations over Telegram",
	Long: `Reserva runs the Telegram booking bot and admin bot for a single
table, and offers operator commands for slots, reservations and admins.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, uuid.NewString())
		ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
		cmd.SetContext(ctx)
		commandLogger().InfoContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		startedAt, ok := ctx.Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		commandLogger().InfoContext(ctx, "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(startedAt).Milliseconds(),
		)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log command activity to stderr")
}

// commandLogger is the configured logger with --verbose, silent otherwise.
func commandLogger() *slog.Logger {
	if verbose {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// Execute runs the command line and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

// AddCommand registers a subcommand defined outside this package.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger replaces the logger used with --verbose.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
