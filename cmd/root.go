/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	actorName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "qualtrack",
	Short:        "Equipment qualification lifecycle tracker",
	Long:         "Track URS to PQ qualification, breakdowns, revalidation and periodic requalification of GMP equipment.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	// Flags are parsed inside ExecuteContext, so the logger is rebuilt in PersistentPreRun.
	logger := logging.New(rootCmd.ErrOrStderr(), "info", "text")
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "qualtrack"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default ./configs/config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&actorName, "actor", "", "User recorded in the audit trail")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		logger := logging.New(cmd.ErrOrStderr(), logLevel, logFormat)
		logging.SetDefault(logger)
		ctx := logging.WithLogger(cmd.Context(), logger)
		cmd.SetContext(logging.WithAttrs(ctx, slog.String("app", "qualtrack")))
	}
}
