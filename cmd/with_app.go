package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/qualification"
)

func withApp(run func(cmd *cobra.Command, app *bootstrap.App, svc *qualification.Service) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		var svc *qualification.Service
		fxApp := fx.New(
			bootstrap.Module,
			fx.NopLogger,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&app, &svc),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		applyConfiguredLogger(cmd, app)

		if err := run(cmd, app, svc); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}

// applyConfiguredLogger honours log settings from the config file unless a flag overrode them.
func applyConfiguredLogger(cmd *cobra.Command, app *bootstrap.App) {
	flags := cmd.Flags()
	if flags.Changed("log-level") && flags.Changed("log-format") {
		return
	}
	level, format := logLevel, logFormat
	if !flags.Changed("log-level") && app.Config.Log.Level != "" {
		level = app.Config.Log.Level
	}
	if !flags.Changed("log-format") && app.Config.Log.Format != "" {
		format = app.Config.Log.Format
	}
	logger := logging.New(cmd.ErrOrStderr(), level, format)
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
}
