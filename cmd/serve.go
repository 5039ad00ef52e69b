package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/transport/httpapi"
	"qualtrack/internal/usecase/qualification"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *qualification.Service) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}
		sweepInterval, _ := cmd.Flags().GetDuration("sweep-interval")

		if app.Config.App.Env != "local" {
			gin.SetMode(gin.ReleaseMode)
		}
		if app.Config.HTTP.JWT.Secret == "" {
			logging.Warn(ctx, "http.jwt.secret is empty, actor is taken from the X-Actor header")
		}

		router := httpapi.NewRouter(ctx, svc, httpapi.Options{
			JWTSecret:          app.Config.HTTP.JWT.Secret,
			JWTIssuer:          app.Config.HTTP.JWT.Issuer,
			MaxAttachmentBytes: app.Config.Attachments.MaxBytes,
		})
		server := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if sweepInterval > 0 {
			go runSweepLoop(ctx, svc, sweepInterval)
		}

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

// runSweepLoop applies the requalification sweep until ctx is done.
func runSweepLoop(ctx context.Context, svc *qualification.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := svc.SweepRequalifications(ctx, "System"); err != nil && ctx.Err() == nil {
			logging.Warn(ctx, "scheduled requalification sweep failed", slog.Any("err", errs.Loggable(err)))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to http.addr)")
	serveCmd.Flags().Duration("sweep-interval", time.Hour, "Run the requalification sweep on this interval (0 disables)")
}
