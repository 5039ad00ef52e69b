package cmd

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/dashboard"
	"qualtrack/internal/usecase/qualification"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the terminal qualification dashboard",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		status, _ := cmd.Flags().GetString("status")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		// Log lines would corrupt the alt screen.
		ctx := logging.WithLogger(cmd.Context(), logging.New(io.Discard, "error", "text"))

		model := dashboard.NewModel(ctx, svc, dashboard.Options{
			StatusFilter:    status,
			Actor:           actorName,
			RefreshInterval: refreshInterval,
		})
		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run dashboard")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("status", "", "Initial equipment status filter")
	consoleCmd.Flags().Duration("refresh-interval", 10*time.Second, "Auto refresh interval")
}
