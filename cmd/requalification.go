package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/qualification"
)

var requalCmd = &cobra.Command{
	Use:     "requal",
	Aliases: []string{"requalification"},
	Short:   "Schedule and record periodic requalification",
}

var requalScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a requalification for equipment",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		flags := cmd.Flags()

		equipmentID, err := requiredID(cmd, "equipment")
		if err != nil {
			return err
		}
		attrs := qualification.RequalificationAttributes{}
		attrs.Ref, _ = flags.GetString("ref")
		attrs.Frequency, _ = flags.GetString("frequency")
		attrs.ToleranceMonths, _ = flags.GetInt("tolerance")
		attrs.ScheduledDate, _ = flags.GetString("scheduled-date")
		attrs.ExecutionDate, _ = flags.GetString("execution-date")
		attrs.ApprovalDate, _ = flags.GetString("approval-date")
		attrs.ProtocolNumber, _ = flags.GetString("protocol")
		attrs.ApprovedBy, _ = flags.GetString("approved-by")
		attrs.Remarks, _ = flags.GetString("remarks")

		view, err := svc.ScheduleRequalification(ctx, qualification.ScheduleRequalificationInput{
			EquipmentID:               equipmentID,
			RequalificationAttributes: attrs,
			Actor:                     actorName,
		})
		if err != nil {
			logging.Error(ctx, "schedule requalification failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "schedule requalification")
		}
		return writeJSON(cmd, view)
	}),
}

var requalUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Record progress or the outcome of a requalification",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		requalificationID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		view, err := svc.UpdateRequalification(ctx, qualification.UpdateRequalificationInput{
			RequalificationID: requalificationID,
			Patch: qualification.RequalificationPatch{
				Ref:             optionalString(cmd, "ref"),
				Frequency:       optionalString(cmd, "frequency"),
				ToleranceMonths: optionalInt(cmd, "tolerance"),
				ScheduledDate:   optionalString(cmd, "scheduled-date"),
				ExecutionDate:   optionalString(cmd, "execution-date"),
				ApprovalDate:    optionalString(cmd, "approval-date"),
				ProtocolNumber:  optionalString(cmd, "protocol"),
				ApprovedBy:      optionalString(cmd, "approved-by"),
				Status:          optionalString(cmd, "status"),
				Remarks:         optionalString(cmd, "remarks"),
			},
			Actor: actorName,
		})
		if err != nil {
			logging.Error(ctx, "update requalification failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update requalification")
		}
		return writeJSON(cmd, view)
	}),
}

var requalDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a requalification record",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		requalificationID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		deleted, err := svc.DeleteRequalification(ctx, requalificationID, actorName)
		if err != nil {
			logging.Error(ctx, "delete requalification failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete requalification")
		}

		result := "deleted"
		if !deleted {
			result = "not found"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "requalification %d: %s\n", requalificationID, result); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var requalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requalifications of one equipment",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "equipment")
		if err != nil {
			return err
		}
		items, err := svc.ListRequalifications(ctx, equipmentID)
		if err != nil {
			return errs.Wrap(err, "list requalifications")
		}
		return writeJSON(cmd, items)
	}),
}

var requalSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move qualified equipment to Requalification Due or Overdue by date",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		result, err := svc.SweepRequalifications(ctx, actorName)
		if err != nil {
			logging.Error(ctx, "requalification sweep failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "sweep requalifications")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "checked=%d changed=%d failed=%d\n",
			result.Checked, len(result.Changed), len(result.Failed)); err != nil {
			return errs.Wrap(err, "write sweep output")
		}
		for _, change := range result.Changed {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d %s %s -> %s due=%s\n",
				change.EquipmentID, change.Tag, change.From, change.To, change.DueDate); err != nil {
				return errs.Wrap(err, "write sweep item")
			}
		}
		for _, failure := range result.Failed {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d failed: %s\n", failure.EquipmentID, failure.Error); err != nil {
				return errs.Wrap(err, "write sweep failure")
			}
		}
		return nil
	}),
}

func addRequalificationFlags(cmd *cobra.Command) {
	cmd.Flags().String("ref", "", "Requalification reference")
	cmd.Flags().String("frequency", "", "Frequency (Annual|Every 2 Years|Every 5 Years)")
	cmd.Flags().Int("tolerance", 0, "Tolerance in months (1-3)")
	cmd.Flags().String("scheduled-date", "", "Scheduled date (YYYY-MM-DD)")
	cmd.Flags().String("execution-date", "", "Execution date (YYYY-MM-DD)")
	cmd.Flags().String("approval-date", "", "Approval date (YYYY-MM-DD)")
	cmd.Flags().String("protocol", "", "Protocol number")
	cmd.Flags().String("approved-by", "", "Approver")
	cmd.Flags().String("remarks", "", "Remarks")
}

func init() {
	rootCmd.AddCommand(requalCmd)
	requalCmd.AddCommand(requalScheduleCmd)
	requalCmd.AddCommand(requalUpdateCmd)
	requalCmd.AddCommand(requalDeleteCmd)
	requalCmd.AddCommand(requalListCmd)
	requalCmd.AddCommand(requalSweepCmd)

	addRequalificationFlags(requalScheduleCmd)
	requalScheduleCmd.Flags().Uint64("equipment", 0, "Equipment id")

	addRequalificationFlags(requalUpdateCmd)
	requalUpdateCmd.Flags().Uint64("id", 0, "Requalification id")
	requalUpdateCmd.Flags().String("status", "", "Status (Scheduled|In Progress|Passed|Failed)")

	requalDeleteCmd.Flags().Uint64("id", 0, "Requalification id")
	requalListCmd.Flags().Uint64("equipment", 0, "Equipment id")
}
