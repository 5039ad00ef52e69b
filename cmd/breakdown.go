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

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Report breakdowns and track revalidation",
}

var breakdownReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report a breakdown and put the equipment under maintenance",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		flags := cmd.Flags()

		equipmentID, err := requiredID(cmd, "equipment")
		if err != nil {
			return err
		}
		attrs := qualification.BreakdownAttributes{}
		attrs.Ref, _ = flags.GetString("ref")
		attrs.ReportedDate, _ = flags.GetString("reported-date")
		attrs.ReportedBy, _ = flags.GetString("reported-by")
		attrs.Description, _ = flags.GetString("description")
		attrs.RootCause, _ = flags.GetString("root-cause")
		attrs.Type, _ = flags.GetString("type")
		attrs.Severity, _ = flags.GetString("severity")
		attrs.MaintenanceStart, _ = flags.GetString("maintenance-start")
		attrs.MaintenanceEnd, _ = flags.GetString("maintenance-end")
		attrs.MaintenancePerformedBy, _ = flags.GetString("maintenance-by")
		attrs.MaintenanceDetails, _ = flags.GetString("maintenance-details")
		attrs.ValidationImpact, _ = flags.GetString("impact")
		attrs.ImpactAssessment, _ = flags.GetString("impact-assessment")
		phases, _ := flags.GetStringSlice("revalidate")

		result, err := svc.ReportBreakdown(ctx, qualification.ReportBreakdownInput{
			EquipmentID:         equipmentID,
			BreakdownAttributes: attrs,
			RevalidationPhases:  phases,
			Actor:               actorName,
		})
		if err != nil {
			logging.Error(ctx, "report breakdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "report breakdown")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "reported breakdown: %d equipment=%d status=%s\n",
			result.BreakdownID, result.EquipmentID, result.EquipmentStatus); err != nil {
			return errs.Wrap(err, "write report output")
		}
		return nil
	}),
}

var breakdownUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a breakdown, close it or record a revalidation outcome",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		breakdownID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		equipmentID, _ := cmd.Flags().GetUint64("equipment")

		input := qualification.UpdateBreakdownInput{
			BreakdownID: breakdownID,
			EquipmentID: equipmentID,
			Patch: qualification.BreakdownPatch{
				Ref:                    optionalString(cmd, "ref"),
				ReportedDate:           optionalString(cmd, "reported-date"),
				ReportedBy:             optionalString(cmd, "reported-by"),
				Description:            optionalString(cmd, "description"),
				RootCause:              optionalString(cmd, "root-cause"),
				Type:                   optionalString(cmd, "type"),
				Severity:               optionalString(cmd, "severity"),
				MaintenanceStart:       optionalString(cmd, "maintenance-start"),
				MaintenanceEnd:         optionalString(cmd, "maintenance-end"),
				MaintenancePerformedBy: optionalString(cmd, "maintenance-by"),
				MaintenanceDetails:     optionalString(cmd, "maintenance-details"),
				ValidationImpact:       optionalString(cmd, "impact"),
				ImpactAssessment:       optionalString(cmd, "impact-assessment"),
				Status:                 optionalString(cmd, "status"),
				ClosedDate:             optionalString(cmd, "closed-date"),
				ClosedBy:               optionalString(cmd, "closed-by"),
				ClosureRemarks:         optionalString(cmd, "closure-remarks"),
			},
			Actor: actorName,
		}
		if revalidationID, _ := cmd.Flags().GetUint64("reval-id"); revalidationID != 0 {
			input.RevalidationEdits = []qualification.RevalidationEdit{{
				RevalidationID: revalidationID,
				Status:         optionalString(cmd, "reval-status"),
				ProtocolNumber: optionalString(cmd, "reval-protocol"),
				ExecutionDate:  optionalString(cmd, "reval-execution-date"),
				ApprovalDate:   optionalString(cmd, "reval-approval-date"),
				ApprovedBy:     optionalString(cmd, "reval-approved-by"),
				Remarks:        optionalString(cmd, "reval-remarks"),
			}}
		}

		result, err := svc.UpdateBreakdown(ctx, input)
		if err != nil {
			logging.Error(ctx, "update breakdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update breakdown")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "updated breakdown: %d equipment=%d status=%s\n",
			result.BreakdownID, result.EquipmentID, result.EquipmentStatus); err != nil {
			return errs.Wrap(err, "write update output")
		}
		return nil
	}),
}

var breakdownDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a breakdown with its revalidation phases",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		breakdownID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		deleted, err := svc.DeleteBreakdown(ctx, breakdownID, actorName)
		if err != nil {
			logging.Error(ctx, "delete breakdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete breakdown")
		}

		result := "deleted"
		if !deleted {
			result = "not found"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "breakdown %d: %s\n", breakdownID, result); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var breakdownListCmd = &cobra.Command{
	Use:   "list",
	Short: "List breakdowns of one equipment",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "equipment")
		if err != nil {
			return err
		}
		items, err := svc.ListBreakdowns(ctx, equipmentID)
		if err != nil {
			return errs.Wrap(err, "list breakdowns")
		}
		return writeJSON(cmd, items)
	}),
}

func addBreakdownAttributeFlags(cmd *cobra.Command) {
	cmd.Flags().String("ref", "", "Breakdown reference")
	cmd.Flags().String("reported-date", "", "Reported date (YYYY-MM-DD)")
	cmd.Flags().String("reported-by", "", "Reporter")
	cmd.Flags().String("description", "", "Breakdown description")
	cmd.Flags().String("root-cause", "", "Root cause")
	cmd.Flags().String("type", "", "Breakdown type (Mechanical, Electrical, Software/Firmware, Calibration Failure, ...)")
	cmd.Flags().String("severity", "", "Severity (Minor|Moderate|Major|Critical)")
	cmd.Flags().String("maintenance-start", "", "Maintenance start date (YYYY-MM-DD)")
	cmd.Flags().String("maintenance-end", "", "Maintenance end date (YYYY-MM-DD)")
	cmd.Flags().String("maintenance-by", "", "Maintenance performed by")
	cmd.Flags().String("maintenance-details", "", "Maintenance details")
	cmd.Flags().String("impact", "", "Validation impact (No Impact|Partial Revalidation Required|Full Revalidation Required)")
	cmd.Flags().String("impact-assessment", "", "Impact assessment")
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
	breakdownCmd.AddCommand(breakdownReportCmd)
	breakdownCmd.AddCommand(breakdownUpdateCmd)
	breakdownCmd.AddCommand(breakdownDeleteCmd)
	breakdownCmd.AddCommand(breakdownListCmd)

	addBreakdownAttributeFlags(breakdownReportCmd)
	breakdownReportCmd.Flags().Uint64("equipment", 0, "Equipment id")
	breakdownReportCmd.Flags().StringSlice("revalidate", nil, "Phases to revalidate (IQ|OQ|PQ, repeatable)")

	addBreakdownAttributeFlags(breakdownUpdateCmd)
	breakdownUpdateCmd.Flags().Uint64("id", 0, "Breakdown id")
	breakdownUpdateCmd.Flags().Uint64("equipment", 0, "Expected equipment id (optional)")
	breakdownUpdateCmd.Flags().String("status", "", "Breakdown status")
	breakdownUpdateCmd.Flags().String("closed-date", "", "Closed date (YYYY-MM-DD)")
	breakdownUpdateCmd.Flags().String("closed-by", "", "Closed by")
	breakdownUpdateCmd.Flags().String("closure-remarks", "", "Closure remarks")
	breakdownUpdateCmd.Flags().Uint64("reval-id", 0, "Revalidation phase id to edit")
	breakdownUpdateCmd.Flags().String("reval-status", "", "Revalidation status (Pending|In Progress|Passed|Failed)")
	breakdownUpdateCmd.Flags().String("reval-protocol", "", "Revalidation protocol number")
	breakdownUpdateCmd.Flags().String("reval-execution-date", "", "Revalidation execution date (YYYY-MM-DD)")
	breakdownUpdateCmd.Flags().String("reval-approval-date", "", "Revalidation approval date (YYYY-MM-DD)")
	breakdownUpdateCmd.Flags().String("reval-approved-by", "", "Revalidation approver")
	breakdownUpdateCmd.Flags().String("reval-remarks", "", "Revalidation remarks")

	breakdownDeleteCmd.Flags().Uint64("id", 0, "Breakdown id")
	breakdownListCmd.Flags().Uint64("equipment", 0, "Equipment id")
}
