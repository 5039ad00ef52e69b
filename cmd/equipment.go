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

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Register and track qualified equipment",
}

var equipmentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register equipment with its seven qualification phases",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		flags := cmd.Flags()

		attrs := qualification.EquipmentAttributes{}
		attrs.Name, _ = flags.GetString("name")
		attrs.Type, _ = flags.GetString("type")
		attrs.Department, _ = flags.GetString("department")
		attrs.Location, _ = flags.GetString("location")
		attrs.Manufacturer, _ = flags.GetString("manufacturer")
		attrs.Model, _ = flags.GetString("model")
		attrs.SerialNumber, _ = flags.GetString("serial-number")
		attrs.Capacity, _ = flags.GetString("capacity")
		attrs.InstallationDate, _ = flags.GetString("installation-date")
		attrs.ChangeControlNumber, _ = flags.GetString("change-control")
		attrs.RequalificationFrequency, _ = flags.GetString("frequency")
		attrs.ToleranceMonths, _ = flags.GetInt("tolerance")
		attrs.NextDueDate, _ = flags.GetString("next-due")

		urs := qualification.URSInput{}
		urs.Number, _ = flags.GetString("urs-number")
		urs.ProtocolNumber, _ = flags.GetString("urs-protocol")
		urs.ExecutionDate, _ = flags.GetString("urs-execution-date")
		urs.ApprovalDate, _ = flags.GetString("urs-approval-date")
		urs.ApprovedBy, _ = flags.GetString("urs-approved-by")
		urs.Remarks, _ = flags.GetString("urs-remarks")

		ursFile, _ := flags.GetString("urs-file")
		ursMime, _ := flags.GetString("urs-mime")
		attachment, err := readAttachmentFile(ursFile, ursMime)
		if err != nil {
			return err
		}

		equipmentID, err := svc.CreateEquipment(ctx, qualification.CreateEquipmentInput{
			EquipmentAttributes: attrs,
			URS:                 urs,
			URSAttachment:       attachment,
			Actor:               actorName,
		})
		if err != nil {
			logging.Error(ctx, "create equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create equipment")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created equipment: %d\n", equipmentID); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var equipmentUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit equipment attributes, assign the permanent tag or set the fallback status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		tag, _ := cmd.Flags().GetString("tag")
		fallback, _ := cmd.Flags().GetString("fallback-status")

		view, err := svc.UpdateEquipment(ctx, qualification.UpdateEquipmentInput{
			EquipmentID:    equipmentID,
			Patch:          equipmentPatchFromFlags(cmd),
			Tag:            tag,
			FallbackStatus: fallback,
			Actor:          actorName,
		})
		if err != nil {
			logging.Error(ctx, "update equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update equipment")
		}
		return writeJSON(cmd, view)
	}),
}

var equipmentPhaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Record the outcome of one qualification phase",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		phase, _ := cmd.Flags().GetString("phase")
		tag, _ := cmd.Flags().GetString("tag")

		view, err := svc.UpdateEquipment(ctx, qualification.UpdateEquipmentInput{
			EquipmentID: equipmentID,
			PhaseEdits: []qualification.PhaseEdit{{
				Phase:          phase,
				Status:         optionalString(cmd, "status"),
				ProtocolNumber: optionalString(cmd, "protocol"),
				ExecutionDate:  optionalString(cmd, "execution-date"),
				ApprovalDate:   optionalString(cmd, "approval-date"),
				ApprovedBy:     optionalString(cmd, "approved-by"),
				Remarks:        optionalString(cmd, "remarks"),
			}},
			Tag:   tag,
			Actor: actorName,
		})
		if err != nil {
			logging.Error(ctx, "update qualification phase failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update qualification phase")
		}
		return writeJSON(cmd, view)
	}),
}

var equipmentDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete equipment and everything recorded against it",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		deleted, err := svc.DeleteEquipment(ctx, equipmentID)
		if err != nil {
			logging.Error(ctx, "delete equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete equipment")
		}

		result := "deleted"
		if !deleted {
			result = "not found"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment %d: %s\n", equipmentID, result); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var equipmentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show equipment with its qualification phases",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		view, err := svc.GetEquipment(ctx, equipmentID)
		if err != nil {
			return errs.Wrap(err, "get equipment")
		}
		return writeJSON(cmd, view)
	}),
}

var equipmentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show derived status, unlocked phases and open breakdown counts",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		view, err := svc.GetEquipmentStatus(ctx, equipmentID)
		if err != nil {
			return errs.Wrap(err, "get equipment status")
		}
		return writeJSON(cmd, view)
	}),
}

var equipmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List equipment, optionally filtered by status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		statuses, _ := cmd.Flags().GetStringSlice("status")
		items, err := svc.ListEquipment(ctx, statuses)
		if err != nil {
			logging.Error(ctx, "list equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list equipment")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no equipment"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}
		for _, item := range items {
			nextDue := item.NextDueDate
			if nextDue == "" {
				nextDue = "-"
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%d %s [%s] dept=%s location=%s next_due=%s name=%s\n",
				item.EquipmentID,
				item.Tag,
				item.Status,
				item.Department,
				item.Location,
				nextDue,
				item.Name,
			); err != nil {
				return errs.Wrap(err, "write list item")
			}
		}
		return nil
	}),
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show equipment counts per status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		summary, err := svc.Summary(ctx)
		if err != nil {
			return errs.Wrap(err, "load summary")
		}
		return writeJSON(cmd, summary)
	}),
}

func equipmentPatchFromFlags(cmd *cobra.Command) qualification.EquipmentPatch {
	return qualification.EquipmentPatch{
		Name:                     optionalString(cmd, "name"),
		Type:                     optionalString(cmd, "type"),
		Department:               optionalString(cmd, "department"),
		Location:                 optionalString(cmd, "location"),
		Manufacturer:             optionalString(cmd, "manufacturer"),
		Model:                    optionalString(cmd, "model"),
		SerialNumber:             optionalString(cmd, "serial-number"),
		Capacity:                 optionalString(cmd, "capacity"),
		InstallationDate:         optionalString(cmd, "installation-date"),
		ChangeControlNumber:      optionalString(cmd, "change-control"),
		URSNumber:                optionalString(cmd, "urs-number"),
		RequalificationFrequency: optionalString(cmd, "frequency"),
		ToleranceMonths:          optionalInt(cmd, "tolerance"),
		NextDueDate:              optionalString(cmd, "next-due"),
	}
}

func addEquipmentAttributeFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Equipment name")
	cmd.Flags().String("type", "", "Equipment type")
	cmd.Flags().String("department", "", "Owning department")
	cmd.Flags().String("location", "", "Installed location")
	cmd.Flags().String("manufacturer", "", "Manufacturer")
	cmd.Flags().String("model", "", "Model")
	cmd.Flags().String("serial-number", "", "Serial number")
	cmd.Flags().String("capacity", "", "Capacity")
	cmd.Flags().String("installation-date", "", "Installation date (YYYY-MM-DD)")
	cmd.Flags().String("change-control", "", "Change control number")
	cmd.Flags().String("frequency", "", "Requalification frequency (Annual|Every 2 Years|Every 5 Years)")
	cmd.Flags().Int("tolerance", 0, "Requalification tolerance in months (1-3)")
	cmd.Flags().String("next-due", "", "Next requalification due date (YYYY-MM-DD)")
	cmd.Flags().String("urs-number", "", "URS document number")
}

func init() {
	rootCmd.AddCommand(equipmentCmd)
	rootCmd.AddCommand(summaryCmd)
	equipmentCmd.AddCommand(equipmentCreateCmd)
	equipmentCmd.AddCommand(equipmentUpdateCmd)
	equipmentCmd.AddCommand(equipmentPhaseCmd)
	equipmentCmd.AddCommand(equipmentDeleteCmd)
	equipmentCmd.AddCommand(equipmentShowCmd)
	equipmentCmd.AddCommand(equipmentStatusCmd)
	equipmentCmd.AddCommand(equipmentListCmd)

	addEquipmentAttributeFlags(equipmentCreateCmd)
	equipmentCreateCmd.Flags().String("urs-protocol", "", "URS protocol number (defaults to the URS number)")
	equipmentCreateCmd.Flags().String("urs-execution-date", "", "URS execution date (YYYY-MM-DD)")
	equipmentCreateCmd.Flags().String("urs-approval-date", "", "URS approval date (YYYY-MM-DD)")
	equipmentCreateCmd.Flags().String("urs-approved-by", "", "URS approver")
	equipmentCreateCmd.Flags().String("urs-remarks", "", "URS remarks")
	equipmentCreateCmd.Flags().String("urs-file", "", "Path of the URS document to attach")
	equipmentCreateCmd.Flags().String("urs-mime", "", "MIME type of the URS document (guessed from extension when empty)")

	addEquipmentAttributeFlags(equipmentUpdateCmd)
	equipmentUpdateCmd.Flags().Uint64("id", 0, "Equipment id")
	equipmentUpdateCmd.Flags().String("tag", "", "Permanent tag to assign once DQ passed (empty generates one)")
	equipmentUpdateCmd.Flags().String("fallback-status", "", "Status kept while every phase is still Pending")

	equipmentPhaseCmd.Flags().Uint64("id", 0, "Equipment id")
	equipmentPhaseCmd.Flags().String("phase", "", "Phase name (URS|DQ|FAT|SAT|IQ|OQ|PQ)")
	equipmentPhaseCmd.Flags().String("status", "", "Phase status (Pending|In Progress|Passed|Failed|Waived|Not Applicable)")
	equipmentPhaseCmd.Flags().String("protocol", "", "Protocol number")
	equipmentPhaseCmd.Flags().String("execution-date", "", "Execution date (YYYY-MM-DD)")
	equipmentPhaseCmd.Flags().String("approval-date", "", "Approval date (YYYY-MM-DD)")
	equipmentPhaseCmd.Flags().String("approved-by", "", "Approver")
	equipmentPhaseCmd.Flags().String("remarks", "", "Remarks")
	equipmentPhaseCmd.Flags().String("tag", "", "Permanent tag to assign in the same update")
	_ = equipmentPhaseCmd.MarkFlagRequired("phase")

	for _, c := range []*cobra.Command{equipmentDeleteCmd, equipmentShowCmd, equipmentStatusCmd} {
		c.Flags().Uint64("id", 0, "Equipment id")
	}
	equipmentListCmd.Flags().StringSlice("status", nil, "Filter by equipment status (repeatable)")
}
