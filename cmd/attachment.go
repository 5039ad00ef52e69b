package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
	"qualtrack/internal/usecase/qualification"
)

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Upload and fetch protocol documents",
}

var attachmentUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Attach a document to a phase, requalification or revalidation phase",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		parent, err := attachmentParentFromFlags(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		mimeType, _ := cmd.Flags().GetString("mime")
		file, err := readAttachmentFile(path, mimeType)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("--file is required")
		}

		item, err := svc.UploadAttachment(ctx, qualification.UploadAttachmentInput{
			Parent:         parent,
			AttachmentFile: *file,
			Actor:          actorName,
		})
		if err != nil {
			logging.Error(ctx, "upload attachment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "upload attachment")
		}
		return writeJSON(cmd, item)
	}),
}

var attachmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents attached to one parent",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		parent, err := attachmentParentFromFlags(cmd)
		if err != nil {
			return err
		}
		items, err := svc.ListAttachments(ctx, parent)
		if err != nil {
			return errs.Wrap(err, "list attachments")
		}
		return writeJSON(cmd, items)
	}),
}

var attachmentDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Write an attachment to a local file",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		attachmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		item, data, err := svc.DownloadAttachment(ctx, attachmentID)
		if err != nil {
			return errs.Wrap(err, "download attachment")
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = item.FileName
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return errs.Wrapf(err, "write attachment to %q", out)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes, %s)\n", out, len(data), item.MimeType); err != nil {
			return errs.Wrap(err, "write download output")
		}
		return nil
	}),
}

var attachmentDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an attachment",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		attachmentID, err := requiredID(cmd, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteAttachment(ctx, attachmentID, actorName); err != nil {
			logging.Error(ctx, "delete attachment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete attachment")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "attachment %d: deleted\n", attachmentID); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

func attachmentParentFromFlags(cmd *cobra.Command) (ports.AttachmentParent, error) {
	parentType, _ := cmd.Flags().GetString("parent-type")
	parentID, _ := cmd.Flags().GetUint64("parent-id")
	return qualification.ParseAttachmentParent(parentType, parentID)
}

func addAttachmentParentFlags(cmd *cobra.Command) {
	cmd.Flags().String("parent-type", "", "Parent type (qualification_phase|requalification|revalidation_phase)")
	cmd.Flags().Uint64("parent-id", 0, "Parent id")
}

func init() {
	rootCmd.AddCommand(attachmentCmd)
	attachmentCmd.AddCommand(attachmentUploadCmd)
	attachmentCmd.AddCommand(attachmentListCmd)
	attachmentCmd.AddCommand(attachmentDownloadCmd)
	attachmentCmd.AddCommand(attachmentDeleteCmd)

	addAttachmentParentFlags(attachmentUploadCmd)
	attachmentUploadCmd.Flags().String("file", "", "Local file to upload")
	attachmentUploadCmd.Flags().String("mime", "", "MIME type (guessed from extension when empty)")

	addAttachmentParentFlags(attachmentListCmd)

	attachmentDownloadCmd.Flags().Uint64("id", 0, "Attachment id")
	attachmentDownloadCmd.Flags().String("out", "", "Output path (defaults to the stored file name)")

	attachmentDeleteCmd.Flags().Uint64("id", 0, "Attachment id")
}
