package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qualtrack/internal/bootstrap"
	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/qualification"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail of one equipment, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *qualification.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		equipmentID, err := requiredID(cmd, "equipment")
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		sinceRaw, _ := cmd.Flags().GetString("since")
		untilRaw, _ := cmd.Flags().GetString("until")

		window, err := parseAuditWindow(sinceRaw, untilRaw)
		if err != nil {
			return err
		}

		items, err := svc.ListAuditLog(ctx, equipmentID, limit)
		if err != nil {
			logging.Error(ctx, "list audit log failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list audit log")
		}
		items, err = filterAuditByCreatedAt(items, window)
		if err != nil {
			return err
		}

		if asJSON {
			if items == nil {
				items = []qualification.AuditItem{}
			}
			return writeJSON(cmd, items)
		}
		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no audit entries"); err != nil {
				return errs.Wrap(err, "write audit output")
			}
			return nil
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s by=%s %s\n",
				item.CreatedAt, item.Action, item.ChangedBy, item.Details); err != nil {
				return errs.Wrap(err, "write audit item")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().Uint64("equipment", 0, "Equipment id")
	auditCmd.Flags().Int("limit", 0, "Maximum entries (default from config, capped at 500)")
	auditCmd.Flags().Bool("json", false, "Print entries as a JSON array")
	auditCmd.Flags().String("since", "", "Keep entries with created_at >= this time (RFC3339 or YYYY-MM-DD)")
	auditCmd.Flags().String("until", "", "Keep entries with created_at <= this time (RFC3339 or YYYY-MM-DD)")
}

type auditWindow struct {
	since *time.Time
	until *time.Time
}

func parseAuditWindow(sinceRaw string, untilRaw string) (auditWindow, error) {
	since, err := parseAuditFlagTime("since", sinceRaw)
	if err != nil {
		return auditWindow{}, err
	}
	until, err := parseAuditFlagTime("until", untilRaw)
	if err != nil {
		return auditWindow{}, err
	}
	if since != nil && until != nil && since.After(*until) {
		return auditWindow{}, fmt.Errorf("invalid time window: --since %q is after --until %q",
			since.UTC().Format(time.RFC3339Nano), until.UTC().Format(time.RFC3339Nano))
	}
	return auditWindow{since: since, until: until}, nil
}

func parseAuditFlagTime(flagName string, value string) (*time.Time, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return nil, nil
	}
	parsed, ok := parseAuditTime(normalized)
	if !ok {
		return nil, fmt.Errorf("invalid --%s value %q: expected RFC3339 timestamp or YYYY-MM-DD", flagName, normalized)
	}
	return &parsed, nil
}

func parseAuditTime(value string) (time.Time, bool) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		parsed, err := time.Parse(layout, normalized)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func filterAuditByCreatedAt(items []qualification.AuditItem, window auditWindow) ([]qualification.AuditItem, error) {
	if window.since == nil && window.until == nil {
		return items, nil
	}

	filtered := make([]qualification.AuditItem, 0, len(items))
	for _, item := range items {
		createdAt, ok := parseAuditTime(item.CreatedAt)
		if !ok {
			return nil, fmt.Errorf("invalid created_at %q for audit_id=%d", strings.TrimSpace(item.CreatedAt), item.AuditID)
		}
		if window.since != nil && createdAt.Before(*window.since) {
			continue
		}
		if window.until != nil && createdAt.After(*window.until) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}
