package qualification

import (
	"context"
	"fmt"
	"log/slog"

	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

// SweepRequalifications moves qualified equipment between Qualified, Requalification Due and
// Overdue by comparing its next due date against the clock. Each equipment is swept in its own
// transaction; equipment in any pipeline or breakdown status is skipped. A failure on one
// equipment is logged and recorded in the result, and the sweep moves on.
func (s *Service) SweepRequalifications(ctx context.Context, actor string) (SweepResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return SweepResult{}, err
	}

	candidates, err := s.repo.ListEquipment(ctx, []string{
		string(domainqual.StatusQualified),
		string(domainqual.StatusRequalificationDue),
		string(domainqual.StatusOverdue),
	})
	if err != nil {
		return SweepResult{}, err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "requalification_sweep"))
	result := SweepResult{Changed: make([]SweepChange, 0), Failed: make([]SweepFailure, 0)}
	for _, candidate := range candidates {
		if err := checkContext(ctx); err != nil {
			return result, err
		}
		result.Checked++

		change, err := s.sweepOne(ctx, candidate.EquipmentID, actor)
		if err != nil {
			if ctxErr := checkContext(ctx); ctxErr != nil {
				return result, ctxErr
			}
			logging.Warn(logCtx, "sweep equipment failed",
				slog.Uint64("equipment_id", candidate.EquipmentID),
				slog.Any("err", errs.Loggable(err)),
			)
			result.Failed = append(result.Failed, SweepFailure{EquipmentID: candidate.EquipmentID, Error: err.Error()})
			continue
		}
		if change != nil {
			result.Changed = append(result.Changed, *change)
		}
	}

	logging.Info(logCtx, "requalification sweep finished",
		slog.Int("checked", result.Checked),
		slog.Int("changed", len(result.Changed)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *Service) sweepOne(ctx context.Context, equipmentID uint64, actor string) (*SweepChange, error) {
	now := s.nowUTCString()
	var (
		out    *SweepChange
		change *ports.StatusChange
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		eq, err := s.repo.GetEquipment(txCtx, equipmentID)
		if err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, equipmentID)
		}
		current := domainqual.Status(eq.Status)
		if !domainqual.SweepApplies(current) {
			return nil
		}

		due, tolerance, err := s.dueDateTx(txCtx, eq)
		if err != nil {
			return err
		}
		next := domainqual.RequalificationStanding(due, tolerance, s.now())
		if next == current {
			return nil
		}

		if change, err = s.setStatusTx(txCtx, &eq, next, now); err != nil {
			return err
		}
		change.Action = "Requalification Status Changed"
		change.Actor = normalizeActor(actor)

		dueText := ""
		if !due.IsZero() {
			dueText = due.Format(domainqual.DateLayout)
		}
		out = &SweepChange{EquipmentID: eq.EquipmentID, Tag: eq.Tag, From: string(current), To: string(next), DueDate: dueText}
		return appendAuditTx(txCtx, s.repo, eq.EquipmentID, "Requalification Status Changed",
			joinDetails(describeStatus(change), fmt.Sprintf("due %s, tolerance %d months", dueText, tolerance)), actor,
			&auditChanges{Status: statusDelta(change)}, now)
	}); err != nil {
		return nil, err
	}

	if change != nil {
		s.afterCommit(ctx, change)
	}
	return out, nil
}
