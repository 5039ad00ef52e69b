package qualification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

func phaseStatuses(phases []ports.QualificationPhase) []domainqual.PhaseStatus {
	out := make([]domainqual.PhaseStatus, 0, len(phases))
	for _, p := range phases {
		out = append(out, domainqual.PhaseStatus(p.Status))
	}
	return out
}

func (s *Service) breakdownCountsTx(ctx context.Context, equipmentID uint64) (int64, int64, error) {
	open, err := s.repo.CountOpenBreakdowns(ctx, equipmentID)
	if err != nil {
		return 0, 0, err
	}
	pending, err := s.repo.CountPendingRevalidation(ctx, equipmentID)
	if err != nil {
		return 0, 0, err
	}
	return open, pending, nil
}

// dueDateTx picks the earliest open requalification, else the equipment's own next due date.
func (s *Service) dueDateTx(ctx context.Context, eq ports.Equipment) (time.Time, int, error) {
	next, ok, err := s.repo.NextOpenRequalification(ctx, eq.EquipmentID)
	if err != nil {
		return time.Time{}, 0, err
	}
	raw, tolerance := eq.NextDueDate, eq.ToleranceMonths
	if ok {
		raw, tolerance = next.ScheduledDate, next.ToleranceMonths
	}
	if raw == "" {
		return time.Time{}, tolerance, nil
	}
	due, err := time.Parse(domainqual.DateLayout, raw)
	if err != nil {
		return time.Time{}, tolerance, fmt.Errorf("%w: stored due date %q", domainqual.ErrInvalidDate, raw)
	}
	return due, tolerance, nil
}

// withStandingTx lets the requalification calendar refine a qualified equipment's status.
func (s *Service) withStandingTx(ctx context.Context, eq ports.Equipment, status domainqual.Status) (domainqual.Status, error) {
	if !domainqual.SweepApplies(status) {
		return status, nil
	}
	due, tolerance, err := s.dueDateTx(ctx, eq)
	if err != nil {
		return "", err
	}
	return domainqual.RequalificationStanding(due, tolerance, s.now()), nil
}

// derivePhaseStatusTx runs the base derivation over phases and lets unresolved breakdowns win.
func (s *Service) derivePhaseStatusTx(ctx context.Context, eq ports.Equipment, phases []ports.QualificationPhase, fallback domainqual.Status) (domainqual.Status, error) {
	if len(phases) == 0 {
		logging.Warn(
			logging.WithAttrs(ctx, slog.String("component", "qualification")),
			"equipment has no qualification phases, using fallback status",
			slog.Uint64("equipment_id", eq.EquipmentID),
			slog.String("fallback", string(fallback)),
		)
	}
	base := domainqual.DeriveStatus(phaseStatuses(phases), fallback)

	open, pending, err := s.breakdownCountsTx(ctx, eq.EquipmentID)
	if err != nil {
		return "", err
	}
	return s.withStandingTx(ctx, eq, domainqual.ApplyBreakdownPriority(base, int(open), int(pending)))
}

// setStatusTx is the only write path for equipment.status. It always bumps the row version
// so a concurrent writer holding the old version fails instead of overwriting.
func (s *Service) setStatusTx(ctx context.Context, eq *ports.Equipment, next domainqual.Status, now string) (*ports.StatusChange, error) {
	version, err := s.repo.SetEquipmentStatus(ctx, eq.EquipmentID, string(next), eq.Version, now)
	if err != nil {
		if errors.Is(err, ports.ErrStaleWrite) {
			return nil, fmt.Errorf("%w: equipment %d", domainqual.ErrStaleEquipment, eq.EquipmentID)
		}
		return nil, err
	}

	change := &ports.StatusChange{
		EquipmentID: eq.EquipmentID,
		Tag:         eq.Tag,
		From:        eq.Status,
		To:          string(next),
		At:          now,
	}
	eq.Status = string(next)
	eq.Version = version
	return change, nil
}
