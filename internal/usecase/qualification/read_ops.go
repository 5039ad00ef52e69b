package qualification

import (
	"context"
	"encoding/json"
	"log/slog"

	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

// GetEquipmentStatus is the read-only status view: phases with unlock flags, breakdown
// counters and where the equipment stands against its requalification calendar.
func (s *Service) GetEquipmentStatus(ctx context.Context, equipmentID uint64) (EquipmentStatusView, error) {
	if err := s.checkReady(ctx); err != nil {
		return EquipmentStatusView{}, err
	}

	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return EquipmentStatusView{}, notFound(err, domainqual.ErrEquipmentNotFound, equipmentID)
	}
	phases, err := s.repo.ListPhases(ctx, equipmentID)
	if err != nil {
		return EquipmentStatusView{}, err
	}
	open, pending, err := s.breakdownCountsTx(ctx, equipmentID)
	if err != nil {
		return EquipmentStatusView{}, err
	}
	due, tolerance, err := s.dueDateTx(ctx, eq)
	if err != nil {
		return EquipmentStatusView{}, err
	}

	view := EquipmentStatusView{
		EquipmentID:             eq.EquipmentID,
		Tag:                     eq.Tag,
		Name:                    eq.Name,
		Status:                  eq.Status,
		TagAssigned:             !domainqual.IsPlaceholderTag(eq.Tag),
		OpenBreakdowns:          open,
		PendingRevalidation:     pending,
		RequalificationStanding: string(domainqual.RequalificationStanding(due, tolerance, s.now())),
		Phases:                  mapPhaseViews(phases),
	}
	if !due.IsZero() {
		view.NextDueDate = due.Format(domainqual.DateLayout)
	}
	return view, nil
}

func (s *Service) GetEquipment(ctx context.Context, equipmentID uint64) (EquipmentView, error) {
	if err := s.checkReady(ctx); err != nil {
		return EquipmentView{}, err
	}

	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return EquipmentView{}, notFound(err, domainqual.ErrEquipmentNotFound, equipmentID)
	}
	phases, err := s.repo.ListPhases(ctx, equipmentID)
	if err != nil {
		return EquipmentView{}, err
	}
	return mapEquipmentView(eq, phases), nil
}

// ListEquipment returns newest equipment first. An empty status filter lists everything.
func (s *Service) ListEquipment(ctx context.Context, statuses []string) ([]EquipmentView, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	for _, raw := range statuses {
		if _, err := domainqual.ParseStatus(raw); err != nil {
			return nil, err
		}
	}

	rows, err := s.repo.ListEquipment(ctx, statuses)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EquipmentID)
	}
	phases, err := s.repo.ListPhasesByEquipment(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]EquipmentView, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapEquipmentView(row, phases[row.EquipmentID]))
	}
	return out, nil
}

// ListAuditLog returns newest entries first. limit <= 0 uses the configured default.
func (s *Service) ListAuditLog(ctx context.Context, equipmentID uint64, limit int) ([]AuditItem, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.auditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	rows, err := s.repo.ListAudit(ctx, equipmentID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]AuditItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, AuditItem{
			AuditID:   row.AuditID,
			Action:    row.Action,
			Details:   row.Details,
			ChangedBy: row.ChangedBy,
			Changes:   string(row.Changes),
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// Summary returns dashboard counters, served from the cache until the next mutation.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if err := s.checkReady(ctx); err != nil {
		return Summary{}, err
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "qualification"))

	if s.cache != nil {
		raw, found, err := s.cache.Get(ctx, summaryCacheKey)
		if err != nil {
			logging.Warn(logCtx, "read summary cache failed", slog.Any("err", errs.Loggable(err)))
		} else if found {
			var cached Summary
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	counts, err := s.repo.CountEquipmentByStatus(ctx)
	if err != nil {
		return Summary{}, err
	}
	out := summaryFromCounts(counts)

	if s.cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, string(payload), s.summaryTTL); err != nil {
				logging.Warn(logCtx, "write summary cache failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
	return out, nil
}

func summaryFromCounts(counts map[string]int64) Summary {
	var out Summary
	for status, n := range counts {
		out.Total += n
		switch domainqual.Status(status) {
		case domainqual.StatusNotStarted:
			out.NotStarted += n
		case domainqual.StatusInProgress:
			out.InProgress += n
		case domainqual.StatusQualified:
			out.Qualified += n
		case domainqual.StatusFailed:
			out.Failed += n
		case domainqual.StatusUnderMaintenance:
			out.UnderMaintenance += n
		case domainqual.StatusRevalidationRequired:
			out.RevalidationRequired += n
		case domainqual.StatusRequalificationDue:
			out.RequalificationDue += n
		case domainqual.StatusOverdue:
			out.Overdue += n
		}
	}
	return out
}

func mapPhaseViews(phases []ports.QualificationPhase) []PhaseView {
	statuses := phaseStatuses(phases)
	out := make([]PhaseView, 0, len(phases))
	for i, p := range phases {
		out = append(out, PhaseView{
			PhaseID:        p.PhaseID,
			Phase:          p.Phase,
			FullName:       domainqual.Phase(p.Phase).Info().Full,
			Status:         p.Status,
			Unlocked:       domainqual.IsUnlocked(statuses, i),
			ProtocolNumber: p.ProtocolNumber,
			ExecutionDate:  p.ExecutionDate,
			ApprovalDate:   p.ApprovalDate,
			ApprovedBy:     p.ApprovedBy,
			Remarks:        p.Remarks,
		})
	}
	return out
}

func mapEquipmentView(eq ports.Equipment, phases []ports.QualificationPhase) EquipmentView {
	return EquipmentView{
		EquipmentID:              eq.EquipmentID,
		Tag:                      eq.Tag,
		Name:                     eq.Name,
		Type:                     eq.Type,
		Department:               eq.Department,
		Location:                 eq.Location,
		Manufacturer:             eq.Manufacturer,
		Model:                    eq.Model,
		SerialNumber:             eq.SerialNumber,
		Capacity:                 eq.Capacity,
		InstallationDate:         eq.InstallationDate,
		ChangeControlNumber:      eq.ChangeControlNumber,
		URSNumber:                eq.URSNumber,
		RequalificationFrequency: eq.RequalificationFrequency,
		ToleranceMonths:          eq.ToleranceMonths,
		NextDueDate:              eq.NextDueDate,
		Status:                   eq.Status,
		CreatedAt:                eq.CreatedAt,
		UpdatedAt:                eq.UpdatedAt,
		Phases:                   mapPhaseViews(phases),
	}
}
