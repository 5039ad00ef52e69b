package qualification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

// ReportBreakdown logs a failure, opens the selected revalidation phases and forces the
// equipment into Under Maintenance.
func (s *Service) ReportBreakdown(ctx context.Context, input ReportBreakdownInput) (BreakdownResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return BreakdownResult{}, err
	}

	row, err := normalizeBreakdownAttributes(input.EquipmentID, input.BreakdownAttributes)
	if err != nil {
		return BreakdownResult{}, err
	}
	phases, err := domainqual.ParseRevalidationPhases(input.RevalidationPhases)
	if err != nil {
		return BreakdownResult{}, err
	}
	if len(phases) > 0 && row.ValidationImpact == string(domainqual.ImpactNone) {
		return BreakdownResult{}, domainqual.ErrRevalidationWithoutImpact
	}

	now := s.nowUTCString()
	row.Status = string(domainqual.BreakdownOpen)
	row.CreatedAt = now
	row.UpdatedAt = now
	for _, p := range phases {
		row.RevalidationPhases = append(row.RevalidationPhases, ports.RevalidationPhase{
			Phase:     string(p),
			Status:    string(domainqual.RevalidationPending),
			UpdatedAt: now,
		})
	}

	var (
		result BreakdownResult
		change *ports.StatusChange
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		eq, err := s.repo.GetEquipment(txCtx, input.EquipmentID)
		if err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, input.EquipmentID)
		}
		created, err := s.repo.CreateBreakdown(txCtx, row)
		if err != nil {
			return err
		}
		if change, err = s.setStatusTx(txCtx, &eq, domainqual.OnBreakdownReported(), now); err != nil {
			return err
		}
		change.Action = "Breakdown Reported"
		change.Actor = normalizeActor(input.Actor)

		details := fmt.Sprintf("Breakdown %s reported (%s, %s): %s", created.Ref, created.Type, created.Severity, created.Description)
		if len(phases) > 0 {
			names := make([]string, 0, len(phases))
			for _, p := range phases {
				names = append(names, string(p))
			}
			details = joinDetails(details, "revalidation "+strings.Join(names, ", "))
		}
		details = joinDetails(details, describeStatus(change))
		if err := appendAuditTx(txCtx, s.repo, eq.EquipmentID, "Breakdown Reported", details, input.Actor,
			&auditChanges{Status: statusDelta(change), Breakdown: &valueDelta{To: created.Status}}, now); err != nil {
			return err
		}

		result = BreakdownResult{BreakdownID: created.BreakdownID, EquipmentID: eq.EquipmentID, EquipmentStatus: eq.Status}
		return nil
	}); err != nil {
		return BreakdownResult{}, err
	}

	s.afterCommit(ctx, change)
	return result, nil
}

// UpdateBreakdown patches the breakdown and its revalidation phases, then reconciles the
// parent equipment's status from its open and pending counts.
func (s *Service) UpdateBreakdown(ctx context.Context, input UpdateBreakdownInput) (BreakdownResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return BreakdownResult{}, err
	}
	edits, err := parseRevalidationEdits(input.RevalidationEdits)
	if err != nil {
		return BreakdownResult{}, err
	}

	now := s.nowUTCString()
	var (
		result BreakdownResult
		change *ports.StatusChange
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		bd, err := s.repo.GetBreakdown(txCtx, input.BreakdownID)
		if err != nil {
			return notFound(err, domainqual.ErrBreakdownNotFound, input.BreakdownID)
		}
		if input.EquipmentID != 0 && input.EquipmentID != bd.EquipmentID {
			return fmt.Errorf("%w: breakdown %d, equipment %d", domainqual.ErrBreakdownEquipmentMismatch, bd.BreakdownID, input.EquipmentID)
		}

		fromStatus := bd.Status
		fields, err := applyBreakdownPatch(&bd, input.Patch)
		if err != nil {
			return err
		}
		if len(bd.RevalidationPhases) > 0 && bd.ValidationImpact == string(domainqual.ImpactNone) {
			return domainqual.ErrRevalidationWithoutImpact
		}
		if len(fields) > 0 {
			bd.UpdatedAt = now
			if err := s.repo.UpdateBreakdown(txCtx, bd); err != nil {
				return err
			}
		}
		revalChanges, err := s.applyRevalidationEditsTx(txCtx, &bd, edits, now)
		if err != nil {
			return err
		}

		eq, err := s.repo.GetEquipment(txCtx, bd.EquipmentID)
		if err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, bd.EquipmentID)
		}
		next, err := s.reconcileBreakdownsTx(txCtx, eq)
		if err != nil {
			return err
		}
		if change, err = s.setStatusTx(txCtx, &eq, next, now); err != nil {
			return err
		}
		change.Action = "Breakdown Updated"
		change.Actor = normalizeActor(input.Actor)

		details := []string{fmt.Sprintf("Breakdown %s updated", bd.Ref)}
		var breakdownChange *valueDelta
		if fromStatus != bd.Status {
			breakdownChange = &valueDelta{From: fromStatus, To: bd.Status}
			details = append(details, fmt.Sprintf("breakdown %s -> %s", fromStatus, bd.Status))
		}
		for _, rc := range revalChanges {
			details = append(details, fmt.Sprintf("revalidation %s %s -> %s", rc.Phase, rc.From, rc.To))
		}
		details = append(details, "equipment status "+eq.Status)
		if err := appendAuditTx(txCtx, s.repo, eq.EquipmentID, "Breakdown Updated", joinDetails(details...), input.Actor,
			&auditChanges{Status: statusDelta(change), Fields: fields, Breakdown: breakdownChange, Revalidation: revalChanges}, now); err != nil {
			return err
		}

		result = BreakdownResult{BreakdownID: bd.BreakdownID, EquipmentID: eq.EquipmentID, EquipmentStatus: eq.Status}
		return nil
	}); err != nil {
		return BreakdownResult{}, err
	}

	s.afterCommit(ctx, change)
	return result, nil
}

// DeleteBreakdown treats removal as a correction and reconciles the equipment status as if
// the breakdown had never been reported. Unknown ids are a no-op.
func (s *Service) DeleteBreakdown(ctx context.Context, breakdownID uint64, actor string) (bool, error) {
	if err := s.checkReady(ctx); err != nil {
		return false, err
	}

	now := s.nowUTCString()
	var (
		deleted bool
		change  *ports.StatusChange
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		bd, err := s.repo.GetBreakdown(txCtx, breakdownID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}

		var blobKeys []string
		if deleted, blobKeys, err = s.repo.DeleteBreakdown(txCtx, breakdownID); err != nil || !deleted {
			return err
		}
		if err := s.deleteBlobsTx(txCtx, blobKeys); err != nil {
			return err
		}

		eq, err := s.repo.GetEquipment(txCtx, bd.EquipmentID)
		if err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, bd.EquipmentID)
		}
		next, err := s.reconcileBreakdownsTx(txCtx, eq)
		if err != nil {
			return err
		}
		if change, err = s.setStatusTx(txCtx, &eq, next, now); err != nil {
			return err
		}
		change.Action = "Breakdown Deleted"
		change.Actor = normalizeActor(actor)

		return appendAuditTx(txCtx, s.repo, eq.EquipmentID, "Breakdown Deleted",
			joinDetails(fmt.Sprintf("Breakdown %s deleted", bd.Ref), describeStatus(change)), actor,
			&auditChanges{Status: statusDelta(change), Breakdown: &valueDelta{From: bd.Status}}, now)
	}); err != nil {
		return false, err
	}

	if deleted {
		s.afterCommit(ctx, change)
	}
	return deleted, nil
}

func (s *Service) ListBreakdowns(ctx context.Context, equipmentID uint64) ([]BreakdownView, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetEquipment(ctx, equipmentID); err != nil {
		return nil, notFound(err, domainqual.ErrEquipmentNotFound, equipmentID)
	}

	rows, err := s.repo.ListBreakdowns(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	out := make([]BreakdownView, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapBreakdownView(row))
	}
	return out, nil
}

// reconcileBreakdownsTx applies the breakdown override. Under Maintenance with nothing open or
// pending returns to Qualified. Revalidation Required whose last pending revalidation has been
// resolved gets its phase-derived status back instead of staying stuck.
func (s *Service) reconcileBreakdownsTx(ctx context.Context, eq ports.Equipment) (domainqual.Status, error) {
	open, pending, err := s.breakdownCountsTx(ctx, eq.EquipmentID)
	if err != nil {
		return "", err
	}
	current := domainqual.Status(eq.Status)
	if open == 0 && pending == 0 && current == domainqual.StatusRevalidationRequired {
		return s.phaseStatusTx(ctx, eq)
	}
	return s.withStandingTx(ctx, eq, domainqual.ReconcileBreakdowns(current, int(open), int(pending)))
}

func (s *Service) phaseStatusTx(ctx context.Context, eq ports.Equipment) (domainqual.Status, error) {
	phases, err := s.repo.ListPhases(ctx, eq.EquipmentID)
	if err != nil {
		return "", err
	}
	return s.derivePhaseStatusTx(ctx, eq, phases, domainqual.StatusNotStarted)
}

func normalizeBreakdownAttributes(equipmentID uint64, in BreakdownAttributes) (ports.Breakdown, error) {
	out := ports.Breakdown{
		EquipmentID:            equipmentID,
		Ref:                    strings.TrimSpace(in.Ref),
		ReportedBy:             strings.TrimSpace(in.ReportedBy),
		Description:            strings.TrimSpace(in.Description),
		RootCause:              strings.TrimSpace(in.RootCause),
		MaintenancePerformedBy: strings.TrimSpace(in.MaintenancePerformedBy),
		MaintenanceDetails:     strings.TrimSpace(in.MaintenanceDetails),
		ImpactAssessment:       strings.TrimSpace(in.ImpactAssessment),
	}
	var err error
	if out.ReportedDate, err = domainqual.ParseDate(in.ReportedDate); err != nil {
		return ports.Breakdown{}, err
	}
	if equipmentID == 0 || out.Ref == "" || out.ReportedDate == "" || out.Description == "" {
		return ports.Breakdown{}, domainqual.ErrBreakdownFieldsRequired
	}
	if out.Type, err = domainqual.ParseBreakdownType(in.Type); err != nil {
		return ports.Breakdown{}, err
	}
	severity, err := domainqual.ParseSeverity(in.Severity)
	if err != nil {
		return ports.Breakdown{}, err
	}
	impact, err := domainqual.ParseValidationImpact(in.ValidationImpact)
	if err != nil {
		return ports.Breakdown{}, err
	}
	out.Severity = string(severity)
	out.ValidationImpact = string(impact)
	if out.MaintenanceStart, err = domainqual.ParseDate(in.MaintenanceStart); err != nil {
		return ports.Breakdown{}, err
	}
	if out.MaintenanceEnd, err = domainqual.ParseDate(in.MaintenanceEnd); err != nil {
		return ports.Breakdown{}, err
	}
	return out, nil
}

func applyBreakdownPatch(bd *ports.Breakdown, patch BreakdownPatch) ([]string, error) {
	var fields []string
	for _, item := range []struct {
		name     string
		dst      *string
		src      *string
		required bool
	}{
		{"ref", &bd.Ref, patch.Ref, true},
		{"description", &bd.Description, patch.Description, true},
		{"reported_by", &bd.ReportedBy, patch.ReportedBy, false},
		{"root_cause", &bd.RootCause, patch.RootCause, false},
		{"maintenance_performed_by", &bd.MaintenancePerformedBy, patch.MaintenancePerformedBy, false},
		{"maintenance_details", &bd.MaintenanceDetails, patch.MaintenanceDetails, false},
		{"impact_assessment", &bd.ImpactAssessment, patch.ImpactAssessment, false},
		{"closed_by", &bd.ClosedBy, patch.ClosedBy, false},
		{"closure_remarks", &bd.ClosureRemarks, patch.ClosureRemarks, false},
	} {
		if item.required && item.src != nil && strings.TrimSpace(*item.src) == "" {
			return nil, domainqual.ErrBreakdownFieldsRequired
		}
		fields = appendIf(fields, patchString(item.dst, item.src), item.name)
	}

	for _, item := range []struct {
		name     string
		dst      *string
		src      *string
		required bool
	}{
		{"reported_date", &bd.ReportedDate, patch.ReportedDate, true},
		{"maintenance_start", &bd.MaintenanceStart, patch.MaintenanceStart, false},
		{"maintenance_end", &bd.MaintenanceEnd, patch.MaintenanceEnd, false},
		{"closed_date", &bd.ClosedDate, patch.ClosedDate, false},
	} {
		normalized, err := parseOptionalDate(item.src)
		if err != nil {
			return nil, err
		}
		if item.required && normalized != nil && *normalized == "" {
			return nil, domainqual.ErrBreakdownFieldsRequired
		}
		fields = appendIf(fields, patchString(item.dst, normalized), item.name)
	}

	if patch.Type != nil {
		next, err := domainqual.ParseBreakdownType(*patch.Type)
		if err != nil {
			return nil, err
		}
		fields = appendIf(fields, patchString(&bd.Type, &next), "type")
	}
	if patch.Severity != nil {
		severity, err := domainqual.ParseSeverity(*patch.Severity)
		if err != nil {
			return nil, err
		}
		next := string(severity)
		fields = appendIf(fields, patchString(&bd.Severity, &next), "severity")
	}
	if patch.ValidationImpact != nil {
		impact, err := domainqual.ParseValidationImpact(*patch.ValidationImpact)
		if err != nil {
			return nil, err
		}
		next := string(impact)
		fields = appendIf(fields, patchString(&bd.ValidationImpact, &next), "validation_impact")
	}
	if patch.Status != nil {
		status, err := domainqual.ParseBreakdownStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		next := string(status)
		fields = appendIf(fields, patchString(&bd.Status, &next), "status")
	}
	return fields, nil
}

type parsedRevalidationEdit struct {
	edit          RevalidationEdit
	status        domainqual.RevalidationStatus
	executionDate *string
	approvalDate  *string
}

func parseRevalidationEdits(edits []RevalidationEdit) ([]parsedRevalidationEdit, error) {
	out := make([]parsedRevalidationEdit, 0, len(edits))
	for _, edit := range edits {
		parsed := parsedRevalidationEdit{edit: edit}
		if edit.Status != nil {
			status, err := domainqual.ParseRevalidationStatus(*edit.Status)
			if err != nil {
				return nil, err
			}
			parsed.status = status
		}
		var err error
		if parsed.executionDate, err = parseOptionalDate(edit.ExecutionDate); err != nil {
			return nil, err
		}
		if parsed.approvalDate, err = parseOptionalDate(edit.ApprovalDate); err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

// applyRevalidationEditsTx only touches revalidation rows that belong to bd.
func (s *Service) applyRevalidationEditsTx(ctx context.Context, bd *ports.Breakdown, edits []parsedRevalidationEdit, now string) ([]phaseDelta, error) {
	var deltas []phaseDelta
	for _, pe := range edits {
		idx := -1
		for i, p := range bd.RevalidationPhases {
			if p.RevalidationID == pe.edit.RevalidationID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %d on breakdown %d", domainqual.ErrRevalidationNotFound, pe.edit.RevalidationID, bd.BreakdownID)
		}

		p := &bd.RevalidationPhases[idx]
		from := p.Status
		changed := false
		if pe.status != "" && string(pe.status) != p.Status {
			p.Status = string(pe.status)
			changed = true
		}
		changed = patchString(&p.ProtocolNumber, pe.edit.ProtocolNumber) || changed
		changed = patchString(&p.ExecutionDate, pe.executionDate) || changed
		changed = patchString(&p.ApprovalDate, pe.approvalDate) || changed
		changed = patchString(&p.ApprovedBy, pe.edit.ApprovedBy) || changed
		changed = patchString(&p.Remarks, pe.edit.Remarks) || changed
		if !changed {
			continue
		}

		p.UpdatedAt = now
		if err := s.repo.UpdateRevalidationPhase(ctx, *p); err != nil {
			return nil, err
		}
		if from != p.Status {
			deltas = append(deltas, phaseDelta{Phase: p.Phase, From: from, To: p.Status})
		}
	}
	return deltas, nil
}

func mapBreakdownView(row ports.Breakdown) BreakdownView {
	view := BreakdownView{
		BreakdownID:            row.BreakdownID,
		EquipmentID:            row.EquipmentID,
		Ref:                    row.Ref,
		ReportedDate:           row.ReportedDate,
		ReportedBy:             row.ReportedBy,
		Description:            row.Description,
		RootCause:              row.RootCause,
		Type:                   row.Type,
		Severity:               row.Severity,
		MaintenanceStart:       row.MaintenanceStart,
		MaintenanceEnd:         row.MaintenanceEnd,
		MaintenancePerformedBy: row.MaintenancePerformedBy,
		MaintenanceDetails:     row.MaintenanceDetails,
		ValidationImpact:       row.ValidationImpact,
		ImpactAssessment:       row.ImpactAssessment,
		Status:                 row.Status,
		ClosedDate:             row.ClosedDate,
		ClosedBy:               row.ClosedBy,
		ClosureRemarks:         row.ClosureRemarks,
		RevalidationPhases:     make([]RevalidationView, 0, len(row.RevalidationPhases)),
	}
	for _, p := range row.RevalidationPhases {
		view.RevalidationPhases = append(view.RevalidationPhases, RevalidationView{
			RevalidationID: p.RevalidationID,
			Phase:          p.Phase,
			Status:         p.Status,
			ProtocolNumber: p.ProtocolNumber,
			ExecutionDate:  p.ExecutionDate,
			ApprovalDate:   p.ApprovalDate,
			ApprovedBy:     p.ApprovedBy,
			Remarks:        p.Remarks,
		})
	}
	return view
}
