package qualification

import (
	"context"
	"fmt"
	"strings"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

type parsedPhaseEdit struct {
	edit          PhaseEdit
	phase         domainqual.Phase
	status        domainqual.PhaseStatus
	executionDate *string
	approvalDate  *string
}

// UpdateEquipment patches attributes and phases, enforces the unlock gate and recomputes
// status. The permanent tag is assigned once DQ is Passed.
func (s *Service) UpdateEquipment(ctx context.Context, input UpdateEquipmentInput) (EquipmentView, error) {
	if err := s.checkReady(ctx); err != nil {
		return EquipmentView{}, err
	}
	if input.EquipmentID == 0 {
		return EquipmentView{}, fmt.Errorf("%w: 0", domainqual.ErrEquipmentNotFound)
	}

	edits, err := parsePhaseEdits(input.PhaseEdits)
	if err != nil {
		return EquipmentView{}, err
	}
	requestedTag := ""
	if strings.TrimSpace(input.Tag) != "" {
		if requestedTag, err = domainqual.ValidateTag(input.Tag); err != nil {
			return EquipmentView{}, err
		}
	}
	fallback := domainqual.StatusNotStarted
	if strings.TrimSpace(input.FallbackStatus) != "" {
		if fallback, err = domainqual.ParseStatus(input.FallbackStatus); err != nil {
			return EquipmentView{}, err
		}
	}

	now := s.nowUTCString()
	var (
		view   EquipmentView
		change *ports.StatusChange
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		eq, err := s.repo.GetEquipment(txCtx, input.EquipmentID)
		if err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, input.EquipmentID)
		}

		fields, err := applyEquipmentPatch(&eq, input.Patch)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			eq.UpdatedAt = now
			if err := s.repo.UpdateEquipmentAttributes(txCtx, eq); err != nil {
				return err
			}
		}

		phases, err := s.repo.ListPhases(txCtx, eq.EquipmentID)
		if err != nil {
			return err
		}
		phaseChanges, err := s.applyPhaseEditsTx(txCtx, eq.EquipmentID, phases, edits, now)
		if err != nil {
			return err
		}

		tagChange, err := s.resolveTagTx(txCtx, &eq, phases, requestedTag, now)
		if err != nil {
			return err
		}

		next, err := s.derivePhaseStatusTx(txCtx, eq, phases, fallback)
		if err != nil {
			return err
		}
		if change, err = s.setStatusTx(txCtx, &eq, next, now); err != nil {
			return err
		}
		change.Action = "Equipment Updated"
		change.Actor = normalizeActor(input.Actor)

		details := []string{fmt.Sprintf("Updated %s", eq.Name)}
		if len(fields) > 0 {
			details = append(details, "fields: "+strings.Join(fields, ", "))
		}
		for _, pc := range phaseChanges {
			details = append(details, fmt.Sprintf("%s %s -> %s", pc.Phase, pc.From, pc.To))
		}
		if tagChange != nil {
			details = append(details, fmt.Sprintf("tag assigned %s", tagChange.To))
		}
		details = append(details, describeStatus(change))

		if err := appendAuditTx(txCtx, s.repo, eq.EquipmentID, "Equipment Updated", joinDetails(details...), input.Actor,
			&auditChanges{Status: statusDelta(change), Tag: tagChange, Fields: fields, Phases: phaseChanges}, now); err != nil {
			return err
		}

		view = mapEquipmentView(eq, phases)
		return nil
	}); err != nil {
		return EquipmentView{}, err
	}

	s.afterCommit(ctx, change)
	return view, nil
}

func parsePhaseEdits(edits []PhaseEdit) ([]parsedPhaseEdit, error) {
	out := make([]parsedPhaseEdit, 0, len(edits))
	for _, edit := range edits {
		parsed := parsedPhaseEdit{edit: edit}
		if edit.PhaseID == 0 {
			phase, err := domainqual.ParsePhase(edit.Phase)
			if err != nil {
				return nil, err
			}
			parsed.phase = phase
		}
		if edit.Status != nil {
			status, err := domainqual.ParsePhaseStatus(*edit.Status)
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

// applyPhaseEditsTx mutates phases in place, checks the unlock gate on the post-edit
// sequence and persists only rows that changed.
func (s *Service) applyPhaseEditsTx(ctx context.Context, equipmentID uint64, phases []ports.QualificationPhase, edits []parsedPhaseEdit, now string) ([]phaseDelta, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	before := phaseStatuses(phases)
	dirty := make(map[int]struct{}, len(edits))
	for _, pe := range edits {
		idx := -1
		for i, p := range phases {
			if (pe.edit.PhaseID != 0 && p.PhaseID == pe.edit.PhaseID) ||
				(pe.edit.PhaseID == 0 && p.Phase == string(pe.phase)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			if pe.edit.PhaseID != 0 {
				return nil, fmt.Errorf("%w: %d on equipment %d", domainqual.ErrPhaseNotFound, pe.edit.PhaseID, equipmentID)
			}
			return nil, fmt.Errorf("%w: %s on equipment %d", domainqual.ErrPhaseNotFound, pe.phase, equipmentID)
		}

		p := &phases[idx]
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
		if changed {
			p.UpdatedAt = now
			dirty[idx] = struct{}{}
		}
	}

	if err := domainqual.CheckUnlockGate(phaseStatuses(phases), dirty); err != nil {
		return nil, err
	}

	var deltas []phaseDelta
	for idx := range phases {
		if _, ok := dirty[idx]; !ok {
			continue
		}
		if err := s.repo.UpdatePhase(ctx, phases[idx]); err != nil {
			return nil, err
		}
		if string(before[idx]) != phases[idx].Status {
			deltas = append(deltas, phaseDelta{Phase: phases[idx].Phase, From: string(before[idx]), To: phases[idx].Status})
		}
	}
	return deltas, nil
}

// resolveTagTx assigns the permanent tag when DQ is Passed and the current tag is a placeholder.
func (s *Service) resolveTagTx(ctx context.Context, eq *ports.Equipment, phases []ports.QualificationPhase, requested string, now string) (*valueDelta, error) {
	dqPassed := false
	for _, p := range phases {
		if p.Phase == string(domainqual.PhaseDQ) {
			dqPassed = p.Status == string(domainqual.PhasePassed)
		}
	}

	if !domainqual.IsPlaceholderTag(eq.Tag) {
		if requested != "" && requested != eq.Tag {
			return nil, fmt.Errorf("%w: %s", domainqual.ErrTagAlreadyAssigned, eq.Tag)
		}
		return nil, nil
	}
	if !dqPassed {
		if requested != "" {
			return nil, domainqual.ErrTagBeforeDQ
		}
		return nil, nil
	}

	from := eq.Tag
	if err := s.assignTagTx(ctx, eq, requested, now); err != nil {
		return nil, err
	}
	return &valueDelta{From: from, To: eq.Tag}, nil
}

// applyEquipmentPatch validates and applies the patch, returning the changed field names.
func applyEquipmentPatch(eq *ports.Equipment, patch EquipmentPatch) ([]string, error) {
	var fields []string
	for _, item := range []struct {
		name     string
		dst      *string
		src      *string
		required bool
	}{
		{"name", &eq.Name, patch.Name, true},
		{"type", &eq.Type, patch.Type, true},
		{"department", &eq.Department, patch.Department, true},
		{"location", &eq.Location, patch.Location, true},
		{"manufacturer", &eq.Manufacturer, patch.Manufacturer, false},
		{"model", &eq.Model, patch.Model, false},
		{"serial_number", &eq.SerialNumber, patch.SerialNumber, false},
		{"capacity", &eq.Capacity, patch.Capacity, false},
		{"change_control_number", &eq.ChangeControlNumber, patch.ChangeControlNumber, false},
		{"urs_number", &eq.URSNumber, patch.URSNumber, false},
	} {
		if item.required && item.src != nil && strings.TrimSpace(*item.src) == "" {
			return nil, domainqual.ErrEquipmentFieldsRequired
		}
		fields = appendIf(fields, patchString(item.dst, item.src), item.name)
	}

	for _, item := range []struct {
		name string
		dst  *string
		src  *string
	}{
		{"installation_date", &eq.InstallationDate, patch.InstallationDate},
		{"next_due_date", &eq.NextDueDate, patch.NextDueDate},
	} {
		normalized, err := parseOptionalDate(item.src)
		if err != nil {
			return nil, err
		}
		fields = appendIf(fields, patchString(item.dst, normalized), item.name)
	}

	if patch.RequalificationFrequency != nil {
		frequency, err := domainqual.ParseFrequency(*patch.RequalificationFrequency)
		if err != nil {
			return nil, err
		}
		next := string(frequency)
		fields = appendIf(fields, patchString(&eq.RequalificationFrequency, &next), "requalification_frequency")
	}
	if patch.ToleranceMonths != nil {
		tolerance, err := domainqual.ParseTolerance(*patch.ToleranceMonths)
		if err != nil {
			return nil, err
		}
		if tolerance != eq.ToleranceMonths {
			eq.ToleranceMonths = tolerance
			fields = append(fields, "tolerance_months")
		}
	}
	return fields, nil
}
