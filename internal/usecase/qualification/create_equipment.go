package qualification

import (
	"context"
	"fmt"
	"strings"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

// CreateEquipment registers equipment under a placeholder tag with one phase row per pipeline
// entry. URS starts Passed when its documentation is supplied at registration; the status stays
// Not Started until the first phase edit recomputes it.
func (s *Service) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (uint64, error) {
	if err := s.checkReady(ctx); err != nil {
		return 0, err
	}

	attrs, err := normalizeEquipmentAttributes(input.EquipmentAttributes)
	if err != nil {
		return 0, err
	}
	urs, err := normalizeURS(input.URS)
	if err != nil {
		return 0, err
	}
	var ursFile *decodedAttachment
	if input.URSAttachment != nil {
		file, err := decodeAttachment(*input.URSAttachment, s.maxAttachmentBytes)
		if err != nil {
			return 0, err
		}
		ursFile = &file
	}

	now := s.nowUTCString()
	attrs.Tag = domainqual.NewPlaceholderTag(s.now())
	attrs.URSNumber = urs.Number
	attrs.Status = string(domainqual.StatusNotStarted)
	attrs.CreatedAt = now
	attrs.UpdatedAt = now

	var created ports.Equipment
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateEquipment(txCtx, attrs)
		if err != nil {
			return err
		}

		rows := make([]ports.QualificationPhase, 0, len(domainqual.Phases()))
		for i, phase := range domainqual.Phases() {
			row := ports.QualificationPhase{
				EquipmentID: created.EquipmentID,
				Phase:       string(phase),
				Seq:         i,
				Status:      string(domainqual.PhasePending),
				UpdatedAt:   now,
			}
			if phase == domainqual.PhaseURS && urs.provided() {
				row.Status = string(domainqual.PhasePassed)
				row.ProtocolNumber = urs.ProtocolNumber
				row.ExecutionDate = urs.ExecutionDate
				row.ApprovalDate = urs.ApprovalDate
				row.ApprovedBy = urs.ApprovedBy
				row.Remarks = urs.Remarks
			}
			rows = append(rows, row)
		}
		phases, err := s.repo.CreatePhases(txCtx, rows)
		if err != nil {
			return err
		}

		if ursFile != nil {
			if _, err := s.storeAttachmentTx(txCtx, ports.AttachmentParent{QualificationPhaseID: phases[0].PhaseID}, *ursFile, input.Actor, now); err != nil {
				return err
			}
		}

		details := fmt.Sprintf("Created %s (%s, %s, %s)", created.Name, created.Type, created.Department, created.Location)
		if urs.provided() {
			details = joinDetails(details, "URS passed at registration")
		}
		return appendAuditTx(txCtx, s.repo, created.EquipmentID, "Equipment Created", details, input.Actor,
			&auditChanges{Status: &valueDelta{To: created.Status}}, now)
	}); err != nil {
		return 0, err
	}

	s.afterCommit(ctx, nil)
	return created.EquipmentID, nil
}

func normalizeEquipmentAttributes(in EquipmentAttributes) (ports.Equipment, error) {
	out := ports.Equipment{
		Name:                strings.TrimSpace(in.Name),
		Type:                strings.TrimSpace(in.Type),
		Department:          strings.TrimSpace(in.Department),
		Location:            strings.TrimSpace(in.Location),
		Manufacturer:        strings.TrimSpace(in.Manufacturer),
		Model:               strings.TrimSpace(in.Model),
		SerialNumber:        strings.TrimSpace(in.SerialNumber),
		Capacity:            strings.TrimSpace(in.Capacity),
		ChangeControlNumber: strings.TrimSpace(in.ChangeControlNumber),
	}
	if out.Name == "" || out.Type == "" || out.Department == "" || out.Location == "" {
		return ports.Equipment{}, domainqual.ErrEquipmentFieldsRequired
	}

	frequency, err := domainqual.ParseFrequency(in.RequalificationFrequency)
	if err != nil {
		return ports.Equipment{}, err
	}
	tolerance, err := domainqual.ParseTolerance(in.ToleranceMonths)
	if err != nil {
		return ports.Equipment{}, err
	}
	out.RequalificationFrequency = string(frequency)
	out.ToleranceMonths = tolerance

	if out.InstallationDate, err = domainqual.ParseDate(in.InstallationDate); err != nil {
		return ports.Equipment{}, err
	}
	if out.NextDueDate, err = domainqual.ParseDate(in.NextDueDate); err != nil {
		return ports.Equipment{}, err
	}
	return out, nil
}

func normalizeURS(in URSInput) (URSInput, error) {
	out := URSInput{
		Number:         strings.TrimSpace(in.Number),
		ProtocolNumber: strings.TrimSpace(in.ProtocolNumber),
		ApprovedBy:     strings.TrimSpace(in.ApprovedBy),
		Remarks:        strings.TrimSpace(in.Remarks),
	}
	var err error
	if out.ExecutionDate, err = domainqual.ParseDate(in.ExecutionDate); err != nil {
		return URSInput{}, err
	}
	if out.ApprovalDate, err = domainqual.ParseDate(in.ApprovalDate); err != nil {
		return URSInput{}, err
	}
	if out.ProtocolNumber == "" {
		out.ProtocolNumber = out.Number
	}
	return out, nil
}
