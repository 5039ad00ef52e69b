package qualification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

// ScheduleRequalification records a periodic requalification. It never changes the
// equipment status; the sweep does that.
func (s *Service) ScheduleRequalification(ctx context.Context, input ScheduleRequalificationInput) (RequalificationView, error) {
	if err := s.checkReady(ctx); err != nil {
		return RequalificationView{}, err
	}

	row, err := normalizeRequalificationAttributes(input.EquipmentID, input.RequalificationAttributes)
	if err != nil {
		return RequalificationView{}, err
	}
	now := s.nowUTCString()
	row.Status = string(domainqual.RequalificationScheduled)
	row.CreatedAt = now
	row.UpdatedAt = now

	var created ports.Requalification
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetEquipment(txCtx, input.EquipmentID); err != nil {
			return notFound(err, domainqual.ErrEquipmentNotFound, input.EquipmentID)
		}
		var err error
		if created, err = s.repo.CreateRequalification(txCtx, row); err != nil {
			return err
		}

		details := fmt.Sprintf("Requalification %s scheduled (%s, tolerance %d months)", created.Ref, created.Frequency, created.ToleranceMonths)
		if created.ScheduledDate != "" {
			details = joinDetails(details, "due "+created.ScheduledDate)
		}
		return appendAuditTx(txCtx, s.repo, created.EquipmentID, "Requalification Scheduled", details, input.Actor,
			&auditChanges{Requalification: &valueDelta{To: created.Status}}, now)
	}); err != nil {
		return RequalificationView{}, err
	}

	s.afterCommit(ctx, nil)
	return mapRequalificationView(created), nil
}

// UpdateRequalification patches the row. Passing it with an execution date moves the
// equipment's next due date one frequency period past that date.
func (s *Service) UpdateRequalification(ctx context.Context, input UpdateRequalificationInput) (RequalificationView, error) {
	if err := s.checkReady(ctx); err != nil {
		return RequalificationView{}, err
	}

	now := s.nowUTCString()
	var updated ports.Requalification
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		rq, err := s.repo.GetRequalification(txCtx, input.RequalificationID)
		if err != nil {
			return notFound(err, domainqual.ErrRequalificationNotFound, input.RequalificationID)
		}
		fromStatus := rq.Status
		fields, err := applyRequalificationPatch(&rq, input.Patch)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			rq.UpdatedAt = now
			if err := s.repo.UpdateRequalification(txCtx, rq); err != nil {
				return err
			}
		}

		details := []string{fmt.Sprintf("Requalification %s updated", rq.Ref)}
		if len(fields) > 0 {
			details = append(details, "fields: "+strings.Join(fields, ", "))
		}
		if rq.Status == string(domainqual.RequalificationPassed) && fromStatus != rq.Status && rq.ExecutionDate != "" {
			nextDue, err := s.advanceNextDueTx(txCtx, rq, now)
			if err != nil {
				return err
			}
			details = append(details, "next due "+nextDue)
		}

		var statusChange *valueDelta
		if fromStatus != rq.Status {
			statusChange = &valueDelta{From: fromStatus, To: rq.Status}
		}
		updated = rq
		return appendAuditTx(txCtx, s.repo, rq.EquipmentID, "Requalification Updated", joinDetails(details...), input.Actor,
			&auditChanges{Fields: fields, Requalification: statusChange}, now)
	}); err != nil {
		return RequalificationView{}, err
	}

	s.afterCommit(ctx, nil)
	return mapRequalificationView(updated), nil
}

// DeleteRequalification removes the row and its attachments. Unknown ids are a no-op.
func (s *Service) DeleteRequalification(ctx context.Context, requalificationID uint64, actor string) (bool, error) {
	if err := s.checkReady(ctx); err != nil {
		return false, err
	}

	now := s.nowUTCString()
	var deleted bool
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		rq, err := s.repo.GetRequalification(txCtx, requalificationID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}

		var blobKeys []string
		if deleted, blobKeys, err = s.repo.DeleteRequalification(txCtx, requalificationID); err != nil || !deleted {
			return err
		}
		if err := s.deleteBlobsTx(txCtx, blobKeys); err != nil {
			return err
		}
		return appendAuditTx(txCtx, s.repo, rq.EquipmentID, "Requalification Deleted",
			fmt.Sprintf("Requalification %s deleted", rq.Ref), actor,
			&auditChanges{Requalification: &valueDelta{From: rq.Status}}, now)
	}); err != nil {
		return false, err
	}

	if deleted {
		s.afterCommit(ctx, nil)
	}
	return deleted, nil
}

// ListRequalifications returns rows by scheduled date, earliest first.
func (s *Service) ListRequalifications(ctx context.Context, equipmentID uint64) ([]RequalificationView, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetEquipment(ctx, equipmentID); err != nil {
		return nil, notFound(err, domainqual.ErrEquipmentNotFound, equipmentID)
	}

	rows, err := s.repo.ListRequalifications(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	out := make([]RequalificationView, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRequalificationView(row))
	}
	return out, nil
}

func (s *Service) advanceNextDueTx(ctx context.Context, rq ports.Requalification, now string) (string, error) {
	executed, err := time.Parse(domainqual.DateLayout, rq.ExecutionDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domainqual.ErrInvalidDate, rq.ExecutionDate)
	}
	eq, err := s.repo.GetEquipment(ctx, rq.EquipmentID)
	if err != nil {
		return "", notFound(err, domainqual.ErrEquipmentNotFound, rq.EquipmentID)
	}

	eq.NextDueDate = domainqual.NextDueDate(executed, domainqual.Frequency(rq.Frequency)).Format(domainqual.DateLayout)
	eq.UpdatedAt = now
	if err := s.repo.UpdateEquipmentAttributes(ctx, eq); err != nil {
		return "", err
	}
	return eq.NextDueDate, nil
}

func normalizeRequalificationAttributes(equipmentID uint64, in RequalificationAttributes) (ports.Requalification, error) {
	out := ports.Requalification{
		EquipmentID:    equipmentID,
		Ref:            strings.TrimSpace(in.Ref),
		ProtocolNumber: strings.TrimSpace(in.ProtocolNumber),
		ApprovedBy:     strings.TrimSpace(in.ApprovedBy),
		Remarks:        strings.TrimSpace(in.Remarks),
	}
	if equipmentID == 0 || out.Ref == "" {
		return ports.Requalification{}, domainqual.ErrRequalificationFieldsRequired
	}

	frequency, err := domainqual.ParseFrequency(in.Frequency)
	if err != nil {
		return ports.Requalification{}, err
	}
	if out.ToleranceMonths, err = domainqual.ParseTolerance(in.ToleranceMonths); err != nil {
		return ports.Requalification{}, err
	}
	out.Frequency = string(frequency)
	if out.ScheduledDate, err = domainqual.ParseDate(in.ScheduledDate); err != nil {
		return ports.Requalification{}, err
	}
	if out.ExecutionDate, err = domainqual.ParseDate(in.ExecutionDate); err != nil {
		return ports.Requalification{}, err
	}
	if out.ApprovalDate, err = domainqual.ParseDate(in.ApprovalDate); err != nil {
		return ports.Requalification{}, err
	}
	return out, nil
}

func applyRequalificationPatch(rq *ports.Requalification, patch RequalificationPatch) ([]string, error) {
	if patch.Ref != nil && strings.TrimSpace(*patch.Ref) == "" {
		return nil, domainqual.ErrRequalificationFieldsRequired
	}

	var fields []string
	fields = appendIf(fields, patchString(&rq.Ref, patch.Ref), "ref")
	fields = appendIf(fields, patchString(&rq.ProtocolNumber, patch.ProtocolNumber), "protocol_number")
	fields = appendIf(fields, patchString(&rq.ApprovedBy, patch.ApprovedBy), "approved_by")
	fields = appendIf(fields, patchString(&rq.Remarks, patch.Remarks), "remarks")

	for _, item := range []struct {
		name string
		dst  *string
		src  *string
	}{
		{"scheduled_date", &rq.ScheduledDate, patch.ScheduledDate},
		{"execution_date", &rq.ExecutionDate, patch.ExecutionDate},
		{"approval_date", &rq.ApprovalDate, patch.ApprovalDate},
	} {
		normalized, err := parseOptionalDate(item.src)
		if err != nil {
			return nil, err
		}
		fields = appendIf(fields, patchString(item.dst, normalized), item.name)
	}

	if patch.Frequency != nil {
		frequency, err := domainqual.ParseFrequency(*patch.Frequency)
		if err != nil {
			return nil, err
		}
		next := string(frequency)
		fields = appendIf(fields, patchString(&rq.Frequency, &next), "frequency")
	}
	if patch.ToleranceMonths != nil {
		tolerance, err := domainqual.ParseTolerance(*patch.ToleranceMonths)
		if err != nil {
			return nil, err
		}
		if tolerance != rq.ToleranceMonths {
			rq.ToleranceMonths = tolerance
			fields = append(fields, "tolerance_months")
		}
	}
	if patch.Status != nil {
		status, err := domainqual.ParseRequalificationStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		next := string(status)
		fields = appendIf(fields, patchString(&rq.Status, &next), "status")
	}
	return fields, nil
}

func mapRequalificationView(row ports.Requalification) RequalificationView {
	return RequalificationView{
		RequalificationID: row.RequalificationID,
		EquipmentID:       row.EquipmentID,
		Ref:               row.Ref,
		Frequency:         row.Frequency,
		ToleranceMonths:   row.ToleranceMonths,
		ScheduledDate:     row.ScheduledDate,
		ExecutionDate:     row.ExecutionDate,
		ApprovalDate:      row.ApprovalDate,
		ProtocolNumber:    row.ProtocolNumber,
		ApprovedBy:        row.ApprovedBy,
		Status:            row.Status,
		Remarks:           row.Remarks,
	}
}
