package repository

import (
	"context"

	"gorm.io/gorm"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

const revalidationPhaseOrder = "CASE phase WHEN 'IQ' THEN 1 WHEN 'OQ' THEN 2 WHEN 'PQ' THEN 3 ELSE 4 END"

func (r *QualificationRepository) CreateBreakdown(ctx context.Context, breakdown ports.Breakdown) (ports.Breakdown, error) {
	var created ports.Breakdown
	err := r.inTx(ctx, func(db *gorm.DB) error {
		row := toBreakdownRow(breakdown)
		row.BreakdownID = 0
		if err := db.Create(&row).Error; err != nil {
			return errs.Persistence(err, "insert breakdown")
		}
		created = mapBreakdown(row)

		if len(breakdown.RevalidationPhases) == 0 {
			return nil
		}
		phaseRows := make([]model.RevalidationPhase, 0, len(breakdown.RevalidationPhases))
		for _, p := range breakdown.RevalidationPhases {
			phaseRow := toRevalidationRow(p)
			phaseRow.RevalidationID = 0
			phaseRow.BreakdownID = row.BreakdownID
			phaseRows = append(phaseRows, phaseRow)
		}
		if err := db.Create(&phaseRows).Error; err != nil {
			return errs.Persistence(err, "insert revalidation phases")
		}
		for _, phaseRow := range phaseRows {
			created.RevalidationPhases = append(created.RevalidationPhases, mapRevalidation(phaseRow))
		}
		return nil
	})
	if err != nil {
		return ports.Breakdown{}, err
	}
	return created, nil
}

func (r *QualificationRepository) GetBreakdown(ctx context.Context, breakdownID uint64) (ports.Breakdown, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Breakdown{}, err
	}

	var row model.Breakdown
	if err := db.Where("breakdown_id = ?", breakdownID).Take(&row).Error; err != nil {
		return ports.Breakdown{}, takeErr(err, "query breakdown")
	}

	phases, err := listRevalidationPhases(db, []uint64{row.BreakdownID})
	if err != nil {
		return ports.Breakdown{}, err
	}
	out := mapBreakdown(row)
	out.RevalidationPhases = phases[row.BreakdownID]
	return out, nil
}

// ListBreakdowns returns the newest reported breakdown first.
func (r *QualificationRepository) ListBreakdowns(ctx context.Context, equipmentID uint64) ([]ports.Breakdown, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Breakdown
	if err := db.Where("equipment_id = ?", equipmentID).
		Order("reported_date desc, breakdown_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query breakdowns")
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BreakdownID)
	}
	phases, err := listRevalidationPhases(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ports.Breakdown, 0, len(rows))
	for _, row := range rows {
		item := mapBreakdown(row)
		item.RevalidationPhases = phases[row.BreakdownID]
		out = append(out, item)
	}
	return out, nil
}

func (r *QualificationRepository) UpdateBreakdown(ctx context.Context, breakdown ports.Breakdown) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Breakdown{}).
		Where("breakdown_id = ?", breakdown.BreakdownID).
		Updates(map[string]any{
			"ref":                      breakdown.Ref,
			"reported_date":            breakdown.ReportedDate,
			"reported_by":              breakdown.ReportedBy,
			"description":              breakdown.Description,
			"root_cause":               breakdown.RootCause,
			"type":                     breakdown.Type,
			"severity":                 breakdown.Severity,
			"maintenance_start":        breakdown.MaintenanceStart,
			"maintenance_end":          breakdown.MaintenanceEnd,
			"maintenance_performed_by": breakdown.MaintenancePerformedBy,
			"maintenance_details":      breakdown.MaintenanceDetails,
			"validation_impact":        breakdown.ValidationImpact,
			"impact_assessment":        breakdown.ImpactAssessment,
			"status":                   breakdown.Status,
			"closed_date":              breakdown.ClosedDate,
			"closed_by":                breakdown.ClosedBy,
			"closure_remarks":          breakdown.ClosureRemarks,
			"updated_at":               breakdown.UpdatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update breakdown")
	}
	return nil
}

func (r *QualificationRepository) GetRevalidationPhase(ctx context.Context, revalidationID uint64) (ports.RevalidationPhase, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.RevalidationPhase{}, err
	}

	var row model.RevalidationPhase
	if err := db.Where("revalidation_id = ?", revalidationID).Take(&row).Error; err != nil {
		return ports.RevalidationPhase{}, takeErr(err, "query revalidation phase")
	}
	return mapRevalidation(row), nil
}

func (r *QualificationRepository) UpdateRevalidationPhase(ctx context.Context, phase ports.RevalidationPhase) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.RevalidationPhase{}).
		Where("revalidation_id = ?", phase.RevalidationID).
		Updates(map[string]any{
			"protocol_number": phase.ProtocolNumber,
			"execution_date":  phase.ExecutionDate,
			"approval_date":   phase.ApprovalDate,
			"approved_by":     phase.ApprovedBy,
			"status":          phase.Status,
			"remarks":         phase.Remarks,
			"updated_at":      phase.UpdatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update revalidation phase")
	}
	return nil
}

// CountOpenBreakdowns counts breakdowns that are neither Closed nor Cancelled.
func (r *QualificationRepository) CountOpenBreakdowns(ctx context.Context, equipmentID uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Breakdown{}).
		Where("equipment_id = ? AND status NOT IN ?", equipmentID, []string{
			string(domainqual.BreakdownClosed),
			string(domainqual.BreakdownCancelled),
		}).
		Count(&count).Error; err != nil {
		return 0, errs.Persistence(err, "count open breakdowns")
	}
	return count, nil
}

// CountPendingRevalidation counts revalidation phases of Closed breakdowns that have not Passed.
func (r *QualificationRepository) CountPendingRevalidation(ctx context.Context, equipmentID uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.RevalidationPhase{}).
		Joins("JOIN breakdowns ON breakdowns.breakdown_id = revalidation_phases.breakdown_id").
		Where("breakdowns.equipment_id = ? AND breakdowns.status = ? AND revalidation_phases.status <> ?",
			equipmentID, string(domainqual.BreakdownClosed), string(domainqual.RevalidationPassed)).
		Count(&count).Error; err != nil {
		return 0, errs.Persistence(err, "count pending revalidation")
	}
	return count, nil
}

func (r *QualificationRepository) DeleteBreakdown(ctx context.Context, breakdownID uint64) (bool, []string, error) {
	var (
		deleted  bool
		blobKeys []string
	)
	err := r.inTx(ctx, func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.Breakdown{}).Where("breakdown_id = ?", breakdownID).Count(&count).Error; err != nil {
			return errs.Persistence(err, "count breakdown")
		}
		if count == 0 {
			return nil
		}

		var revalIDs []uint64
		if err := db.Model(&model.RevalidationPhase{}).Where("breakdown_id = ?", breakdownID).Pluck("revalidation_id", &revalIDs).Error; err != nil {
			return errs.Persistence(err, "query revalidation ids")
		}
		keys, err := deleteAttachmentsBy(db, "revalidation_id", revalIDs)
		if err != nil {
			return err
		}
		blobKeys = keys

		if err := db.Where("breakdown_id = ?", breakdownID).Delete(&model.RevalidationPhase{}).Error; err != nil {
			return errs.Persistence(err, "delete revalidation phases")
		}
		if err := db.Where("breakdown_id = ?", breakdownID).Delete(&model.Breakdown{}).Error; err != nil {
			return errs.Persistence(err, "delete breakdown")
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, blobKeys, nil
}

func listRevalidationPhases(db *gorm.DB, breakdownIDs []uint64) (map[uint64][]ports.RevalidationPhase, error) {
	out := make(map[uint64][]ports.RevalidationPhase, len(breakdownIDs))
	if len(breakdownIDs) == 0 {
		return out, nil
	}

	var rows []model.RevalidationPhase
	if err := db.Where("breakdown_id IN ?", breakdownIDs).
		Order("breakdown_id asc").
		Order(revalidationPhaseOrder).
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query revalidation phases")
	}
	for _, row := range rows {
		out[row.BreakdownID] = append(out[row.BreakdownID], mapRevalidation(row))
	}
	return out, nil
}

func toBreakdownRow(b ports.Breakdown) model.Breakdown {
	return model.Breakdown{
		BreakdownID:            b.BreakdownID,
		EquipmentID:            b.EquipmentID,
		Ref:                    b.Ref,
		ReportedDate:           b.ReportedDate,
		ReportedBy:             b.ReportedBy,
		Description:            b.Description,
		RootCause:              b.RootCause,
		Type:                   b.Type,
		Severity:               b.Severity,
		MaintenanceStart:       b.MaintenanceStart,
		MaintenanceEnd:         b.MaintenanceEnd,
		MaintenancePerformedBy: b.MaintenancePerformedBy,
		MaintenanceDetails:     b.MaintenanceDetails,
		ValidationImpact:       b.ValidationImpact,
		ImpactAssessment:       b.ImpactAssessment,
		Status:                 b.Status,
		ClosedDate:             b.ClosedDate,
		ClosedBy:               b.ClosedBy,
		ClosureRemarks:         b.ClosureRemarks,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

func mapBreakdown(row model.Breakdown) ports.Breakdown {
	return ports.Breakdown{
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
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func toRevalidationRow(p ports.RevalidationPhase) model.RevalidationPhase {
	return model.RevalidationPhase{
		RevalidationID: p.RevalidationID,
		BreakdownID:    p.BreakdownID,
		Phase:          p.Phase,
		ProtocolNumber: p.ProtocolNumber,
		ExecutionDate:  p.ExecutionDate,
		ApprovalDate:   p.ApprovalDate,
		ApprovedBy:     p.ApprovedBy,
		Status:         p.Status,
		Remarks:        p.Remarks,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapRevalidation(row model.RevalidationPhase) ports.RevalidationPhase {
	return ports.RevalidationPhase{
		RevalidationID: row.RevalidationID,
		BreakdownID:    row.BreakdownID,
		Phase:          row.Phase,
		ProtocolNumber: row.ProtocolNumber,
		ExecutionDate:  row.ExecutionDate,
		ApprovalDate:   row.ApprovalDate,
		ApprovedBy:     row.ApprovedBy,
		Status:         row.Status,
		Remarks:        row.Remarks,
		UpdatedAt:      row.UpdatedAt,
	}
}
