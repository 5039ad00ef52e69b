package repository

import (
	"context"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func (r *QualificationRepository) CreatePhases(ctx context.Context, phases []ports.QualificationPhase) ([]ports.QualificationPhase, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]model.QualificationPhase, 0, len(phases))
	for _, p := range phases {
		row := toPhaseRow(p)
		row.PhaseID = 0
		rows = append(rows, row)
	}
	if err := db.Create(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "insert qualification phases")
	}

	out := make([]ports.QualificationPhase, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPhase(row))
	}
	return out, nil
}

func (r *QualificationRepository) GetPhase(ctx context.Context, phaseID uint64) (ports.QualificationPhase, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.QualificationPhase{}, err
	}

	var row model.QualificationPhase
	if err := db.Where("phase_id = ?", phaseID).Take(&row).Error; err != nil {
		return ports.QualificationPhase{}, takeErr(err, "query qualification phase")
	}
	return mapPhase(row), nil
}

// ListPhases returns the rows in pipeline order.
func (r *QualificationRepository) ListPhases(ctx context.Context, equipmentID uint64) ([]ports.QualificationPhase, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.QualificationPhase
	if err := db.Where("equipment_id = ?", equipmentID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query qualification phases")
	}

	out := make([]ports.QualificationPhase, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPhase(row))
	}
	return out, nil
}

func (r *QualificationRepository) ListPhasesByEquipment(ctx context.Context, equipmentIDs []uint64) (map[uint64][]ports.QualificationPhase, error) {
	out := make(map[uint64][]ports.QualificationPhase, len(equipmentIDs))
	if len(equipmentIDs) == 0 {
		return out, nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.QualificationPhase
	if err := db.Where("equipment_id IN ?", equipmentIDs).Order("equipment_id asc, seq asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query qualification phases by equipment")
	}
	for _, row := range rows {
		out[row.EquipmentID] = append(out[row.EquipmentID], mapPhase(row))
	}
	return out, nil
}

func (r *QualificationRepository) UpdatePhase(ctx context.Context, phase ports.QualificationPhase) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.QualificationPhase{}).
		Where("phase_id = ?", phase.PhaseID).
		Updates(map[string]any{
			"protocol_number": phase.ProtocolNumber,
			"execution_date":  phase.ExecutionDate,
			"approval_date":   phase.ApprovalDate,
			"approved_by":     phase.ApprovedBy,
			"status":          phase.Status,
			"remarks":         phase.Remarks,
			"updated_at":      phase.UpdatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update qualification phase")
	}
	return nil
}

func toPhaseRow(p ports.QualificationPhase) model.QualificationPhase {
	return model.QualificationPhase{
		PhaseID:        p.PhaseID,
		EquipmentID:    p.EquipmentID,
		Phase:          p.Phase,
		Seq:            p.Seq,
		ProtocolNumber: p.ProtocolNumber,
		ExecutionDate:  p.ExecutionDate,
		ApprovalDate:   p.ApprovalDate,
		ApprovedBy:     p.ApprovedBy,
		Status:         p.Status,
		Remarks:        p.Remarks,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapPhase(row model.QualificationPhase) ports.QualificationPhase {
	return ports.QualificationPhase{
		PhaseID:        row.PhaseID,
		EquipmentID:    row.EquipmentID,
		Phase:          row.Phase,
		Seq:            row.Seq,
		ProtocolNumber: row.ProtocolNumber,
		ExecutionDate:  row.ExecutionDate,
		ApprovalDate:   row.ApprovalDate,
		ApprovedBy:     row.ApprovedBy,
		Status:         row.Status,
		Remarks:        row.Remarks,
		UpdatedAt:      row.UpdatedAt,
	}
}
