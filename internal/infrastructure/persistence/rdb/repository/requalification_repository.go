package repository

import (
	"context"

	"gorm.io/gorm"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func (r *QualificationRepository) CreateRequalification(ctx context.Context, requalification ports.Requalification) (ports.Requalification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Requalification{}, err
	}

	row := toRequalificationRow(requalification)
	row.RequalificationID = 0
	if err := db.Create(&row).Error; err != nil {
		return ports.Requalification{}, errs.Persistence(err, "insert requalification")
	}
	return mapRequalification(row), nil
}

func (r *QualificationRepository) GetRequalification(ctx context.Context, requalificationID uint64) (ports.Requalification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Requalification{}, err
	}

	var row model.Requalification
	if err := db.Where("requalification_id = ?", requalificationID).Take(&row).Error; err != nil {
		return ports.Requalification{}, takeErr(err, "query requalification")
	}
	return mapRequalification(row), nil
}

func (r *QualificationRepository) ListRequalifications(ctx context.Context, equipmentID uint64) ([]ports.Requalification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Requalification
	if err := db.Where("equipment_id = ?", equipmentID).
		Order("scheduled_date asc, requalification_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query requalifications")
	}

	out := make([]ports.Requalification, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRequalification(row))
	}
	return out, nil
}

func (r *QualificationRepository) NextOpenRequalification(ctx context.Context, equipmentID uint64) (ports.Requalification, bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Requalification{}, false, err
	}

	var row model.Requalification
	result := db.Where("equipment_id = ? AND status IN ? AND scheduled_date <> ''", equipmentID, []string{
		string(domainqual.RequalificationScheduled),
		string(domainqual.RequalificationInProgress),
	}).
		Order("scheduled_date asc, requalification_id asc").
		Limit(1).
		Find(&row)
	if result.Error != nil {
		return ports.Requalification{}, false, errs.Persistence(result.Error, "query next requalification")
	}
	if result.RowsAffected == 0 {
		return ports.Requalification{}, false, nil
	}
	return mapRequalification(row), true, nil
}

func (r *QualificationRepository) UpdateRequalification(ctx context.Context, requalification ports.Requalification) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Requalification{}).
		Where("requalification_id = ?", requalification.RequalificationID).
		Updates(map[string]any{
			"ref":              requalification.Ref,
			"frequency":        requalification.Frequency,
			"tolerance_months": requalification.ToleranceMonths,
			"scheduled_date":   requalification.ScheduledDate,
			"execution_date":   requalification.ExecutionDate,
			"approval_date":    requalification.ApprovalDate,
			"protocol_number":  requalification.ProtocolNumber,
			"approved_by":      requalification.ApprovedBy,
			"status":           requalification.Status,
			"remarks":          requalification.Remarks,
			"updated_at":       requalification.UpdatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update requalification")
	}
	return nil
}

func (r *QualificationRepository) DeleteRequalification(ctx context.Context, requalificationID uint64) (bool, []string, error) {
	var (
		deleted  bool
		blobKeys []string
	)
	err := r.inTx(ctx, func(db *gorm.DB) error {
		keys, err := deleteAttachmentsBy(db, "requalification_id", []uint64{requalificationID})
		if err != nil {
			return err
		}
		blobKeys = keys

		result := db.Where("requalification_id = ?", requalificationID).Delete(&model.Requalification{})
		if result.Error != nil {
			return errs.Persistence(result.Error, "delete requalification")
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, blobKeys, nil
}

func toRequalificationRow(q ports.Requalification) model.Requalification {
	return model.Requalification{
		RequalificationID: q.RequalificationID,
		EquipmentID:       q.EquipmentID,
		Ref:               q.Ref,
		Frequency:         q.Frequency,
		ToleranceMonths:   q.ToleranceMonths,
		ScheduledDate:     q.ScheduledDate,
		ExecutionDate:     q.ExecutionDate,
		ApprovalDate:      q.ApprovalDate,
		ProtocolNumber:    q.ProtocolNumber,
		ApprovedBy:        q.ApprovedBy,
		Status:            q.Status,
		Remarks:           q.Remarks,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

func mapRequalification(row model.Requalification) ports.Requalification {
	return ports.Requalification{
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
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
