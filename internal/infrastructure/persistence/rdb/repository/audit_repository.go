package repository

import (
	"context"

	"gorm.io/datatypes"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

// AppendAudit is the only write path into audit_log besides the equipment cascade.
func (r *QualificationRepository) AppendAudit(ctx context.Context, entry ports.AuditEntry) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.AuditLog{
		EquipmentID: entry.EquipmentID,
		Action:      entry.Action,
		Details:     entry.Details,
		ChangedBy:   entry.ChangedBy,
		CreatedAt:   entry.CreatedAt,
	}
	if len(entry.Changes) > 0 {
		row.Changes = datatypes.JSON(entry.Changes)
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Persistence(err, "insert audit entry")
	}
	return nil
}

// ListAudit returns the newest entries first.
func (r *QualificationRepository) ListAudit(ctx context.Context, equipmentID uint64, limit int) ([]ports.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Where("equipment_id = ?", equipmentID).Order("audit_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.AuditLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query audit log")
	}

	out := make([]ports.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.AuditEntry{
			AuditID:     row.AuditID,
			EquipmentID: row.EquipmentID,
			Action:      row.Action,
			Details:     row.Details,
			ChangedBy:   row.ChangedBy,
			Changes:     []byte(row.Changes),
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}
