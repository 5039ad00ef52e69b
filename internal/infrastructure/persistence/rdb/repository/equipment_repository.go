package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func (r *QualificationRepository) CreateEquipment(ctx context.Context, equipment ports.Equipment) (ports.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Equipment{}, err
	}

	row := toEquipmentRow(equipment)
	row.EquipmentID = 0
	if row.Version == 0 {
		row.Version = 1
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Equipment{}, errs.Persistence(err, "insert equipment")
	}
	return mapEquipment(row), nil
}

func (r *QualificationRepository) GetEquipment(ctx context.Context, equipmentID uint64) (ports.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Equipment{}, err
	}

	var row model.Equipment
	if err := db.Where("equipment_id = ?", equipmentID).Take(&row).Error; err != nil {
		return ports.Equipment{}, takeErr(err, "query equipment")
	}
	return mapEquipment(row), nil
}

func (r *QualificationRepository) ListEquipment(ctx context.Context, statuses []string) ([]ports.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Equipment{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var rows []model.Equipment
	if err := query.Order("equipment_id desc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query equipment list")
	}

	items := make([]ports.Equipment, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEquipment(row))
	}
	return items, nil
}

func (r *QualificationRepository) UpdateEquipmentAttributes(ctx context.Context, equipment ports.Equipment) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Equipment{}).
		Where("equipment_id = ?", equipment.EquipmentID).
		Updates(map[string]any{
			"name":                      equipment.Name,
			"type":                      equipment.Type,
			"department":                equipment.Department,
			"location":                  equipment.Location,
			"manufacturer":              equipment.Manufacturer,
			"model":                     equipment.Model,
			"serial_number":             equipment.SerialNumber,
			"capacity":                  equipment.Capacity,
			"installation_date":         equipment.InstallationDate,
			"change_control_number":     equipment.ChangeControlNumber,
			"urs_number":                equipment.URSNumber,
			"requalification_frequency": equipment.RequalificationFrequency,
			"tolerance_months":          equipment.ToleranceMonths,
			"next_due_date":             equipment.NextDueDate,
			"updated_at":                equipment.UpdatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update equipment attributes")
	}
	return nil
}

func (r *QualificationRepository) SetEquipmentStatus(ctx context.Context, equipmentID uint64, status string, expectedVersion int64, updatedAt string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Model(&model.Equipment{}).
		Where("equipment_id = ? AND version = ?", equipmentID, expectedVersion).
		Updates(map[string]any{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return 0, errs.Persistence(result.Error, "update equipment status")
	}
	if result.RowsAffected == 0 {
		return 0, errs.Wrapf(ports.ErrStaleWrite, "equipment %d version %d", equipmentID, expectedVersion)
	}
	return expectedVersion + 1, nil
}

func (r *QualificationRepository) SetEquipmentTag(ctx context.Context, equipmentID uint64, tag string, updatedAt string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Equipment{}).
		Where("equipment_id = ?", equipmentID).
		Updates(map[string]any{
			"tag":        tag,
			"updated_at": updatedAt,
		}).Error; err != nil {
		return errs.Persistence(err, "update equipment tag")
	}
	return nil
}

func (r *QualificationRepository) EquipmentTagTaken(ctx context.Context, tag string, excludeID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.Equipment{}).
		Where("tag = ? AND equipment_id <> ?", tag, excludeID).
		Count(&count).Error; err != nil {
		return false, errs.Persistence(err, "count equipment tag")
	}
	return count > 0, nil
}

// NextTagSequence advances the per-prefix counter and returns the new value.
func (r *QualificationRepository) NextTagSequence(ctx context.Context, prefix string) (int64, error) {
	var next int64
	err := r.inTx(ctx, func(db *gorm.DB) error {
		row := model.TagSequence{Prefix: prefix, LastValue: 1}
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "prefix"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_value": gorm.Expr("tag_sequences.last_value + 1"),
			}),
		}).Create(&row).Error; err != nil {
			return errs.Persistence(err, "advance tag sequence")
		}

		var current model.TagSequence
		if err := db.Where("prefix = ?", prefix).Take(&current).Error; err != nil {
			return takeErr(err, "query tag sequence")
		}
		next = current.LastValue
		return nil
	})
	return next, err
}

func (r *QualificationRepository) CountEquipmentByStatus(ctx context.Context) (map[string]int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&model.Equipment{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "count equipment by status")
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// DeleteEquipment removes children before the parent so no orphan survives a partial failure.
func (r *QualificationRepository) DeleteEquipment(ctx context.Context, equipmentID uint64) (bool, []string, error) {
	var (
		deleted  bool
		blobKeys []string
	)
	err := r.inTx(ctx, func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.Equipment{}).Where("equipment_id = ?", equipmentID).Count(&count).Error; err != nil {
			return errs.Persistence(err, "count equipment")
		}
		if count == 0 {
			return nil
		}

		var phaseIDs, requalIDs, breakdownIDs, revalIDs []uint64
		if err := db.Model(&model.QualificationPhase{}).Where("equipment_id = ?", equipmentID).Pluck("phase_id", &phaseIDs).Error; err != nil {
			return errs.Persistence(err, "query phase ids")
		}
		if err := db.Model(&model.Requalification{}).Where("equipment_id = ?", equipmentID).Pluck("requalification_id", &requalIDs).Error; err != nil {
			return errs.Persistence(err, "query requalification ids")
		}
		if err := db.Model(&model.Breakdown{}).Where("equipment_id = ?", equipmentID).Pluck("breakdown_id", &breakdownIDs).Error; err != nil {
			return errs.Persistence(err, "query breakdown ids")
		}
		if len(breakdownIDs) > 0 {
			if err := db.Model(&model.RevalidationPhase{}).Where("breakdown_id IN ?", breakdownIDs).Pluck("revalidation_id", &revalIDs).Error; err != nil {
				return errs.Persistence(err, "query revalidation ids")
			}
		}

		for _, group := range []struct {
			column string
			ids    []uint64
		}{
			{"qualification_phase_id", phaseIDs},
			{"requalification_id", requalIDs},
			{"revalidation_id", revalIDs},
		} {
			keys, err := deleteAttachmentsBy(db, group.column, group.ids)
			if err != nil {
				return err
			}
			blobKeys = append(blobKeys, keys...)
		}

		if len(breakdownIDs) > 0 {
			if err := db.Where("breakdown_id IN ?", breakdownIDs).Delete(&model.RevalidationPhase{}).Error; err != nil {
				return errs.Persistence(err, "delete revalidation phases")
			}
		}
		steps := []struct {
			what  string
			table any
		}{
			{"breakdowns", &model.Breakdown{}},
			{"requalifications", &model.Requalification{}},
			{"qualification phases", &model.QualificationPhase{}},
			{"audit log", &model.AuditLog{}},
			{"equipment", &model.Equipment{}},
		}
		for _, step := range steps {
			if err := db.Where("equipment_id = ?", equipmentID).Delete(step.table).Error; err != nil {
				return errs.Persistence(err, "delete "+step.what)
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, blobKeys, nil
}

func toEquipmentRow(e ports.Equipment) model.Equipment {
	return model.Equipment{
		EquipmentID:              e.EquipmentID,
		Tag:                      e.Tag,
		Name:                     e.Name,
		Type:                     e.Type,
		Department:               e.Department,
		Location:                 e.Location,
		Manufacturer:             e.Manufacturer,
		Model:                    e.Model,
		SerialNumber:             e.SerialNumber,
		Capacity:                 e.Capacity,
		InstallationDate:         e.InstallationDate,
		ChangeControlNumber:      e.ChangeControlNumber,
		URSNumber:                e.URSNumber,
		RequalificationFrequency: e.RequalificationFrequency,
		ToleranceMonths:          e.ToleranceMonths,
		NextDueDate:              e.NextDueDate,
		Status:                   e.Status,
		Version:                  e.Version,
		CreatedAt:                e.CreatedAt,
		UpdatedAt:                e.UpdatedAt,
	}
}

func mapEquipment(row model.Equipment) ports.Equipment {
	return ports.Equipment{
		EquipmentID:              row.EquipmentID,
		Tag:                      row.Tag,
		Name:                     row.Name,
		Type:                     row.Type,
		Department:               row.Department,
		Location:                 row.Location,
		Manufacturer:             row.Manufacturer,
		Model:                    row.Model,
		SerialNumber:             row.SerialNumber,
		Capacity:                 row.Capacity,
		InstallationDate:         row.InstallationDate,
		ChangeControlNumber:      row.ChangeControlNumber,
		URSNumber:                row.URSNumber,
		RequalificationFrequency: row.RequalificationFrequency,
		ToleranceMonths:          row.ToleranceMonths,
		NextDueDate:              row.NextDueDate,
		Status:                   row.Status,
		Version:                  row.Version,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
}
