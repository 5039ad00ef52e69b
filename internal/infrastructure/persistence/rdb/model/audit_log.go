package model

import "gorm.io/datatypes"

type AuditLog struct {
	AuditID     uint64         `gorm:"column:audit_id;primaryKey;autoIncrement"`
	EquipmentID uint64         `gorm:"column:equipment_id;not null;index"`
	Action      string         `gorm:"column:action;size:64;not null"`
	Details     string         `gorm:"column:details;type:text;not null"`
	ChangedBy   string         `gorm:"column:changed_by;size:255;not null"`
	Changes     datatypes.JSON `gorm:"column:changes"`
	CreatedAt   string         `gorm:"column:created_at;size:40;not null"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
