package model

type Requalification struct {
	RequalificationID uint64 `gorm:"column:requalification_id;primaryKey;autoIncrement"`
	EquipmentID       uint64 `gorm:"column:equipment_id;not null;index"`
	Ref               string `gorm:"column:ref;size:128;not null"`
	Frequency         string `gorm:"column:frequency;size:32;not null"`
	ToleranceMonths   int    `gorm:"column:tolerance_months;not null"`
	ScheduledDate     string `gorm:"column:scheduled_date;size:10;not null;default:''"`
	ExecutionDate     string `gorm:"column:execution_date;size:10;not null;default:''"`
	ApprovalDate      string `gorm:"column:approval_date;size:10;not null;default:''"`
	ProtocolNumber    string `gorm:"column:protocol_number;size:128;not null;default:''"`
	ApprovedBy        string `gorm:"column:approved_by;size:255;not null;default:''"`
	Status            string `gorm:"column:status;size:32;not null"`
	Remarks           string `gorm:"column:remarks;type:text"`
	CreatedAt         string `gorm:"column:created_at;size:40;not null"`
	UpdatedAt         string `gorm:"column:updated_at;size:40;not null"`
}

func (Requalification) TableName() string {
	return "requalifications"
}
