package model

type QualificationPhase struct {
	PhaseID        uint64 `gorm:"column:phase_id;primaryKey;autoIncrement"`
	EquipmentID    uint64 `gorm:"column:equipment_id;not null;uniqueIndex:ux_phase_equipment_phase,priority:1"`
	Phase          string `gorm:"column:phase;size:8;not null;uniqueIndex:ux_phase_equipment_phase,priority:2"`
	Seq            int    `gorm:"column:seq;not null"`
	ProtocolNumber string `gorm:"column:protocol_number;size:128;not null;default:''"`
	ExecutionDate  string `gorm:"column:execution_date;size:10;not null;default:''"`
	ApprovalDate   string `gorm:"column:approval_date;size:10;not null;default:''"`
	ApprovedBy     string `gorm:"column:approved_by;size:255;not null;default:''"`
	Status         string `gorm:"column:status;size:32;not null"`
	Remarks        string `gorm:"column:remarks;type:text"`
	UpdatedAt      string `gorm:"column:updated_at;size:40;not null"`
}

func (QualificationPhase) TableName() string {
	return "qualification_phases"
}
