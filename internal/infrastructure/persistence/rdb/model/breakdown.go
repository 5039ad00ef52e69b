package model

type Breakdown struct {
	BreakdownID            uint64 `gorm:"column:breakdown_id;primaryKey;autoIncrement"`
	EquipmentID            uint64 `gorm:"column:equipment_id;not null;index"`
	Ref                    string `gorm:"column:ref;size:128;not null"`
	ReportedDate           string `gorm:"column:reported_date;size:10;not null"`
	ReportedBy             string `gorm:"column:reported_by;size:255;not null;default:''"`
	Description            string `gorm:"column:description;type:text;not null"`
	RootCause              string `gorm:"column:root_cause;type:text"`
	Type                   string `gorm:"column:type;size:64;not null"`
	Severity               string `gorm:"column:severity;size:16;not null"`
	MaintenanceStart       string `gorm:"column:maintenance_start;size:10;not null;default:''"`
	MaintenanceEnd         string `gorm:"column:maintenance_end;size:10;not null;default:''"`
	MaintenancePerformedBy string `gorm:"column:maintenance_performed_by;size:255;not null;default:''"`
	MaintenanceDetails     string `gorm:"column:maintenance_details;type:text"`
	ValidationImpact       string `gorm:"column:validation_impact;size:64;not null"`
	ImpactAssessment       string `gorm:"column:impact_assessment;type:text"`
	Status                 string `gorm:"column:status;size:32;not null;index"`
	ClosedDate             string `gorm:"column:closed_date;size:10;not null;default:''"`
	ClosedBy               string `gorm:"column:closed_by;size:255;not null;default:''"`
	ClosureRemarks         string `gorm:"column:closure_remarks;type:text"`
	CreatedAt              string `gorm:"column:created_at;size:40;not null"`
	UpdatedAt              string `gorm:"column:updated_at;size:40;not null"`
}

func (Breakdown) TableName() string {
	return "breakdowns"
}

type RevalidationPhase struct {
	RevalidationID uint64 `gorm:"column:revalidation_id;primaryKey;autoIncrement"`
	BreakdownID    uint64 `gorm:"column:breakdown_id;not null;uniqueIndex:ux_revalidation_breakdown_phase,priority:1"`
	Phase          string `gorm:"column:phase;size:8;not null;uniqueIndex:ux_revalidation_breakdown_phase,priority:2"`
	ProtocolNumber string `gorm:"column:protocol_number;size:128;not null;default:''"`
	ExecutionDate  string `gorm:"column:execution_date;size:10;not null;default:''"`
	ApprovalDate   string `gorm:"column:approval_date;size:10;not null;default:''"`
	ApprovedBy     string `gorm:"column:approved_by;size:255;not null;default:''"`
	Status         string `gorm:"column:status;size:32;not null"`
	Remarks        string `gorm:"column:remarks;type:text"`
	UpdatedAt      string `gorm:"column:updated_at;size:40;not null"`
}

func (RevalidationPhase) TableName() string {
	return "revalidation_phases"
}
