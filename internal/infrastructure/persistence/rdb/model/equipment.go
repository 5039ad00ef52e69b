package model

type Equipment struct {
	EquipmentID              uint64 `gorm:"column:equipment_id;primaryKey;autoIncrement"`
	Tag                      string `gorm:"column:tag;size:128;not null;uniqueIndex"`
	Name                     string `gorm:"column:name;size:255;not null"`
	Type                     string `gorm:"column:type;size:128;not null"`
	Department               string `gorm:"column:department;size:128;not null"`
	Location                 string `gorm:"column:location;size:255;not null"`
	Manufacturer             string `gorm:"column:manufacturer;size:255;not null;default:''"`
	Model                    string `gorm:"column:model;size:255;not null;default:''"`
	SerialNumber             string `gorm:"column:serial_number;size:255;not null;default:''"`
	Capacity                 string `gorm:"column:capacity;size:255;not null;default:''"`
	InstallationDate         string `gorm:"column:installation_date;size:10;not null;default:''"`
	ChangeControlNumber      string `gorm:"column:change_control_number;size:128;not null;default:''"`
	URSNumber                string `gorm:"column:urs_number;size:128;not null;default:''"`
	RequalificationFrequency string `gorm:"column:requalification_frequency;size:32;not null"`
	ToleranceMonths          int    `gorm:"column:tolerance_months;not null;default:1"`
	NextDueDate              string `gorm:"column:next_due_date;size:10;not null;default:''"`
	Status                   string `gorm:"column:status;size:32;not null;index"`
	Version                  int64  `gorm:"column:version;not null;default:1"`
	CreatedAt                string `gorm:"column:created_at;size:40;not null"`
	UpdatedAt                string `gorm:"column:updated_at;size:40;not null"`
}

func (Equipment) TableName() string {
	return "equipment"
}

type TagSequence struct {
	Prefix    string `gorm:"column:prefix;size:32;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}

func (TagSequence) TableName() string {
	return "tag_sequences"
}
