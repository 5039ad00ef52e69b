package qualification

import "qualtrack/internal/ports"

type EquipmentAttributes struct {
	Name                     string
	Type                     string
	Department               string
	Location                 string
	Manufacturer             string
	Model                    string
	SerialNumber             string
	Capacity                 string
	InstallationDate         string
	ChangeControlNumber      string
	RequalificationFrequency string
	ToleranceMonths          int
	NextDueDate              string
}

// URSInput marks URS as already Passed at registration when any field is set.
type URSInput struct {
	Number         string
	ProtocolNumber string
	ExecutionDate  string
	ApprovalDate   string
	ApprovedBy     string
	Remarks        string
}

func (u URSInput) provided() bool {
	return u.Number != "" || u.ExecutionDate != "" || u.ApprovalDate != "" || u.ApprovedBy != ""
}

type AttachmentFile struct {
	FileName   string
	MimeType   string
	DataBase64 string
}

type CreateEquipmentInput struct {
	EquipmentAttributes
	URS           URSInput
	URSAttachment *AttachmentFile
	Actor         string
}

// EquipmentPatch leaves nil fields untouched.
type EquipmentPatch struct {
	Name                     *string
	Type                     *string
	Department               *string
	Location                 *string
	Manufacturer             *string
	Model                    *string
	SerialNumber             *string
	Capacity                 *string
	InstallationDate         *string
	ChangeControlNumber      *string
	URSNumber                *string
	RequalificationFrequency *string
	ToleranceMonths          *int
	NextDueDate              *string
}

// PhaseEdit targets a phase row by PhaseID, or by Phase name when PhaseID is zero.
type PhaseEdit struct {
	PhaseID        uint64
	Phase          string
	Status         *string
	ProtocolNumber *string
	ExecutionDate  *string
	ApprovalDate   *string
	ApprovedBy     *string
	Remarks        *string
}

type UpdateEquipmentInput struct {
	EquipmentID uint64
	Patch       EquipmentPatch
	PhaseEdits  []PhaseEdit
	// Tag is the permanent tag to assign once DQ has passed; empty means generate one.
	Tag string
	// FallbackStatus only applies while every phase is still Pending.
	FallbackStatus string
	Actor          string
}

type BreakdownAttributes struct {
	Ref                    string
	ReportedDate           string
	ReportedBy             string
	Description            string
	RootCause              string
	Type                   string
	Severity               string
	MaintenanceStart       string
	MaintenanceEnd         string
	MaintenancePerformedBy string
	MaintenanceDetails     string
	ValidationImpact       string
	ImpactAssessment       string
}

type ReportBreakdownInput struct {
	EquipmentID uint64
	BreakdownAttributes
	RevalidationPhases []string
	Actor              string
}

type BreakdownPatch struct {
	Ref                    *string
	ReportedDate           *string
	ReportedBy             *string
	Description            *string
	RootCause              *string
	Type                   *string
	Severity               *string
	MaintenanceStart       *string
	MaintenanceEnd         *string
	MaintenancePerformedBy *string
	MaintenanceDetails     *string
	ValidationImpact       *string
	ImpactAssessment       *string
	Status                 *string
	ClosedDate             *string
	ClosedBy               *string
	ClosureRemarks         *string
}

type RevalidationEdit struct {
	RevalidationID uint64
	Status         *string
	ProtocolNumber *string
	ExecutionDate  *string
	ApprovalDate   *string
	ApprovedBy     *string
	Remarks        *string
}

type UpdateBreakdownInput struct {
	BreakdownID uint64
	// EquipmentID is optional; when set it must match the stored breakdown.
	EquipmentID       uint64
	Patch             BreakdownPatch
	RevalidationEdits []RevalidationEdit
	Actor             string
}

type BreakdownResult struct {
	BreakdownID     uint64
	EquipmentID     uint64
	EquipmentStatus string
}

type RequalificationAttributes struct {
	Ref             string
	Frequency       string
	ToleranceMonths int
	ScheduledDate   string
	ExecutionDate   string
	ApprovalDate    string
	ProtocolNumber  string
	ApprovedBy      string
	Remarks         string
}

type ScheduleRequalificationInput struct {
	EquipmentID uint64
	RequalificationAttributes
	Actor string
}

type RequalificationPatch struct {
	Ref             *string
	Frequency       *string
	ToleranceMonths *int
	ScheduledDate   *string
	ExecutionDate   *string
	ApprovalDate    *string
	ProtocolNumber  *string
	ApprovedBy      *string
	Status          *string
	Remarks         *string
}

type UpdateRequalificationInput struct {
	RequalificationID uint64
	Patch             RequalificationPatch
	Actor             string
}

type UploadAttachmentInput struct {
	Parent ports.AttachmentParent
	AttachmentFile
	Actor string
}

type PhaseView struct {
	PhaseID        uint64 `json:"phase_id"`
	Phase          string `json:"phase"`
	FullName       string `json:"full_name"`
	Status         string `json:"status"`
	Unlocked       bool   `json:"unlocked"`
	ProtocolNumber string `json:"protocol_number,omitempty"`
	ExecutionDate  string `json:"execution_date,omitempty"`
	ApprovalDate   string `json:"approval_date,omitempty"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}

type EquipmentView struct {
	EquipmentID              uint64      `json:"equipment_id"`
	Tag                      string      `json:"tag"`
	Name                     string      `json:"name"`
	Type                     string      `json:"type"`
	Department               string      `json:"department"`
	Location                 string      `json:"location"`
	Manufacturer             string      `json:"manufacturer,omitempty"`
	Model                    string      `json:"model,omitempty"`
	SerialNumber             string      `json:"serial_number,omitempty"`
	Capacity                 string      `json:"capacity,omitempty"`
	InstallationDate         string      `json:"installation_date,omitempty"`
	ChangeControlNumber      string      `json:"change_control_number,omitempty"`
	URSNumber                string      `json:"urs_number,omitempty"`
	RequalificationFrequency string      `json:"requalification_frequency"`
	ToleranceMonths          int         `json:"tolerance_months"`
	NextDueDate              string      `json:"next_due_date,omitempty"`
	Status                   string      `json:"status"`
	CreatedAt                string      `json:"created_at"`
	UpdatedAt                string      `json:"updated_at"`
	Phases                   []PhaseView `json:"phases"`
}

type EquipmentStatusView struct {
	EquipmentID             uint64      `json:"equipment_id"`
	Tag                     string      `json:"tag"`
	Name                    string      `json:"name"`
	Status                  string      `json:"status"`
	TagAssigned             bool        `json:"tag_assigned"`
	OpenBreakdowns          int64       `json:"open_breakdowns"`
	PendingRevalidation     int64       `json:"pending_revalidation"`
	NextDueDate             string      `json:"next_due_date,omitempty"`
	RequalificationStanding string      `json:"requalification_standing"`
	Phases                  []PhaseView `json:"phases"`
}

type RevalidationView struct {
	RevalidationID uint64 `json:"revalidation_id"`
	Phase          string `json:"phase"`
	Status         string `json:"status"`
	ProtocolNumber string `json:"protocol_number,omitempty"`
	ExecutionDate  string `json:"execution_date,omitempty"`
	ApprovalDate   string `json:"approval_date,omitempty"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}

type BreakdownView struct {
	BreakdownID            uint64             `json:"breakdown_id"`
	EquipmentID            uint64             `json:"equipment_id"`
	Ref                    string             `json:"ref"`
	ReportedDate           string             `json:"reported_date"`
	ReportedBy             string             `json:"reported_by,omitempty"`
	Description            string             `json:"description"`
	RootCause              string             `json:"root_cause,omitempty"`
	Type                   string             `json:"type"`
	Severity               string             `json:"severity"`
	MaintenanceStart       string             `json:"maintenance_start,omitempty"`
	MaintenanceEnd         string             `json:"maintenance_end,omitempty"`
	MaintenancePerformedBy string             `json:"maintenance_performed_by,omitempty"`
	MaintenanceDetails     string             `json:"maintenance_details,omitempty"`
	ValidationImpact       string             `json:"validation_impact"`
	ImpactAssessment       string             `json:"impact_assessment,omitempty"`
	Status                 string             `json:"status"`
	ClosedDate             string             `json:"closed_date,omitempty"`
	ClosedBy               string             `json:"closed_by,omitempty"`
	ClosureRemarks         string             `json:"closure_remarks,omitempty"`
	RevalidationPhases     []RevalidationView `json:"revalidation_phases"`
}

type RequalificationView struct {
	RequalificationID uint64 `json:"requalification_id"`
	EquipmentID       uint64 `json:"equipment_id"`
	Ref               string `json:"ref"`
	Frequency         string `json:"frequency"`
	ToleranceMonths   int    `json:"tolerance_months"`
	ScheduledDate     string `json:"scheduled_date,omitempty"`
	ExecutionDate     string `json:"execution_date,omitempty"`
	ApprovalDate      string `json:"approval_date,omitempty"`
	ProtocolNumber    string `json:"protocol_number,omitempty"`
	ApprovedBy        string `json:"approved_by,omitempty"`
	Status            string `json:"status"`
	Remarks           string `json:"remarks,omitempty"`
}

type AuditItem struct {
	AuditID   uint64 `json:"audit_id"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	ChangedBy string `json:"changed_by"`
	Changes   string `json:"changes,omitempty"`
	CreatedAt string `json:"created_at"`
}

type AttachmentItem struct {
	AttachmentID uint64                 `json:"attachment_id"`
	Parent       ports.AttachmentParent `json:"-"`
	ParentType   string                 `json:"parent_type"`
	ParentID     uint64                 `json:"parent_id"`
	FileName     string                 `json:"file_name"`
	MimeType     string                 `json:"mime_type"`
	Size         int64                  `json:"size"`
	UploadedBy   string                 `json:"uploaded_by"`
	CreatedAt    string                 `json:"created_at"`
}

type Summary struct {
	Total                int64 `json:"total"`
	NotStarted           int64 `json:"not_started"`
	InProgress           int64 `json:"in_progress"`
	Qualified            int64 `json:"qualified"`
	Failed               int64 `json:"failed"`
	UnderMaintenance     int64 `json:"under_maintenance"`
	RevalidationRequired int64 `json:"revalidation_required"`
	RequalificationDue   int64 `json:"requalification_due"`
	Overdue              int64 `json:"overdue"`
}

type SweepChange struct {
	EquipmentID uint64 `json:"equipment_id"`
	Tag         string `json:"tag"`
	From        string `json:"from"`
	To          string `json:"to"`
	DueDate     string `json:"due_date"`
}

type SweepResult struct {
	Checked int            `json:"checked"`
	Changed []SweepChange  `json:"changed"`
	Failed  []SweepFailure `json:"failed"`
}

type SweepFailure struct {
	EquipmentID uint64 `json:"equipment_id"`
	Error       string `json:"error"`
}
