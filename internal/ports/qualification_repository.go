package ports

import (
	"context"

	"qualtrack/internal/errs"
)

var (
	ErrNotFound   = errs.E(errs.KindNotFound, "record not found")
	ErrStaleWrite = errs.E(errs.KindConcurrency, "row version changed")
)

type Equipment struct {
	EquipmentID              uint64
	Tag                      string
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
	URSNumber                string
	RequalificationFrequency string
	ToleranceMonths          int
	NextDueDate              string
	Status                   string
	Version                  int64
	CreatedAt                string
	UpdatedAt                string
}

type QualificationPhase struct {
	PhaseID        uint64
	EquipmentID    uint64
	Phase          string
	Seq            int
	ProtocolNumber string
	ExecutionDate  string
	ApprovalDate   string
	ApprovedBy     string
	Status         string
	Remarks        string
	UpdatedAt      string
}

type Breakdown struct {
	BreakdownID            uint64
	EquipmentID            uint64
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
	Status                 string
	ClosedDate             string
	ClosedBy               string
	ClosureRemarks         string
	CreatedAt              string
	UpdatedAt              string
	RevalidationPhases     []RevalidationPhase
}

type RevalidationPhase struct {
	RevalidationID uint64
	BreakdownID    uint64
	Phase          string
	ProtocolNumber string
	ExecutionDate  string
	ApprovalDate   string
	ApprovedBy     string
	Status         string
	Remarks        string
	UpdatedAt      string
}

type Requalification struct {
	RequalificationID uint64
	EquipmentID       uint64
	Ref               string
	Frequency         string
	ToleranceMonths   int
	ScheduledDate     string
	ExecutionDate     string
	ApprovalDate      string
	ProtocolNumber    string
	ApprovedBy        string
	Status            string
	Remarks           string
	CreatedAt         string
	UpdatedAt         string
}

// AttachmentParent names exactly one owner row. Zero fields are unset.
type AttachmentParent struct {
	QualificationPhaseID uint64
	RequalificationID    uint64
	RevalidationID       uint64
}

type Attachment struct {
	AttachmentID uint64
	Parent       AttachmentParent
	FileName     string
	MimeType     string
	Size         int64
	BlobKey      string
	UploadedBy   string
	CreatedAt    string
}

type AuditEntry struct {
	AuditID     uint64
	EquipmentID uint64
	Action      string
	Details     string
	ChangedBy   string
	Changes     []byte
	CreatedAt   string
}

type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, equipment Equipment) (Equipment, error)
	GetEquipment(ctx context.Context, equipmentID uint64) (Equipment, error)
	ListEquipment(ctx context.Context, statuses []string) ([]Equipment, error)
	UpdateEquipmentAttributes(ctx context.Context, equipment Equipment) error
	// SetEquipmentStatus writes status when the stored version still equals expectedVersion
	// and returns the new version, or ErrStaleWrite.
	SetEquipmentStatus(ctx context.Context, equipmentID uint64, status string, expectedVersion int64, updatedAt string) (int64, error)
	SetEquipmentTag(ctx context.Context, equipmentID uint64, tag string, updatedAt string) error
	EquipmentTagTaken(ctx context.Context, tag string, excludeID uint64) (bool, error)
	NextTagSequence(ctx context.Context, prefix string) (int64, error)
	CountEquipmentByStatus(ctx context.Context) (map[string]int64, error)
	// DeleteEquipment removes the equipment and every child row, returning the blob keys
	// of removed attachments. Missing ids report false.
	DeleteEquipment(ctx context.Context, equipmentID uint64) (bool, []string, error)
}

type PhaseRepository interface {
	CreatePhases(ctx context.Context, phases []QualificationPhase) ([]QualificationPhase, error)
	GetPhase(ctx context.Context, phaseID uint64) (QualificationPhase, error)
	ListPhases(ctx context.Context, equipmentID uint64) ([]QualificationPhase, error)
	ListPhasesByEquipment(ctx context.Context, equipmentIDs []uint64) (map[uint64][]QualificationPhase, error)
	UpdatePhase(ctx context.Context, phase QualificationPhase) error
}

type BreakdownRepository interface {
	CreateBreakdown(ctx context.Context, breakdown Breakdown) (Breakdown, error)
	GetBreakdown(ctx context.Context, breakdownID uint64) (Breakdown, error)
	ListBreakdowns(ctx context.Context, equipmentID uint64) ([]Breakdown, error)
	UpdateBreakdown(ctx context.Context, breakdown Breakdown) error
	GetRevalidationPhase(ctx context.Context, revalidationID uint64) (RevalidationPhase, error)
	UpdateRevalidationPhase(ctx context.Context, phase RevalidationPhase) error
	CountOpenBreakdowns(ctx context.Context, equipmentID uint64) (int64, error)
	CountPendingRevalidation(ctx context.Context, equipmentID uint64) (int64, error)
	DeleteBreakdown(ctx context.Context, breakdownID uint64) (bool, []string, error)
}

type RequalificationRepository interface {
	CreateRequalification(ctx context.Context, requalification Requalification) (Requalification, error)
	GetRequalification(ctx context.Context, requalificationID uint64) (Requalification, error)
	ListRequalifications(ctx context.Context, equipmentID uint64) ([]Requalification, error)
	// NextOpenRequalification returns the earliest dated Scheduled or In Progress row.
	NextOpenRequalification(ctx context.Context, equipmentID uint64) (Requalification, bool, error)
	UpdateRequalification(ctx context.Context, requalification Requalification) error
	DeleteRequalification(ctx context.Context, requalificationID uint64) (bool, []string, error)
}

type AttachmentRepository interface {
	CreateAttachment(ctx context.Context, attachment Attachment) (Attachment, error)
	GetAttachment(ctx context.Context, attachmentID uint64) (Attachment, error)
	ListAttachments(ctx context.Context, parent AttachmentParent) ([]Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID uint64) (bool, error)
}

type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, equipmentID uint64, limit int) ([]AuditEntry, error)
}

type QualificationRepository interface {
	EquipmentRepository
	PhaseRepository
	BreakdownRepository
	RequalificationRepository
	AttachmentRepository
	AuditRepository
}
