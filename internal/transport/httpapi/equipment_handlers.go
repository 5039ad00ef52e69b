package httpapi

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"qualtrack/internal/usecase/qualification"
)

type attachmentFileRequest struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileData string `json:"file_data"`
}

func (r *attachmentFileRequest) toInput() *qualification.AttachmentFile {
	if r == nil {
		return nil
	}
	return &qualification.AttachmentFile{FileName: r.FileName, MimeType: r.MimeType, DataBase64: r.FileData}
}

type createEquipmentRequest struct {
	Name                     string `json:"name"`
	Type                     string `json:"type"`
	Department               string `json:"department"`
	Location                 string `json:"location"`
	Manufacturer             string `json:"manufacturer"`
	Model                    string `json:"model"`
	SerialNumber             string `json:"serial_number"`
	Capacity                 string `json:"capacity"`
	InstallationDate         string `json:"installation_date"`
	ChangeControlNumber      string `json:"change_control_number"`
	RequalificationFrequency string `json:"requalification_frequency"`
	ToleranceMonths          int    `json:"tolerance_months"`
	NextDueDate              string `json:"next_due_date"`

	URSNumber         string                 `json:"urs_number"`
	URSProtocolNumber string                 `json:"urs_protocol_number"`
	URSExecutionDate  string                 `json:"urs_execution_date"`
	URSApprovalDate   string                 `json:"urs_approval_date"`
	URSApprovedBy     string                 `json:"urs_approved_by"`
	URSRemarks        string                 `json:"urs_remarks"`
	URSAttachment     *attachmentFileRequest `json:"urs_attachment"`
}

type phaseEditRequest struct {
	PhaseID        uint64  `json:"phase_id"`
	Phase          string  `json:"phase"`
	Status         *string `json:"status"`
	ProtocolNumber *string `json:"protocol_number"`
	ExecutionDate  *string `json:"execution_date"`
	ApprovalDate   *string `json:"approval_date"`
	ApprovedBy     *string `json:"approved_by"`
	Remarks        *string `json:"remarks"`
}

type updateEquipmentRequest struct {
	Name                     *string `json:"name"`
	Type                     *string `json:"type"`
	Department               *string `json:"department"`
	Location                 *string `json:"location"`
	Manufacturer             *string `json:"manufacturer"`
	Model                    *string `json:"model"`
	SerialNumber             *string `json:"serial_number"`
	Capacity                 *string `json:"capacity"`
	InstallationDate         *string `json:"installation_date"`
	ChangeControlNumber      *string `json:"change_control_number"`
	URSNumber                *string `json:"urs_number"`
	RequalificationFrequency *string `json:"requalification_frequency"`
	ToleranceMonths          *int    `json:"tolerance_months"`
	NextDueDate              *string `json:"next_due_date"`

	Phases []phaseEditRequest `json:"phases"`
	Tag    string             `json:"tag"`
	Status string             `json:"status"`
}

func (h *handler) createEquipment(c *gin.Context) {
	var req createEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	equipmentID, err := h.svc.CreateEquipment(c.Request.Context(), qualification.CreateEquipmentInput{
		EquipmentAttributes: qualification.EquipmentAttributes{
			Name:                     req.Name,
			Type:                     req.Type,
			Department:               req.Department,
			Location:                 req.Location,
			Manufacturer:             req.Manufacturer,
			Model:                    req.Model,
			SerialNumber:             req.SerialNumber,
			Capacity:                 req.Capacity,
			InstallationDate:         req.InstallationDate,
			ChangeControlNumber:      req.ChangeControlNumber,
			RequalificationFrequency: req.RequalificationFrequency,
			ToleranceMonths:          req.ToleranceMonths,
			NextDueDate:              req.NextDueDate,
		},
		URS: qualification.URSInput{
			Number:         req.URSNumber,
			ProtocolNumber: req.URSProtocolNumber,
			ExecutionDate:  req.URSExecutionDate,
			ApprovalDate:   req.URSApprovalDate,
			ApprovedBy:     req.URSApprovedBy,
			Remarks:        req.URSRemarks,
		},
		URSAttachment: req.URSAttachment.toInput(),
		Actor:         actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"equipment_id": equipmentID})
}

func (h *handler) updateEquipment(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req updateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	edits := make([]qualification.PhaseEdit, 0, len(req.Phases))
	for _, p := range req.Phases {
		edits = append(edits, qualification.PhaseEdit{
			PhaseID:        p.PhaseID,
			Phase:          p.Phase,
			Status:         p.Status,
			ProtocolNumber: p.ProtocolNumber,
			ExecutionDate:  p.ExecutionDate,
			ApprovalDate:   p.ApprovalDate,
			ApprovedBy:     p.ApprovedBy,
			Remarks:        p.Remarks,
		})
	}

	view, err := h.svc.UpdateEquipment(c.Request.Context(), qualification.UpdateEquipmentInput{
		EquipmentID: equipmentID,
		Patch: qualification.EquipmentPatch{
			Name:                     req.Name,
			Type:                     req.Type,
			Department:               req.Department,
			Location:                 req.Location,
			Manufacturer:             req.Manufacturer,
			Model:                    req.Model,
			SerialNumber:             req.SerialNumber,
			Capacity:                 req.Capacity,
			InstallationDate:         req.InstallationDate,
			ChangeControlNumber:      req.ChangeControlNumber,
			URSNumber:                req.URSNumber,
			RequalificationFrequency: req.RequalificationFrequency,
			ToleranceMonths:          req.ToleranceMonths,
			NextDueDate:              req.NextDueDate,
		},
		PhaseEdits:     edits,
		Tag:            req.Tag,
		FallbackStatus: req.Status,
		Actor:          actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (h *handler) deleteEquipment(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	deleted, err := h.svc.DeleteEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (h *handler) getEquipment(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	view, err := h.svc.GetEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (h *handler) getEquipmentStatus(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	view, err := h.svc.GetEquipmentStatus(c.Request.Context(), equipmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// listEquipment accepts repeated or comma separated status filters.
func (h *handler) listEquipment(c *gin.Context) {
	var statuses []string
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				statuses = append(statuses, part)
			}
		}
	}
	items, err := h.svc.ListEquipment(c.Request.Context(), statuses)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}

func (h *handler) listAudit(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	items, err := h.svc.ListAuditLog(c.Request.Context(), equipmentID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}
