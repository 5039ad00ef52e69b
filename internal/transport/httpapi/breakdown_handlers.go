package httpapi

import (
	"github.com/gin-gonic/gin"

	"qualtrack/internal/usecase/qualification"
)

type reportBreakdownRequest struct {
	Ref                    string   `json:"breakdown_ref"`
	ReportedDate           string   `json:"reported_date"`
	ReportedBy             string   `json:"reported_by"`
	Description            string   `json:"description"`
	RootCause              string   `json:"root_cause"`
	Type                   string   `json:"breakdown_type"`
	Severity               string   `json:"severity"`
	MaintenanceStart       string   `json:"maintenance_start"`
	MaintenanceEnd         string   `json:"maintenance_end"`
	MaintenancePerformedBy string   `json:"maintenance_performed_by"`
	MaintenanceDetails     string   `json:"maintenance_details"`
	ValidationImpact       string   `json:"validation_impact"`
	ImpactAssessment       string   `json:"impact_assessment"`
	RevalidationPhases     []string `json:"revalidation_phases"`
}

type revalidationEditRequest struct {
	RevalidationID uint64  `json:"revalidation_id"`
	Status         *string `json:"status"`
	ProtocolNumber *string `json:"protocol_number"`
	ExecutionDate  *string `json:"execution_date"`
	ApprovalDate   *string `json:"approval_date"`
	ApprovedBy     *string `json:"approved_by"`
	Remarks        *string `json:"remarks"`
}

type updateBreakdownRequest struct {
	EquipmentID            uint64                    `json:"equipment_id"`
	Ref                    *string                   `json:"breakdown_ref"`
	ReportedDate           *string                   `json:"reported_date"`
	ReportedBy             *string                   `json:"reported_by"`
	Description            *string                   `json:"description"`
	RootCause              *string                   `json:"root_cause"`
	Type                   *string                   `json:"breakdown_type"`
	Severity               *string                   `json:"severity"`
	MaintenanceStart       *string                   `json:"maintenance_start"`
	MaintenanceEnd         *string                   `json:"maintenance_end"`
	MaintenancePerformedBy *string                   `json:"maintenance_performed_by"`
	MaintenanceDetails     *string                   `json:"maintenance_details"`
	ValidationImpact       *string                   `json:"validation_impact"`
	ImpactAssessment       *string                   `json:"impact_assessment"`
	Status                 *string                   `json:"status"`
	ClosedDate             *string                   `json:"closed_date"`
	ClosedBy               *string                   `json:"closed_by"`
	ClosureRemarks         *string                   `json:"closure_remarks"`
	RevalidationPhases     []revalidationEditRequest `json:"revalidation_phases"`
}

func (h *handler) reportBreakdown(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req reportBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	result, err := h.svc.ReportBreakdown(c.Request.Context(), qualification.ReportBreakdownInput{
		EquipmentID: equipmentID,
		BreakdownAttributes: qualification.BreakdownAttributes{
			Ref:                    req.Ref,
			ReportedDate:           req.ReportedDate,
			ReportedBy:             req.ReportedBy,
			Description:            req.Description,
			RootCause:              req.RootCause,
			Type:                   req.Type,
			Severity:               req.Severity,
			MaintenanceStart:       req.MaintenanceStart,
			MaintenanceEnd:         req.MaintenanceEnd,
			MaintenancePerformedBy: req.MaintenancePerformedBy,
			MaintenanceDetails:     req.MaintenanceDetails,
			ValidationImpact:       req.ValidationImpact,
			ImpactAssessment:       req.ImpactAssessment,
		},
		RevalidationPhases: req.RevalidationPhases,
		Actor:              actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, result)
}

func (h *handler) updateBreakdown(c *gin.Context) {
	breakdownID, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req updateBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	edits := make([]qualification.RevalidationEdit, 0, len(req.RevalidationPhases))
	for _, r := range req.RevalidationPhases {
		edits = append(edits, qualification.RevalidationEdit{
			RevalidationID: r.RevalidationID,
			Status:         r.Status,
			ProtocolNumber: r.ProtocolNumber,
			ExecutionDate:  r.ExecutionDate,
			ApprovalDate:   r.ApprovalDate,
			ApprovedBy:     r.ApprovedBy,
			Remarks:        r.Remarks,
		})
	}

	result, err := h.svc.UpdateBreakdown(c.Request.Context(), qualification.UpdateBreakdownInput{
		BreakdownID: breakdownID,
		EquipmentID: req.EquipmentID,
		Patch: qualification.BreakdownPatch{
			Ref:                    req.Ref,
			ReportedDate:           req.ReportedDate,
			ReportedBy:             req.ReportedBy,
			Description:            req.Description,
			RootCause:              req.RootCause,
			Type:                   req.Type,
			Severity:               req.Severity,
			MaintenanceStart:       req.MaintenanceStart,
			MaintenanceEnd:         req.MaintenanceEnd,
			MaintenancePerformedBy: req.MaintenancePerformedBy,
			MaintenanceDetails:     req.MaintenanceDetails,
			ValidationImpact:       req.ValidationImpact,
			ImpactAssessment:       req.ImpactAssessment,
			Status:                 req.Status,
			ClosedDate:             req.ClosedDate,
			ClosedBy:               req.ClosedBy,
			ClosureRemarks:         req.ClosureRemarks,
		},
		RevalidationEdits: edits,
		Actor:             actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

func (h *handler) deleteBreakdown(c *gin.Context) {
	breakdownID, valid := parseID(c, "id")
	if !valid {
		return
	}
	deleted, err := h.svc.DeleteBreakdown(c.Request.Context(), breakdownID, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (h *handler) listBreakdowns(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	items, err := h.svc.ListBreakdowns(c.Request.Context(), equipmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}
