package httpapi

import (
	"github.com/gin-gonic/gin"

	"qualtrack/internal/usecase/qualification"
)

type scheduleRequalificationRequest struct {
	Ref             string `json:"requalification_ref"`
	Frequency       string `json:"frequency"`
	ToleranceMonths int    `json:"tolerance_months"`
	ScheduledDate   string `json:"scheduled_date"`
	ExecutionDate   string `json:"execution_date"`
	ApprovalDate    string `json:"approval_date"`
	ProtocolNumber  string `json:"protocol_number"`
	ApprovedBy      string `json:"approved_by"`
	Remarks         string `json:"remarks"`
}

type updateRequalificationRequest struct {
	Ref             *string `json:"requalification_ref"`
	Frequency       *string `json:"frequency"`
	ToleranceMonths *int    `json:"tolerance_months"`
	ScheduledDate   *string `json:"scheduled_date"`
	ExecutionDate   *string `json:"execution_date"`
	ApprovalDate    *string `json:"approval_date"`
	ProtocolNumber  *string `json:"protocol_number"`
	ApprovedBy      *string `json:"approved_by"`
	Status          *string `json:"status"`
	Remarks         *string `json:"remarks"`
}

func (h *handler) scheduleRequalification(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req scheduleRequalificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	view, err := h.svc.ScheduleRequalification(c.Request.Context(), qualification.ScheduleRequalificationInput{
		EquipmentID: equipmentID,
		RequalificationAttributes: qualification.RequalificationAttributes{
			Ref:             req.Ref,
			Frequency:       req.Frequency,
			ToleranceMonths: req.ToleranceMonths,
			ScheduledDate:   req.ScheduledDate,
			ExecutionDate:   req.ExecutionDate,
			ApprovalDate:    req.ApprovalDate,
			ProtocolNumber:  req.ProtocolNumber,
			ApprovedBy:      req.ApprovedBy,
			Remarks:         req.Remarks,
		},
		Actor: actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, view)
}

func (h *handler) updateRequalification(c *gin.Context) {
	requalificationID, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req updateRequalificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}

	view, err := h.svc.UpdateRequalification(c.Request.Context(), qualification.UpdateRequalificationInput{
		RequalificationID: requalificationID,
		Patch: qualification.RequalificationPatch{
			Ref:             req.Ref,
			Frequency:       req.Frequency,
			ToleranceMonths: req.ToleranceMonths,
			ScheduledDate:   req.ScheduledDate,
			ExecutionDate:   req.ExecutionDate,
			ApprovalDate:    req.ApprovalDate,
			ProtocolNumber:  req.ProtocolNumber,
			ApprovedBy:      req.ApprovedBy,
			Status:          req.Status,
			Remarks:         req.Remarks,
		},
		Actor: actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (h *handler) deleteRequalification(c *gin.Context) {
	requalificationID, valid := parseID(c, "id")
	if !valid {
		return
	}
	deleted, err := h.svc.DeleteRequalification(c.Request.Context(), requalificationID, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (h *handler) listRequalifications(c *gin.Context) {
	equipmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	items, err := h.svc.ListRequalifications(c.Request.Context(), equipmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}

func (h *handler) sweepRequalifications(c *gin.Context) {
	result, err := h.svc.SweepRequalifications(c.Request.Context(), actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}
