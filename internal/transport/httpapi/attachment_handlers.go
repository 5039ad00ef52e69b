package httpapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qualtrack/internal/usecase/qualification"
)

type uploadAttachmentRequest struct {
	ParentType string `json:"parent_type"`
	ParentID   uint64 `json:"parent_id"`
	attachmentFileRequest
}

func (h *handler) uploadAttachment(c *gin.Context) {
	var req uploadAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindErr(err))
		return
	}
	parent, err := qualification.ParseAttachmentParent(req.ParentType, req.ParentID)
	if err != nil {
		fail(c, err)
		return
	}

	item, err := h.svc.UploadAttachment(c.Request.Context(), qualification.UploadAttachmentInput{
		Parent:         parent,
		AttachmentFile: *req.attachmentFileRequest.toInput(),
		Actor:          actorFrom(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, item)
}

func (h *handler) listAttachments(c *gin.Context) {
	parentID, err := strconv.ParseUint(c.Query("parent_id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid parent_id")
		return
	}
	parent, err := qualification.ParseAttachmentParent(c.Query("parent_type"), parentID)
	if err != nil {
		fail(c, err)
		return
	}
	items, err := h.svc.ListAttachments(c.Request.Context(), parent)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}

// downloadAttachment streams the stored bytes instead of the JSON envelope.
func (h *handler) downloadAttachment(c *gin.Context) {
	attachmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	item, data, err := h.svc.DownloadAttachment(c.Request.Context(), attachmentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": item.FileName}))
	c.Data(http.StatusOK, item.MimeType, data)
}

func (h *handler) deleteAttachment(c *gin.Context) {
	attachmentID, valid := parseID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.DeleteAttachment(c.Request.Context(), attachmentID, actorFrom(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}
