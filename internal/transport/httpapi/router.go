package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/usecase/qualification"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	JWTSecret string
	JWTIssuer string
	// MaxAttachmentBytes bounds decoded uploads; request bodies get room for base64 overhead.
	MaxAttachmentBytes int64
}

type handler struct {
	svc          *qualification.Service
	maxBodyBytes int64
}

// NewRouter builds the JSON API. ctx supplies the base logger for request logs.
func NewRouter(ctx context.Context, svc *qualification.Service, opts Options) *gin.Engine {
	maxAttachment := opts.MaxAttachmentBytes
	if maxAttachment <= 0 {
		maxAttachment = qualification.DefaultMaxAttachmentBytes
	}
	h := &handler{
		svc:          svc,
		maxBodyBytes: maxAttachment*4/3 + 64*1024,
	}

	metrics := newHTTPMetrics()

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(ctx), metrics.middleware)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.handler())

	api := router.Group("/api/v1")
	api.Use(h.limitBody, authenticate(opts.JWTSecret, opts.JWTIssuer))

	api.GET("/summary", h.summary)

	api.GET("/equipment", h.listEquipment)
	api.POST("/equipment", h.createEquipment)
	api.GET("/equipment/:id", h.getEquipment)
	api.PATCH("/equipment/:id", h.updateEquipment)
	api.DELETE("/equipment/:id", h.deleteEquipment)
	api.GET("/equipment/:id/status", h.getEquipmentStatus)
	api.GET("/equipment/:id/audit", h.listAudit)

	api.GET("/equipment/:id/breakdowns", h.listBreakdowns)
	api.POST("/equipment/:id/breakdowns", h.reportBreakdown)
	api.PATCH("/breakdowns/:id", h.updateBreakdown)
	api.DELETE("/breakdowns/:id", h.deleteBreakdown)

	api.GET("/equipment/:id/requalifications", h.listRequalifications)
	api.POST("/equipment/:id/requalifications", h.scheduleRequalification)
	api.PATCH("/requalifications/:id", h.updateRequalification)
	api.DELETE("/requalifications/:id", h.deleteRequalification)
	api.POST("/requalifications/sweep", h.sweepRequalifications)

	api.GET("/attachments", h.listAttachments)
	api.POST("/attachments", h.uploadAttachment)
	api.GET("/attachments/:id", h.downloadAttachment)
	api.DELETE("/attachments/:id", h.deleteAttachment)

	return router
}

func (h *handler) limitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	c.Next()
}

// requestLogger moves the server logger onto each request context, tagged with a request id.
func requestLogger(ctx context.Context) gin.HandlerFunc {
	base := logging.WithAttrs(ctx, slog.String("component", "httpapi"))
	logger := logging.Logger(base)
	baseAttrs := logging.Attrs(base)

	return func(c *gin.Context) {
		started := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqCtx := logging.WithLogger(c.Request.Context(), logger)
		reqCtx = logging.WithAttrs(reqCtx, baseAttrs...)
		reqCtx = logging.WithAttrs(reqCtx,
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		reqCtx = logging.WithTelemetry(reqCtx, requestID, "")
		c.Request = c.Request.WithContext(reqCtx)

		c.Next()

		logging.Info(reqCtx, "request served",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(started)),
		)
	}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *handler) summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, summary)
}
