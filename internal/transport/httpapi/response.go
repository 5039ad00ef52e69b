package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	codeOK              = "ok"
	codeValidation      = "validation_error"
	codeNotFound        = "not_found"
	codePayloadTooLarge = "payload_too_large"
	codeConflict        = "conflict"
	codeUnauthorized    = "unauthorized"
	codeInternal        = "internal_error"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Message: "success", Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: codeOK, Message: "created", Data: data})
}

func failStatus(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

// fail maps an error kind onto an HTTP status. Persistence and unknown errors are logged and
// reported without their internal message.
func fail(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		failStatus(c, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
		return
	}

	switch errs.KindOf(err) {
	case errs.KindValidation:
		failStatus(c, http.StatusBadRequest, codeValidation, err.Error())
	case errs.KindNotFound:
		failStatus(c, http.StatusNotFound, codeNotFound, err.Error())
	case errs.KindPayloadTooLarge:
		failStatus(c, http.StatusRequestEntityTooLarge, codePayloadTooLarge, err.Error())
	case errs.KindConcurrency:
		failStatus(c, http.StatusConflict, codeConflict, err.Error())
	default:
		logging.Error(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("err", errs.Loggable(err)),
		)
		failStatus(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func badRequest(c *gin.Context, message string) {
	failStatus(c, http.StatusBadRequest, codeValidation, message)
}

// bindErr keeps body size violations distinct and reports malformed JSON as a validation error.
func bindErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return errs.WithKind(err, errs.KindValidation, "invalid request body")
}
