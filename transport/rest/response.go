package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

const headerRequestID = "X-Request-ID"

const (
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
)

// ErrorResponse - error envelope returned by every endpoint.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict, apperror.KindAlreadyActive:
		return http.StatusConflict
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		loggerFrom(c).Error("api error", "status", status, "code", code, "message", msg)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get(headerRequestID),
		Code:      code,
		Message:   msg,
	})
}

// failWith - maps an application error to its status; internal errors never leak their message.
func failWith(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		loggerFrom(c).Error("request failed", "error", err)
		fail(c, http.StatusInternalServerError, apperror.KindInternal.String(), "internal error")
		return
	}

	fail(c, statusOf(appErr.Kind), appErr.Kind.String(), appErr.Error())
}
