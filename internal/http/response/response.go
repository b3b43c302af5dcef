package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/platform/apierr"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			TraceID: ctxutil.TraceID(c.Request.Context()),
		},
	})
}

// Fail classifies err and writes the matching status and envelope.
func Fail(c *gin.Context, err error) {
	e := apierr.From(err)
	c.Error(err)
	RespondError(c, e.Status, e.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
