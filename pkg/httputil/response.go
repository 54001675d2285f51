package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Status: "success", Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: "error", Message: message}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{Status: "success", Data: data})
}

// RespondWithMessage sends a success response carrying only a message
func RespondWithMessage(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Status: "success", Message: message})
}

// RespondWithError sends an error response. Internal errors are collapsed to a
// generic message; the wrapped cause is for server-side logs only.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		_ = c.Error(err)
		c.JSON(appErr.Code, Response{Status: "error", Message: appErr.Message})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Response{Status: "error", Message: "internal server error"})
}
