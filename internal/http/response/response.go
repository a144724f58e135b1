package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurogarden-backend/internal/platform/apierr"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respond(c, status, APIError{Message: message(err), Code: code})
}

// RespondAPIError writes an *apierr.Error found in err's chain, or a 500 otherwise.
// The error is also attached to the gin context for the request logger.
func RespondAPIError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	if ae, ok := apierr.As(err); ok {
		respond(c, ae.Status, APIError{Message: message(ae.Err), Code: ae.Code, Retryable: ae.Retryable})
		return
	}
	respond(c, http.StatusInternalServerError, APIError{Message: message(err), Code: "internal_error"})
}

func respond(c *gin.Context, status int, e APIError) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: e})
}

func message(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
