package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixloop/fixloop-backend/internal/domain"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// RespondError maps domain error codes onto HTTP statuses. Errors without a
// domain code are treated as internal.
func RespondError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := statusFor(code)
	if code == "" {
		code = domain.CodeInternal
	}
	c.JSON(status, Envelope{
		Success: false,
		Error:   &APIError{Code: string(code), Message: err.Error()},
	})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusUnprocessableEntity
	case domain.CodeInvalidState, domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeMissingConfig:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
