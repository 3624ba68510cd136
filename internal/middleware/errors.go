package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the body of every error response, wrapped as {"error": ...}.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after_ms,omitempty"`
}

// Error codes
const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeStorageError   = "STORAGE_ERROR"
	ErrCodeExecutionError = "EXECUTION_ERROR"
	ErrCodeRateLimited    = "RATE_LIMITED"
)

// RespondError sends a structured error response
func RespondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:    code,
			Message: message,
		},
	})
}

// RespondErrorWithDetails sends a structured error response with details
func RespondErrorWithDetails(c *gin.Context, status int, code string, message string, details string) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	RespondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound sends a 404 error
func NotFound(c *gin.Context, message string) {
	RespondError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, message string) {
	RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// StorageError sends a 500 error for history and run lookups that failed
// in the backing store.
func StorageError(c *gin.Context, err error) {
	RespondErrorWithDetails(c, http.StatusInternalServerError, ErrCodeStorageError, "storage unavailable", err.Error())
}

// ExecutionError sends a 500 error when a script could not be started. A
// script that runs and fails is not an error.
func ExecutionError(c *gin.Context, err error) {
	RespondErrorWithDetails(c, http.StatusInternalServerError, ErrCodeExecutionError, "failed to execute script", err.Error())
}
