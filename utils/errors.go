package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the inner error object of a standardized error response
type ErrorBody struct {
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorBody{
			Message: message,
			Code:    errorCode,
			Status:  statusCode,
			Details: details,
		},
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithUnauthorized sends a 401 Unauthorized error
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}
