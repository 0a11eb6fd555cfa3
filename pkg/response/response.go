package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/assemblage/asm/pkg/errors"
)

// The API speaks a flat JSON contract: success payloads carry a "message"
// field (plus endpoint-specific fields), failures carry a single "error"
// string. No envelope, no structured codes.

// Message writes a success payload containing only a message.
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// JSON writes an arbitrary success payload.
func JSON(c *gin.Context, statusCode int, payload any) {
	c.JSON(statusCode, payload)
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}
