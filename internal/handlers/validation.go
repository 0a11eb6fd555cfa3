package handlers

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/assemblage/asm/pkg/errors"
	"github.com/assemblage/asm/pkg/response"
	appValidator "github.com/assemblage/asm/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation
// rules. The API contract exposes fixed error strings, so any malformed or
// incomplete payload is reported as onInvalid. Returns false when a response
// has already been written.
func bindAndValidate[T any](c *gin.Context, dest *T, onInvalid *appErrors.AppError) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, onInvalid)
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, onInvalid)
		return false
	}

	return true
}
