package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type registrationPayload struct {
	FirstName    string `json:"firstName" validate:"required"`
	StudentEmail string `json:"studentEmail" validate:"required"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(registrationPayload{
		FirstName:    "Ada",
		StudentEmail: "ada@school.edu",
	})
	require.NoError(t, err)
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(registrationPayload{FirstName: "Ada"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 1)
	require.Equal(t, "studentEmail", failures[0].Field)
	require.Equal(t, "required", failures[0].Tag)
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "code", Tag: "required"},
		{Field: "code", Tag: "len", Param: "6"},
	}
	require.Equal(t, "code failed on required; code failed on len=6", errs.Error())
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
