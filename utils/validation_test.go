package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRequestBody struct {
	Request string `validate:"required,min=3"`
}

type financeQueryBody struct {
	Query  string `validate:"required"`
	Source string `validate:"omitempty,min=1"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		err := ValidateStruct(auditRequestBody{Request: "audit the expense data"})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(auditRequestBody{})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		require.Contains(t, fields, "Request")
		assert.Equal(t, "Request is required", fields["Request"])
	})

	t.Run("min length violation", func(t *testing.T) {
		err := ValidateStruct(auditRequestBody{Request: "ab"})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "Request must be at least 3", fields["Request"])
	})

	t.Run("optional field is skipped when empty", func(t *testing.T) {
		err := ValidateStruct(financeQueryBody{Query: "row_count"})
		assert.NoError(t, err)
	})
}

func TestIsValidationError(t *testing.T) {
	err := ValidateStruct(auditRequestBody{})
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID(uuid.NewString()))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "field"))
	err := ValidateRequired("", "request")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request is required")
}
