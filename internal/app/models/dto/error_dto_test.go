package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func TestHandleValidationError(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		field     string
		numErrors int
	}{
		{name: "not a validator error", err: errors.New("unexpected EOF"), code: ErrorCodeBadRequest},
		{name: "one field", err: v.Struct(loginForm{Email: "a@b.edu"}), code: ErrorCodeValidationFailed, field: "password", numErrors: 1},
		{name: "two fields", err: v.Struct(loginForm{}), code: ErrorCodeValidationFailed, numErrors: 2},
		{name: "empty list", err: validator.ValidationErrors{}, code: ErrorCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := HandleValidationError(tt.err)
			assert.Equal(t, tt.code, detail.Code)
			assert.Equal(t, tt.field, detail.Field)
			if tt.numErrors == 0 {
				if tt.code == ErrorCodeValidationFailed {
					assert.Nil(t, detail.Details)
				}
				return
			}
			list, ok := detail.Details.([]ErrorDetail)
			require.True(t, ok)
			assert.Len(t, list, tt.numErrors)
		})
	}
}

func TestValidationErrors_HasErrors(t *testing.T) {
	list := NewValidationErrors()
	assert.False(t, list.HasErrors())
	list.AddError("email", "is required")
	assert.True(t, list.HasErrors())
	assert.Equal(t, ErrorCodeValidationFailed, list.Errors[0].Code)
}
