package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	Day   string `validate:"required,weekday"`
	Start string `validate:"required,clock"`
	End   string `validate:"required,clock"`
	Code  string `validate:"required,coursecode"`
}

func TestRegisterCustomRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomRules(v))

	tests := []struct {
		name    string
		in      slot
		wantTag string
	}{
		{name: "valid", in: slot{Day: "Monday", Start: "09:00", End: "10:30", Code: "CS101"}},
		{name: "bad day", in: slot{Day: "Mon", Start: "09:00", End: "10:00", Code: "CS101"}, wantTag: "weekday"},
		{name: "bad clock", in: slot{Day: "Friday", Start: "9:00", End: "10:00", Code: "CS101"}, wantTag: "clock"},
		{name: "bad code", in: slot{Day: "Friday", Start: "09:00", End: "10:00", Code: "intro"}, wantTag: "coursecode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
			assert.NotEmpty(t, FieldMessage(verrs[0]))
		})
	}
}

func TestIsClock(t *testing.T) {
	assert.True(t, IsClock("00:00"))
	assert.True(t, IsClock("23:59"))
	assert.False(t, IsClock("24:00"))
	assert.False(t, IsClock("7:30"))
}
