package validation

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// ClockPattern matches zero-padded 24-hour "HH:MM"
	ClockPattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`

	// CourseCodePattern matches codes such as CS101 or MATH2010
	CourseCodePattern = `^[A-Z]{2,6}[0-9]{3,4}[A-Z]?$`

	// StudentIDPattern matches generated student numbers
	StudentIDPattern = `^STU[0-9]{6}$`

	PasswordMinLength = 6
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Clock      *regexp.Regexp
	CourseCode *regexp.Regexp
	StudentID  *regexp.Regexp
}{
	Clock:      regexp.MustCompile(ClockPattern),
	CourseCode: regexp.MustCompile(CourseCodePattern),
	StudentID:  regexp.MustCompile(StudentIDPattern),
}

var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

// IsClock reports whether s is a valid "HH:MM" wall-clock time
func IsClock(s string) bool {
	return CompiledPatterns.Clock.MatchString(s)
}

// IsWeekday reports whether s is a full English weekday name
func IsWeekday(s string) bool {
	_, ok := weekdays[s]
	return ok
}

// IsCourseCode reports whether s looks like a course code
func IsCourseCode(s string) bool {
	return CompiledPatterns.CourseCode.MatchString(s)
}

// RegisterCustomRules installs the domain tags used in request DTOs:
// clock, weekday and coursecode.
func RegisterCustomRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"clock": func(fl validator.FieldLevel) bool {
			return IsClock(fl.Field().String())
		},
		"weekday": func(fl validator.FieldLevel) bool {
			return IsWeekday(fl.Field().String())
		},
		"coursecode": func(fl validator.FieldLevel) bool {
			return IsCourseCode(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

// FieldMessage renders a validator.FieldError as a readable sentence
func FieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "clock":
		return e.Field() + " must use HH:MM 24-hour format"
	case "weekday":
		return e.Field() + " must be a weekday name"
	case "coursecode":
		return e.Field() + " must be a course code such as CS101"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
