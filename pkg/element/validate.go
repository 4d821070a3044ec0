package element

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// glyph: exactly one user-perceived character (emoji with modifiers or
	// ZWJ sequences count as one).
	_ = v.RegisterValidation("glyph", func(fl validator.FieldLevel) bool {
		return uniseg.GraphemeClusterCount(fl.Field().String()) == 1
	})

	// maxwords=N: at most N whitespace separated words.
	_ = v.RegisterValidation("maxwords", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(strings.Fields(fl.Field().String())) <= limit
	})

	return v
}

// Validate checks that c is a well-formed generated concept: a non-empty name
// of at most three words and a single glyph.
func Validate(c Concept) error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "maxwords":
		return fmt.Sprintf("%s must be at most %s words", field, e.Param())
	case "glyph":
		return field + " must be a single glyph"
	default:
		return field + " is invalid"
	}
}
