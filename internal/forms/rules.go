package forms

import (
	"errors"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	errNumber   = validation.NewError("validation_number", "must be a number")
	errPositive = validation.NewError("validation_positive", "must not be negative")
	errRating   = validation.NewError("validation_rating", "must be between 1 and 5")
)

// Text is the rule set for a required string bounded in length.
func Text(minLen, maxLen int) []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(minLen, maxLen)}
}

// OptionalText bounds an optional string.
func OptionalText(maxLen int) []validation.Rule {
	return []validation.Rule{validation.Length(0, maxLen)}
}

// Link accepts absolute URLs and site-relative paths such as "/contact".
var Link = validation.By(func(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "/") {
		return nil
	}
	return is.URL.Validate(s)
})

// NumericString validates a form value the backend expects as a number.
var NumericString = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := ParseNumber(s); err != nil {
		return errNumber
	}
	return nil
})

// NonNegative rejects numeric strings below zero.
var NonNegative = validation.By(func(value any) error {
	s, _ := value.(string)
	n, err := ParseNumber(s)
	if err != nil || n >= 0 {
		return nil
	}
	return errPositive
})

// Rating validates a 1..5 numeric string.
var Rating = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := ParseNumber(s)
	if err != nil {
		return errNumber
	}
	if n < 1 || n > 5 {
		return errRating
	}
	return nil
})

var errNotFinite = errors.New("forms: number is not finite")

// ParseNumber coerces a numeric form string. NaN and infinities are
// rejected since they have no JSON encoding.
func ParseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotFinite
	}
	return n, nil
}

// Number coerces s for a JSON payload; blank input yields nil. Callers
// validate with NumericString first, so unparsable input never reaches it.
func Number(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := ParseNumber(s)
	if err != nil {
		return nil
	}
	return n
}
