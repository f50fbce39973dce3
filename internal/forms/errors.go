package forms

import (
	"errors"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrSubmitting = errors.New("forms: submission already in progress")
	ErrLoading    = errors.New("forms: record is still loading")
)

// TextCodeInvalid tags validation errors produced by a controller.
const TextCodeInvalid = "FORM_INVALID"

// FieldErrors flattens an ozzo validation result into dotted field paths,
// e.g. "buttons.0.title". Errors without a field are ignored.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	flatten("", err, out)
	return out
}

func flatten(prefix string, err error, out map[string]string) {
	if err == nil {
		return
	}
	var nested validation.Errors
	if errors.As(err, &nested) {
		for key, child := range nested {
			flatten(joinPath(prefix, key), child, out)
		}
		return
	}
	if prefix == "" {
		return
	}
	out[prefix] = err.Error()
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ValidationError builds a go-errors validation error carrying one field
// error per entry, sorted by field.
func ValidationError(message string, fields map[string]string) *goerrors.Error {
	keys := slices.Sorted(maps.Keys(fields))
	fieldErrs := make([]goerrors.FieldError, 0, len(keys))
	for _, key := range keys {
		fieldErrs = append(fieldErrs, goerrors.FieldError{Field: key, Message: fields[key]})
	}
	return goerrors.NewValidation(message, fieldErrs...).WithTextCode(TextCodeInvalid)
}

// RemoteFieldErrors extracts field errors attached to err by the backend,
// keyed by field path.
func RemoteFieldErrors(err error) map[string]string {
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok || len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Field)
		if name == "" {
			continue
		}
		out[name] = field.Message
	}
	return out
}
