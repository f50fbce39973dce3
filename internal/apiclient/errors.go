package apiclient

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrBaseURLRequired       = errors.New("apiclient: base url is required")
	ErrIDRequired            = errors.New("apiclient: record id is required")
	ErrFilesRequireMultipart = errors.New("apiclient: file parts require multipart encoding")
	ErrFilePartFieldRequired = errors.New("apiclient: file part field name is required")
)

const (
	TextCodeTransport      = "API_TRANSPORT_FAILED"
	TextCodeDecode         = "API_DECODE_FAILED"
	TextCodeRejected       = "API_REQUEST_REJECTED"
	DefaultFallbackMessage = "Something went wrong"
)

func transportError(err error, method, path string) error {
	wrapped := goerrors.WrapRetryable(err, goerrors.CategoryExternal, "request to backend failed").
		WithTextCode(TextCodeTransport).
		WithMetadata(map[string]any{"method": method, "path": path})
	return wrapped
}

func decodeError(err error, method, path string, status int) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "backend returned an unreadable response").
		WithCode(status).
		WithTextCode(TextCodeDecode).
		WithMetadata(map[string]any{"method": method, "path": path})
}

// responseError converts a failed envelope into a categorised error. The
// server message wins over the fallback; errorSources become field errors.
func responseError(method, path string, status int, env Envelope, fallback string) error {
	message := strings.TrimSpace(env.Message)
	if message == "" {
		message = fallback
	}

	category := goerrors.HTTPStatusToCategory(status)
	textCode := goerrors.HTTPStatusToTextCode(status)
	if status < http.StatusBadRequest {
		category = goerrors.CategoryOperation
		textCode = TextCodeRejected
	}

	err := goerrors.New(message, category).
		WithCode(status).
		WithTextCode(textCode).
		WithMetadata(map[string]any{"method": method, "path": path})

	if len(env.ErrorSources) > 0 {
		fields := make(goerrors.ValidationErrors, 0, len(env.ErrorSources))
		for _, source := range env.ErrorSources {
			fields = append(fields, goerrors.FieldError{
				Field:   strings.TrimSpace(source.Path),
				Message: strings.TrimSpace(source.Message),
			})
		}
		err.ValidationErrors = fields
		if category == goerrors.CategoryBadInput {
			err.Category = goerrors.CategoryValidation
		}
	}
	return err
}

// ErrorMessage extracts the operator facing message from err. Transport
// failures and untyped errors yield the fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = DefaultFallbackMessage
	}
	var retryable *goerrors.RetryableError
	if errors.As(err, &retryable) {
		return fallback
	}
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		if msg := strings.TrimSpace(typed.Message); msg != "" {
			return msg
		}
	}
	return fallback
}

// StatusCode reports the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return 0
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}
