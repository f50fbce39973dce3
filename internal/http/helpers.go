package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/uploads"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" || trimmedBase == "/" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// statusOf maps a failure to the status of the page that reports it.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, resources.ErrUnknownResource):
		return http.StatusNotFound
	case errors.Is(err, resources.ErrNotSupported),
		errors.Is(err, resources.ErrUnknownAction),
		errors.Is(err, resources.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, uploads.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, uploads.ErrTypeNotAllowed):
		return http.StatusUnsupportedMediaType
	}
	var typed *goerrors.Error
	if !errors.As(err, &typed) {
		return http.StatusInternalServerError
	}
	switch typed.Category {
	case goerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseBool(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	switch strings.ToLower(trimmed) {
	case "on", "yes":
		return true
	case "off", "no":
		return false
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
