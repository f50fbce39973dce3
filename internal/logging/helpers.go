package logging

import (
	"maps"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// WithFields attaches structured fields when the logger supports the
// FieldsLogger extension; other loggers are returned unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}

	return logger
}
