package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	rootModule       = "admin"
	apiModule        = "admin.api"
	formsModule      = "admin.forms"
	submissionModule = "admin.submission"
	viewsModule      = "admin.views"
	dashboardModule  = "admin.dashboard"
)

const (
	fieldResource = "resource"
	fieldRecordID = "record_id"
	fieldAction   = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// APILogger returns the logger used by the REST client.
func APILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, apiModule)
}

// FormsLogger returns the logger used by form controllers.
func FormsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, formsModule)
}

// SubmissionLogger returns the logger used by the submission orchestrator.
func SubmissionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, submissionModule)
}

// ViewsLogger returns the logger used by read views.
func ViewsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, viewsModule)
}

// DashboardLogger returns the logger used by the HTTP dashboard.
func DashboardLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, dashboardModule)
}

// WithRecord enriches a logger with the resource key, record id and action.
// Empty values are skipped.
func WithRecord(logger interfaces.Logger, resource, id, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(resource); trimmed != "" {
		fields[fieldResource] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldRecordID] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
