package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Outcome classifies how a command run ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// TelemetryInfo is handed to a Telemetry callback after every run.
type TelemetryInfo struct {
	Command   string
	Operation string
	Outcome   Outcome
	// Category is the go-errors category of Error, empty on success.
	Category string
	Duration time.Duration
	Error    error
	Fields   map[string]any
}

// Telemetry observes command runs.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs one `admin.command` entry per run.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = EnsureLogger(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"outcome", info.Outcome, "duration_ms", info.Duration.Milliseconds()}
		if info.Outcome == OutcomeOK {
			entry.Info("admin.command", args...)
			return
		}
		entry.Error("admin.command", append(args, "category", info.Category, "error", info.Error)...)
	}
}
