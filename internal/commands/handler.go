package commands

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// DefaultCommandTimeout bounds a command that sets no timeout of its own.
const DefaultCommandTimeout = 30 * time.Second

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps command execution with the shared dashboard concerns:
// message validation, a timeout, logging and error tagging.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	telemetry Telemetry[T]
}

// NewHandler creates a handler that satisfies go-command's Commander
// interface.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	ctx = EnsureContext(ctx)
	info := TelemetryInfo{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
		Fields:    map[string]any{"command": command.GetMessageType(msg)},
	}
	if h.operation != "" {
		info.Fields["operation"] = h.operation
	}

	if err := command.ValidateMessage(msg); err != nil {
		err = invalidMessage(err)
		info.Outcome = OutcomeFailed
		info.Error = err
		info.Category = categoryOf(err)
		h.report(ctx, msg, info)
		return err
	}

	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return tagError(err)
	}

	logging.WithFields(h.logger, info.Fields).Debug("admin.command.start")

	started := time.Now()
	err := h.exec(ctx, msg)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	err = tagError(err)

	info.Duration = time.Since(started)
	info.Error = err
	info.Category = categoryOf(err)
	switch {
	case err == nil:
		info.Outcome = OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		info.Outcome = OutcomeCancelled
	default:
		info.Outcome = OutcomeFailed
	}

	h.report(ctx, msg, info)
	return err
}

func (h *Handler[T]) report(ctx context.Context, msg T, info TelemetryInfo) {
	telemetry := h.telemetry
	if telemetry == nil {
		telemetry = DefaultTelemetry[T](h.logger)
	}
	telemetry(ctx, msg, info)
}

// WithTimeout overrides the default execution timeout. Zero disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = EnsureLogger(logger)
	}
}

// WithOperation sets the operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithTelemetry replaces the default outcome logging with fn.
func WithTelemetry[T command.Message](fn Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = fn
	}
}

// EnsureContext returns a non-nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout applies timeout unless it is zero or negative.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns a usable logger, defaulting to a no-op logger.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
