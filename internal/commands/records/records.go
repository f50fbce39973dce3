package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	deleteRecordMessageType  = "admin.records.delete"
	setVisibilityMessageType = "admin.records.visibility"

	TextCodeUnknownResource = "RECORDS_UNKNOWN_RESOURCE"
	TextCodeNotSupported    = "RECORDS_NOT_SUPPORTED"
)

var (
	_ command.Commander[DeleteRecordCommand]  = (*DeleteRecordHandler)(nil)
	_ command.Commander[SetVisibilityCommand] = (*SetVisibilityHandler)(nil)
)

// Resolver finds the module that owns a resource key.
type Resolver interface {
	Get(key string) (resources.Module, error)
}

// DeleteRecordCommand removes a record, softly when the resource keeps
// deleted records.
type DeleteRecordCommand struct {
	Resource       string `json:"resource"`
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Type implements command.Message.
func (DeleteRecordCommand) Type() string { return deleteRecordMessageType }

// Validate ensures the message names a record.
func (m DeleteRecordCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Resource, validation.Required),
		validation.Field(&m.ID, validation.Required),
	)
}

// SetVisibilityCommand shows or hides a record on the public site.
type SetVisibilityCommand struct {
	Resource       string `json:"resource"`
	ID             string `json:"id"`
	Visible        bool   `json:"visible"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Type implements command.Message.
func (SetVisibilityCommand) Type() string { return setVisibilityMessageType }

func (m SetVisibilityCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Resource, validation.Required),
		validation.Field(&m.ID, validation.Required),
	)
}

// DeleteRecordHandler executes DeleteRecordCommand against the registry.
type DeleteRecordHandler struct {
	inner *commands.Handler[DeleteRecordCommand]
}

// NewDeleteRecordHandler constructs a handler resolving modules through
// resolver.
func NewDeleteRecordHandler(resolver Resolver, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteRecordCommand]) *DeleteRecordHandler {
	exec := func(ctx context.Context, msg DeleteRecordCommand) error {
		module, err := resolve(resolver, msg.Resource)
		if err != nil {
			return err
		}
		return tag(module.Delete(ctx, strings.TrimSpace(msg.ID), msg.IdempotencyKey))
	}
	handlerOpts := []commands.HandlerOption[DeleteRecordCommand]{
		commands.WithLogger[DeleteRecordCommand](logger),
		commands.WithOperation[DeleteRecordCommand]("records.delete"),
	}
	return &DeleteRecordHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[DeleteRecordCommand].
func (h *DeleteRecordHandler) Execute(ctx context.Context, msg DeleteRecordCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SetVisibilityHandler executes SetVisibilityCommand against the registry.
type SetVisibilityHandler struct {
	inner *commands.Handler[SetVisibilityCommand]
}

func NewSetVisibilityHandler(resolver Resolver, logger interfaces.Logger, opts ...commands.HandlerOption[SetVisibilityCommand]) *SetVisibilityHandler {
	exec := func(ctx context.Context, msg SetVisibilityCommand) error {
		module, err := resolve(resolver, msg.Resource)
		if err != nil {
			return err
		}
		return tag(module.SetVisibility(ctx, strings.TrimSpace(msg.ID), msg.Visible, msg.IdempotencyKey))
	}
	handlerOpts := []commands.HandlerOption[SetVisibilityCommand]{
		commands.WithLogger[SetVisibilityCommand](logger),
		commands.WithOperation[SetVisibilityCommand]("records.visibility"),
	}
	return &SetVisibilityHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[SetVisibilityCommand].
func (h *SetVisibilityHandler) Execute(ctx context.Context, msg SetVisibilityCommand) error {
	return h.inner.Execute(ctx, msg)
}

func resolve(resolver Resolver, key string) (resources.Module, error) {
	if resolver == nil {
		return nil, fmt.Errorf("records: resolver not configured")
	}
	module, err := resolver.Get(key)
	if err != nil {
		return nil, tag(err)
	}
	return module, nil
}

// tag categorises local sentinels; backend errors are already typed.
func tag(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resources.ErrUnknownResource):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, err.Error()).
			WithTextCode(TextCodeUnknownResource)
	case errors.Is(err, resources.ErrNotSupported):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
			WithTextCode(TextCodeNotSupported)
	default:
		return err
	}
}
