package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidMessage = "ADMIN_COMMAND_INVALID"
	TextCodeCancelled      = "ADMIN_COMMAND_CANCELLED"
	TextCodeTimedOut       = "ADMIN_COMMAND_TIMED_OUT"
	TextCodeFailed         = "ADMIN_COMMAND_FAILED"
)

// tagError attaches a category and text code to err unless an inner layer
// (the API client, a resource module) already classified it.
func tagError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command cancelled").WithTextCode(TextCodeCancelled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command timed out").WithTextCode(TextCodeTimedOut)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command failed").WithTextCode(TextCodeFailed)
	}
}

// invalidMessage marks a rejected message with TextCodeInvalidMessage,
// keeping the field details go-command already collected.
func invalidMessage(err error) error {
	if err == nil {
		return nil
	}
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		typed.WithTextCode(TextCodeInvalidMessage)
		if typed.Category == "" {
			typed.Category = goerrors.CategoryValidation
		}
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command").WithTextCode(TextCodeInvalidMessage)
}

func categoryOf(err error) string {
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		return typed.Category.String()
	}
	return ""
}
