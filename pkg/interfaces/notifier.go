package interfaces

import "context"

// ToastLevel classifies a transient notification.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast is a transient message surfaced to the operator after a mutation.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

// Notifier delivers toasts. The dashboard stores them as flash messages; the
// CLI prints them.
type Notifier interface {
	Notify(ctx context.Context, toast Toast)
}
