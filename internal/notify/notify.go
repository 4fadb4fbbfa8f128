// Package notify is the ambient user-feedback surface: transient,
// non-blocking notifications emitted by cart and admin operations.
package notify

import (
	"context"

	"github.com/northbay-wholesale/storefront/pkg/logger"
)

// Notifier receives transient user-facing messages.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Warning(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// LogNotifier renders notifications through the structured logger; the UI
// adapter swaps in a visual implementation.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Success(ctx context.Context, msg string) {
	if n.logg == nil {
		return
	}
	n.logg.Info(n.logg.WithField(ctx, "notice", "success"), msg)
}

func (n *LogNotifier) Warning(ctx context.Context, msg string) {
	if n.logg == nil {
		return
	}
	n.logg.Warn(n.logg.WithField(ctx, "notice", "warning"), msg)
}

func (n *LogNotifier) Error(ctx context.Context, msg string) {
	if n.logg == nil {
		return
	}
	n.logg.Error(n.logg.WithField(ctx, "notice", "error"), msg, nil)
}
