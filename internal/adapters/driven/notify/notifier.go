// Package notify provides Notifier implementations for the post-persist
// notification channel.
package notify

import (
	"context"

	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// Ensure implementations satisfy the interface.
var (
	_ driven.Notifier = (*LogNotifier)(nil)
	_ driven.Notifier = (*NoopNotifier)(nil)
)

// LogNotifier reports events through the verbose logger. It stands in
// for a real UI badge channel in the CLI context.
type LogNotifier struct{}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, event string) error {
	logger.Info("Notification: %s", event)
	return nil
}

// NoopNotifier discards all events.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that does nothing.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify discards the event.
func (n *NoopNotifier) Notify(context.Context, string) error {
	return nil
}
