package driven

import "context"

// Notifier is the fire-and-forget notification channel signalled after
// fact persistence. Failures are logged by callers, never propagated,
// so persistence success is decoupled from the UI side channel.
type Notifier interface {
	// Notify dispatches a named event.
	Notify(ctx context.Context, event string) error
}
