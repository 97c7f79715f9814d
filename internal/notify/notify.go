// Package notify delivers fatal diagnostics to an operator. Actual
// transport (email and the like) lives outside this system; the in-process
// implementation writes the diagnostic to the structured log so nothing is
// lost when no external channel is wired.
package notify

import (
	"context"

	"github.com/lorebind/lorebind/internal/observability"
)

// LogNotifier writes diagnostics to the context logger at error level.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify records the diagnostic. It never fails and never blocks.
func (n *LogNotifier) Notify(ctx context.Context, diagnostic string) {
	observability.FromContext(ctx).Error("operator notification",
		observability.String("diagnostic", diagnostic))
}
