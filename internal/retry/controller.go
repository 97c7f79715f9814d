package retry

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
)

// Controller is the bounded state machine around a chain of completion
// calls. It never re-invokes the failed operation itself: Handle returns an
// updated attempt count and the caller re-issues the call, so stack depth
// stays flat regardless of the retry ceiling.
type Controller struct {
	classifier  *Classifier
	notifier    domain.Notifier
	maxAttempts int
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller with the given retry ceiling. notifier
// may be nil, in which case fatal diagnostics are only logged.
func NewController(classifier *Classifier, notifier domain.Notifier, maxAttempts int) *Controller {
	return &Controller{
		classifier:  classifier,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Handle classifies err and advances the retry state machine. For a
// resolvable failure below the ceiling it sleeps the backoff and returns the
// incremented attempt count with a nil error. For an unresolvable failure or
// an exhausted budget it captures a diagnostic snapshot, notifies the
// operator, and returns a *domain.FatalError; the process exit itself is the
// top-level driver's job.
func (c *Controller) Handle(ctx context.Context, err error, attempt int) (int, error) {
	logger := observability.FromContext(ctx)

	if c.classifier.Classify(err) == ClassUnresolvable {
		return attempt, c.fatal(ctx, domain.FatalUnresolvable, err, attempt)
	}

	logger.Error("resolvable provider failure",
		observability.Int("attempt", attempt),
		observability.Error(err))

	attempt++
	if attempt >= c.maxAttempts {
		return attempt, c.fatal(ctx, domain.FatalExhausted, err, attempt)
	}

	// Backoff in seconds: (maxAttempts - attempt) + attempt^2. The linear
	// term shrinks as the quadratic one grows; do not "fix" the shape
	// without confirming intent.
	backoff := time.Duration((c.maxAttempts-attempt)+attempt*attempt) * time.Second

	logger.Warn("retrying after backoff",
		observability.Int("attempt", attempt),
		observability.Duration("backoff", backoff))

	if sleepErr := c.sleep(ctx, backoff); sleepErr != nil {
		return attempt, sleepErr
	}

	return attempt, nil
}

func (c *Controller) fatal(ctx context.Context, reason domain.FatalReason, cause error, attempt int) error {
	now := c.now()
	diagnostic := fmt.Sprintf(
		"fatal completion failure: reason=%s attempts=%d time=%s model=%s provider=%s request_id=%s error=%v\nstack trace:\n%s",
		reason,
		attempt,
		now.UTC().Format(time.RFC3339),
		observability.GetModel(ctx),
		observability.GetProvider(ctx),
		observability.GetRequestID(ctx),
		cause,
		debug.Stack(),
	)

	observability.FromContext(ctx).Error("request chain is fatal",
		observability.String("reason", string(reason)),
		observability.Int("attempts", attempt),
		observability.Error(cause))

	if c.notifier != nil {
		c.notifier.Notify(ctx, diagnostic)
	}

	return &domain.FatalError{
		Reason:     reason,
		Cause:      cause,
		Diagnostic: diagnostic,
		Attempts:   attempt,
		Timestamp:  now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
