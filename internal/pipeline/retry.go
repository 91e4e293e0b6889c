package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lumelodos/tomelate/internal/apperrors"
	"github.com/lumelodos/tomelate/internal/gemini"
	"github.com/lumelodos/tomelate/internal/logger"
)

// sentinelPrefix marks artifact text that stands in for permanently failed
// content. The sentinel flows downstream as ordinary text so later stages and
// the compiler treat failed pages as first-class, visible data.
const sentinelPrefix = "Error:"

// IsSentinel reports whether stage text represents a permanent page failure.
func IsSentinel(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), sentinelPrefix)
}

// retryPolicy wraps a single transformation call with bounded attempts.
// Exhaustion degrades to sentinel text instead of an error: one bad page must
// never block the rest of the job.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      time.Duration
}

func newRetryPolicy(maxAttempts int) retryPolicy {
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		maxDelay:    20 * time.Second,
		jitter:      time.Second,
	}
}

type transformCall func(ctx context.Context) (string, gemini.Usage, error)

// do runs the call with retries. On success it returns the text, reported
// usage, elapsed time, and ok=true. After the last failed attempt it returns
// sentinel text embedding the page number and last cause, with ok=false.
func (p retryPolicy) do(ctx context.Context, op string, page int, call transformCall) (string, gemini.Usage, time.Duration, bool) {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		logger.Info("Calling transformation service", "op", op, "page", page, "attempt", attempt, "max_attempts", p.maxAttempts)
		text, usage, err := call(ctx)
		if err == nil {
			return text, usage, time.Since(start), true
		}
		lastErr = err
		logger.Error("Transformation attempt failed", "op", op, "page", page, "attempt", attempt, "error", err)

		if !p.shouldRetry(err, attempt) {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(p.backoff(err, attempt)):
		}
	}

	logger.Error("Page failed permanently", "op", op, "page", page, "error", lastErr)
	return sentinelText(op, page, p.maxAttempts, lastErr), gemini.Usage{}, time.Since(start), false
}

func (p retryPolicy) shouldRetry(err error, attempt int) bool {
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := apperrors.KindOf(err); ok {
		return apperrors.IsRetryable(err)
	}
	// Unclassified failures retry like transient ones; only errors classified
	// as permanent (auth, bad request) give up early.
	return true
}

func (p retryPolicy) backoff(err error, attempt int) time.Duration {
	delay := p.baseDelay << (attempt - 1)
	if apperrors.IsRateLimit(err) {
		delay *= 2
	}
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	if p.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.jitter)))
	}
	return delay
}

func sentinelText(op string, page, attempts int, cause error) string {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return fmt.Sprintf("%s could not %s page %d after %d attempts: %s", sentinelPrefix, op, page, attempts, msg)
}
