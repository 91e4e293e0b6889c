package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lumelodos/tomelate/internal/apperrors"
	"github.com/lumelodos/tomelate/internal/gemini"
)

func fastPolicy(maxAttempts int) retryPolicy {
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   time.Millisecond,
		maxDelay:    2 * time.Millisecond,
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	text, _, _, ok := fastPolicy(4).do(context.Background(), "transcribe", 7, func(ctx context.Context) (string, gemini.Usage, error) {
		calls++
		return "", gemini.Usage{}, apperrors.Transient(errors.New("boom"))
	})

	if ok {
		t.Fatal("expected permanent failure")
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	if !IsSentinel(text) {
		t.Fatalf("expected sentinel text, got %q", text)
	}
	if !strings.Contains(text, "page 7") {
		t.Fatalf("sentinel should name the page: %q", text)
	}
	if !strings.Contains(text, "after 4 attempts") {
		t.Fatalf("sentinel should name the attempt count: %q", text)
	}
}

func TestRetryPolicy_StopsOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"auth", apperrors.Auth(errors.New("denied"))},
		{"bad request", apperrors.BadRequest(errors.New("nope"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, _, _, ok := fastPolicy(5).do(context.Background(), "translate", 1, func(ctx context.Context) (string, gemini.Usage, error) {
				calls++
				return "", gemini.Usage{}, tt.err
			})
			if ok {
				t.Fatal("expected failure")
			}
			if calls != 1 {
				t.Fatalf("non-retryable error should stop after 1 attempt, got %d", calls)
			}
		})
	}
}

func TestRetryPolicy_UntypedErrorGetsAllAttempts(t *testing.T) {
	calls := 0
	text, _, _, ok := fastPolicy(3).do(context.Background(), "translate", 5, func(ctx context.Context) (string, gemini.Usage, error) {
		calls++
		return "", gemini.Usage{}, errors.New("plain failure")
	})

	if ok {
		t.Fatal("expected permanent failure")
	}
	if calls != 3 {
		t.Fatalf("unclassified error should use all 3 attempts, got %d", calls)
	}
	if !IsSentinel(text) || !strings.Contains(text, "page 5") {
		t.Fatalf("expected sentinel naming the page, got %q", text)
	}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	usage := gemini.Usage{InputTokens: 10, OutputTokens: 20}
	text, got, _, ok := fastPolicy(5).do(context.Background(), "transcribe", 2, func(ctx context.Context) (string, gemini.Usage, error) {
		calls++
		if calls < 3 {
			return "", gemini.Usage{}, apperrors.RateLimit(errors.New("slow down"))
		}
		return "recovered", usage, nil
	})

	if !ok {
		t.Fatal("expected eventual success")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if text != "recovered" || got != usage {
		t.Fatalf("unexpected result: %q %+v", text, got)
	}
}

func TestRetryPolicy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	text, _, _, ok := fastPolicy(5).do(ctx, "transcribe", 3, func(ctx context.Context) (string, gemini.Usage, error) {
		calls++
		return "", gemini.Usage{}, nil
	})

	if ok {
		t.Fatal("expected failure under cancelled context")
	}
	if calls != 0 {
		t.Fatalf("expected no attempts, got %d", calls)
	}
	if !IsSentinel(text) {
		t.Fatalf("expected sentinel text, got %q", text)
	}
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Error: could not transcribe page 1 after 5 attempts: boom", true},
		{"  Error: leading space", true},
		{"An Error: occurred mid-sentence", false},
		{"regular content", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSentinel(tt.text); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
