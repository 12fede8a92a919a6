package fallback

import (
	"errors"
	"testing"
	"time"

	quillerrors "github.com/odvcencio/quill/pkg/errors"
)

func TestClassifyTypedErrors(t *testing.T) {
	resetAt := time.Now().Add(4 * time.Hour)

	tests := []struct {
		name        string
		err         error
		wantKind    FailureKind
		wantResetAt bool
	}{
		{
			name: "quota exhausted with reset time",
			err: quillerrors.New(quillerrors.ErrCodeModelQuotaExhausted, "quota exhausted").
				WithResetAt(resetAt),
			wantKind:    FailureTerminalQuota,
			wantResetAt: true,
		},
		{
			name:     "quota exhausted without reset time",
			err:      quillerrors.New(quillerrors.ErrCodeModelQuotaExhausted, "quota exhausted"),
			wantKind: FailureRetryableQuota,
		},
		{
			name:     "rate limit",
			err:      quillerrors.New(quillerrors.ErrCodeModelRateLimit, "slow down"),
			wantKind: FailureRetryableQuota,
		},
		{
			name:     "overloaded",
			err:      quillerrors.New(quillerrors.ErrCodeModelOverloaded, "overloaded"),
			wantKind: FailureCapacity,
		},
		{
			name:     "nil error",
			err:      nil,
			wantKind: FailureCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantResetAt {
				if !got.ResetAt.Equal(resetAt) {
					t.Errorf("Classify() resetAt = %v, want %v", got.ResetAt, resetAt)
				}
			} else if !got.ResetAt.IsZero() {
				t.Errorf("Classify() resetAt = %v, want zero", got.ResetAt)
			}
		})
	}
}

func TestClassifyMessageSniffing(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantKind FailureKind
	}{
		{"quota with reset duration", "quota exhausted, resets in 4h30m", FailureTerminalQuota},
		{"quota with millisecond reset", "quota exceeded, resets in 300ms", FailureTerminalQuota},
		{"usage limit with reset duration", "usage limit reached, reset in 30m", FailureTerminalQuota},
		{"quota without reset duration", "monthly quota exceeded", FailureRetryableQuota},
		{"usage limit without duration", "usage limit reached", FailureRetryableQuota},
		{"rate limit", "rate limit exceeded, retry shortly", FailureRetryableQuota},
		{"too many requests", "429 too many requests", FailureRetryableQuota},
		{"server overload", "internal server error", FailureCapacity},
		{"connection refused", "connection refused", FailureCapacity},
		{"quota with malformed duration", "quota exceeded, resets in soonish", FailureRetryableQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(errors.New(tt.message))
			if got.Kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %v, want %v", tt.message, got.Kind, tt.wantKind)
			}
		})
	}
}

func TestClassifyParsesResetDuration(t *testing.T) {
	before := time.Now()
	got := Classify(errors.New("usage limit reached, resets in 2h"))
	after := time.Now()

	if got.Kind != FailureTerminalQuota {
		t.Fatalf("Classify() kind = %v, want %v", got.Kind, FailureTerminalQuota)
	}
	if got.ResetAt.Before(before.Add(2*time.Hour)) || got.ResetAt.After(after.Add(2*time.Hour)) {
		t.Errorf("Classify() resetAt = %v, want roughly 2h from now", got.ResetAt)
	}
}

func TestClassifyMillisecondResetStaysSubSecond(t *testing.T) {
	before := time.Now()
	got := Classify(errors.New("quota exceeded, resets in 300ms"))
	after := time.Now()

	if got.Kind != FailureTerminalQuota {
		t.Fatalf("Classify() kind = %v, want %v", got.Kind, FailureTerminalQuota)
	}
	// "300ms" must parse as milliseconds, not be truncated to 300 minutes.
	if got.ResetAt.Before(before.Add(300*time.Millisecond)) || got.ResetAt.After(after.Add(time.Second)) {
		t.Errorf("Classify() resetAt = %v, want roughly 300ms from now", got.ResetAt)
	}
}

func TestFailureKindIsQuota(t *testing.T) {
	if FailureCapacity.IsQuota() {
		t.Error("capacity should not be a quota failure")
	}
	if !FailureRetryableQuota.IsQuota() {
		t.Error("retryable quota should be a quota failure")
	}
	if !FailureTerminalQuota.IsQuota() {
		t.Error("terminal quota should be a quota failure")
	}
}
