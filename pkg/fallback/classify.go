package fallback

import (
	"regexp"
	"strings"
	"time"

	quillerrors "github.com/odvcencio/quill/pkg/errors"
)

// FailureKind classifies a failed model call.
type FailureKind int

const (
	// FailureCapacity is the default: generic overload or server error.
	FailureCapacity FailureKind = iota
	// FailureRetryableQuota is a transient quota/backoff condition.
	FailureRetryableQuota
	// FailureTerminalQuota is hard quota exhaustion with a known reset time.
	FailureTerminalQuota
)

// String returns the string representation of the failure kind
func (k FailureKind) String() string {
	switch k {
	case FailureCapacity:
		return "capacity"
	case FailureRetryableQuota:
		return "retryable_quota"
	case FailureTerminalQuota:
		return "terminal_quota"
	default:
		return "unknown"
	}
}

// IsQuota reports whether the kind is one of the quota failures.
func (k FailureKind) IsQuota() bool {
	return k == FailureRetryableQuota || k == FailureTerminalQuota
}

// Classification is the result of classifying a failure. ResetAt is set only
// for FailureTerminalQuota.
type Classification struct {
	Kind    FailureKind
	ResetAt time.Time
}

// resetsInPattern matches reset durations embedded in API error text, e.g.
// "quota exhausted, resets in 4h30m".
// Longer unit names first: alternation is first-match, so "m" before "ms"
// would cut "300ms" down to "300m".
var resetsInPattern = regexp.MustCompile(`resets? in ([0-9]+(?:\.[0-9]+)?(?:ms|h|m|s)(?:[0-9]+(?:\.[0-9]+)?(?:ms|h|m|s))*)`)

// Classify maps a raw error to a FailureKind. It never panics and never
// fails: anything unrecognized is FailureCapacity so the orchestrator can
// always proceed.
func Classify(err error) (c Classification) {
	defer func() {
		// A malformed error value must still classify as capacity.
		if recover() != nil {
			c = Classification{Kind: FailureCapacity}
		}
	}()

	if err == nil {
		return Classification{Kind: FailureCapacity}
	}

	switch quillerrors.GetCode(err) {
	case quillerrors.ErrCodeModelQuotaExhausted:
		if resetAt, ok := quillerrors.GetResetAt(err); ok {
			return Classification{Kind: FailureTerminalQuota, ResetAt: resetAt}
		}
		return Classification{Kind: FailureRetryableQuota}
	case quillerrors.ErrCodeModelRateLimit:
		return Classification{Kind: FailureRetryableQuota}
	}

	return classifyMessage(err.Error())
}

// classifyMessage recognizes quota markers in raw API error text.
func classifyMessage(msg string) Classification {
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "quota") || strings.Contains(lower, "usage limit") {
		if match := resetsInPattern.FindStringSubmatch(lower); match != nil {
			if d, err := time.ParseDuration(match[1]); err == nil && d > 0 {
				return Classification{Kind: FailureTerminalQuota, ResetAt: time.Now().Add(d)}
			}
		}
		return Classification{Kind: FailureRetryableQuota}
	}

	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests") {
		return Classification{Kind: FailureRetryableQuota}
	}

	return Classification{Kind: FailureCapacity}
}
