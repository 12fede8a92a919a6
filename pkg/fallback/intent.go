package fallback

import (
	"github.com/odvcencio/quill/pkg/browser"
	quillerrors "github.com/odvcencio/quill/pkg/errors"
	"github.com/odvcencio/quill/pkg/logging"
	"github.com/odvcencio/quill/pkg/session"
	"github.com/odvcencio/quill/pkg/storage"
)

// Intent is the decision, manual or automatic, governing whether and how to
// retry after a failure.
type Intent string

const (
	// IntentNone means the prompter declined to choose; no fallback applies.
	IntentNone Intent = ""

	IntentRetryOnce   Intent = "retry_once"
	IntentRetryAlways Intent = "retry_always"
	IntentRetryLater  Intent = "retry_later"
	IntentStop        Intent = "stop"
	IntentUpgrade     Intent = "upgrade"
	IntentAuth        Intent = "auth"
)

// Valid reports whether the intent is one of the enumerated decisions.
func (i Intent) Valid() bool {
	switch i {
	case IntentRetryOnce, IntentRetryAlways, IntentRetryLater, IntentStop, IntentUpgrade, IntentAuth:
		return true
	}
	return false
}

// IsRetry reports whether the intent asks for the request to be retried.
func (i Intent) IsRetry() bool {
	return i == IntentRetryOnce || i == IntentRetryAlways
}

// SettingsWriter persists the fallback preference chosen by the user.
type SettingsWriter interface {
	SetValue(scope storage.Scope, key, value string) error
}

// IntentProcessor applies the session-level side effects of a resolved
// intent. It is the only writer of the session fallback state.
type IntentProcessor struct {
	state      *session.State
	settings   SettingsWriter
	upgradeURL string
	openURL    func(string) error
	logger     *logging.Logger
}

// NewIntentProcessor creates a processor.
func NewIntentProcessor(state *session.State, settings SettingsWriter, upgradeURL string, logger *logging.Logger) *IntentProcessor {
	return &IntentProcessor{
		state:      state,
		settings:   settings,
		upgradeURL: upgradeURL,
		openURL:    browser.OpenURL,
		logger:     logger,
	}
}

// Process interprets the intent and reports whether the caller should keep
// retrying. An intent outside the enumerated set is a contract violation
// between the prompter and the orchestrator and returns an error rather than
// silently proceeding.
func (p *IntentProcessor) Process(intent Intent, fallbackModel string) (bool, error) {
	switch intent {
	case IntentRetryAlways:
		p.state.ActivateFallback(fallbackModel)
		p.persistPreference(fallbackModel)
		return true, nil

	case IntentRetryOnce:
		// No permanent override; availability state governs routing.
		return true, nil

	case IntentStop, IntentRetryLater:
		return false, nil

	case IntentUpgrade:
		if err := p.openURL(p.upgradeURL); err != nil {
			p.logger.Warn(logging.CategoryFallback, "fallback.upgrade_open_failed",
				"could not open upgrade link", map[string]any{
					"url":   p.upgradeURL,
					"error": err.Error(),
				})
		}
		return false, nil

	case IntentAuth:
		// Caller transitions to the re-authentication flow.
		return false, nil
	}

	return false, quillerrors.New(quillerrors.ErrCodeInternal, "unrecognized fallback intent").
		WithContext("intent", string(intent))
}

// persistPreference records the "always fall back to X" choice. Best effort:
// a write failure is logged and the session-level override still applies.
func (p *IntentProcessor) persistPreference(fallbackModel string) {
	if p.settings == nil {
		return
	}
	if err := p.settings.SetValue(storage.ScopeUser, storage.KeyPreferredFallback, fallbackModel); err != nil {
		p.logger.Warn(logging.CategorySettings, "settings.write_failed",
			"could not persist fallback preference", map[string]any{
				"model": fallbackModel,
				"error": err.Error(),
			})
	}
}
