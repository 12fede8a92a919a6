package fallback

import (
	"errors"
	"testing"

	"github.com/odvcencio/quill/pkg/session"
	"github.com/odvcencio/quill/pkg/storage"
)

func newTestProcessor(settings *stubSettings) (*IntentProcessor, *session.State) {
	state := session.NewState("test-session")
	return NewIntentProcessor(state, settings, "https://quill.dev/upgrade", nil), state
}

func TestProcessRetryAlways(t *testing.T) {
	settings := &stubSettings{}
	processor, state := newTestProcessor(settings)

	shouldContinue, err := processor.Process(IntentRetryAlways, "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !shouldContinue {
		t.Error("Process() = false, want continue")
	}

	override, ok := state.ActiveModelOverride()
	if !ok || override != "claude-haiku-4-5" {
		t.Errorf("ActiveModelOverride() = %q, %v; want fallback model override", override, ok)
	}
	if got := settings.values[storage.KeyPreferredFallback]; got != "claude-haiku-4-5" {
		t.Errorf("persisted preference = %q, want claude-haiku-4-5", got)
	}
}

func TestProcessRetryAlwaysPersistFailureIsBestEffort(t *testing.T) {
	processor, state := newTestProcessor(&stubSettings{err: errors.New("disk full")})

	shouldContinue, err := processor.Process(IntentRetryAlways, "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !shouldContinue {
		t.Error("Process() = false, want continue despite persistence failure")
	}
	if _, ok := state.ActiveModelOverride(); !ok {
		t.Error("session override should apply even when persistence fails")
	}
}

func TestProcessRetryOnce(t *testing.T) {
	processor, state := newTestProcessor(&stubSettings{})

	shouldContinue, err := processor.Process(IntentRetryOnce, "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !shouldContinue {
		t.Error("Process() = false, want continue")
	}
	if _, ok := state.ActiveModelOverride(); ok {
		t.Error("retry_once must not set a permanent override")
	}
}

func TestProcessStopIntents(t *testing.T) {
	for _, intent := range []Intent{IntentStop, IntentRetryLater, IntentAuth} {
		t.Run(string(intent), func(t *testing.T) {
			processor, state := newTestProcessor(&stubSettings{})

			shouldContinue, err := processor.Process(intent, "claude-haiku-4-5")
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if shouldContinue {
				t.Error("Process() = true, want stop")
			}
			if _, ok := state.ActiveModelOverride(); ok {
				t.Error("stop intents must not set an override")
			}
		})
	}
}

func TestProcessUpgradeOpensURL(t *testing.T) {
	processor, _ := newTestProcessor(&stubSettings{})

	var opened string
	processor.openURL = func(url string) error {
		opened = url
		return nil
	}

	shouldContinue, err := processor.Process(IntentUpgrade, "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if shouldContinue {
		t.Error("Process() = true, want stop after opening upgrade link")
	}
	if opened != "https://quill.dev/upgrade" {
		t.Errorf("opened URL = %q, want upgrade URL", opened)
	}
}

func TestProcessUpgradeOpenFailureIsNotFatal(t *testing.T) {
	processor, _ := newTestProcessor(&stubSettings{})
	processor.openURL = func(string) error { return errors.New("no browser") }

	shouldContinue, err := processor.Process(IntentUpgrade, "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if shouldContinue {
		t.Error("Process() = true, want stop")
	}
}

func TestProcessUnknownIntent(t *testing.T) {
	processor, _ := newTestProcessor(&stubSettings{})

	if _, err := processor.Process(Intent("escalate"), "claude-haiku-4-5"); err == nil {
		t.Fatal("Process() error = nil for unknown intent, want contract violation")
	}
}
