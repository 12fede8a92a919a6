package fallback

import (
	"errors"
	"testing"

	"github.com/odvcencio/quill/pkg/auth"
	"github.com/odvcencio/quill/pkg/storage"
)

type stubSettings struct {
	values map[string]string
	err    error
}

func (s *stubSettings) GetValue(key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubSettings) SetValue(scope storage.Scope, key, value string) error {
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

type stubSwitcher struct {
	hasCredentials bool
	switchErr      error
	switchedTo     string
}

func (s *stubSwitcher) HasCredentials(fallbackType string) bool {
	return s.hasCredentials
}

func (s *stubSwitcher) SwitchForFallback(fallbackType string) (auth.Method, error) {
	if s.switchErr != nil {
		return "", s.switchErr
	}
	s.switchedTo = fallbackType
	method, _ := auth.MethodForFallbackType(fallbackType)
	return method, nil
}

func autoSettings(enabled bool, fallbackType string) *stubSettings {
	values := map[string]string{}
	if enabled {
		values[storage.KeyAutoFallbackEnabled] = "true"
	}
	if fallbackType != "" {
		values[storage.KeyAutoFallbackType] = fallbackType
	}
	return &stubSettings{values: values}
}

func TestAutoFallbackResolve(t *testing.T) {
	tests := []struct {
		name       string
		authType   auth.Method
		settings   *stubSettings
		switcher   *stubSwitcher
		wantStatus AutoStatus
	}{
		{
			name:       "non-oauth session never attempts",
			authType:   auth.MethodAPIKey,
			settings:   autoSettings(true, auth.FallbackTypeSecondaryKey),
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "disabled setting",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(false, auth.FallbackTypeSecondaryKey),
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "enabled without type",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(true, ""),
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "unknown fallback type",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(true, "carrier-pigeon"),
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "unreadable settings",
			authType:   auth.MethodOAuth,
			settings:   &stubSettings{err: errors.New("db locked")},
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "missing credentials",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(true, auth.FallbackTypeSecondaryKey),
			switcher:   &stubSwitcher{hasCredentials: false},
			wantStatus: AutoMissingEnv,
		},
		{
			name:       "switch failure swallowed",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(true, auth.FallbackTypeSecondaryKey),
			switcher:   &stubSwitcher{hasCredentials: true, switchErr: errors.New("boom")},
			wantStatus: AutoNotAttempted,
		},
		{
			name:       "successful switch",
			authType:   auth.MethodOAuth,
			settings:   autoSettings(true, auth.FallbackTypeSecondaryKey),
			switcher:   &stubSwitcher{hasCredentials: true},
			wantStatus: AutoSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewAutoFallbackResolver(tt.settings, tt.switcher, nil)

			got := resolver.Resolve(tt.authType)
			if got.Status != tt.wantStatus {
				t.Errorf("Resolve() status = %q, want %q", got.Status, tt.wantStatus)
			}
			if tt.wantStatus == AutoSuccess && got.AuthType != auth.MethodAPIKey {
				t.Errorf("Resolve() authType = %q, want api-key", got.AuthType)
			}
		})
	}
}

func TestAutoFallbackStatusComputedFresh(t *testing.T) {
	settings := autoSettings(true, auth.FallbackTypeSecondaryKey)
	switcher := &stubSwitcher{hasCredentials: false}
	resolver := NewAutoFallbackResolver(settings, switcher, nil)

	if got := resolver.Resolve(auth.MethodOAuth); got.Status != AutoMissingEnv {
		t.Fatalf("Resolve() status = %q, want missing-env-vars", got.Status)
	}

	// Credentials appearing between failures change the outcome.
	switcher.hasCredentials = true
	if got := resolver.Resolve(auth.MethodOAuth); got.Status != AutoSuccess {
		t.Fatalf("Resolve() status = %q, want success", got.Status)
	}
}
