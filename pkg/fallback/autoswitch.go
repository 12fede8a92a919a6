package fallback

import (
	"github.com/odvcencio/quill/pkg/auth"
	"github.com/odvcencio/quill/pkg/logging"
	"github.com/odvcencio/quill/pkg/storage"
)

// AutoStatus reports the outcome of the automatic auth-switch attempt.
type AutoStatus string

const (
	AutoNotAttempted AutoStatus = "not-attempted"
	AutoSuccess      AutoStatus = "success"
	AutoMissingEnv   AutoStatus = "missing-env-vars"
)

// AutoFallbackStatus is computed fresh on every fallback call.
type AutoFallbackStatus struct {
	Status   AutoStatus
	AuthType auth.Method // set only on success
}

// SettingsReader is the subset of the settings store the resolver needs.
type SettingsReader interface {
	GetValue(key string) (string, bool, error)
}

// AuthSwitcher switches the active authentication method.
type AuthSwitcher interface {
	HasCredentials(fallbackType string) bool
	SwitchForFallback(fallbackType string) (auth.Method, error)
}

// AutoFallbackResolver attempts the configured automatic authentication
// switch before any interactive prompt.
type AutoFallbackResolver struct {
	settings SettingsReader
	switcher AuthSwitcher
	logger   *logging.Logger
}

// NewAutoFallbackResolver creates a resolver.
func NewAutoFallbackResolver(settings SettingsReader, switcher AuthSwitcher, logger *logging.Logger) *AutoFallbackResolver {
	return &AutoFallbackResolver{settings: settings, switcher: switcher, logger: logger}
}

// Resolve runs the auto-fallback attempt for one failure. Only sessions on
// the primary (OAuth) method are eligible. A switch error is swallowed and
// reported as not-attempted; the normal fallback path continues.
func (r *AutoFallbackResolver) Resolve(authType auth.Method) AutoFallbackStatus {
	if r == nil || authType != auth.MethodOAuth {
		return AutoFallbackStatus{Status: AutoNotAttempted}
	}

	enabled, fallbackType := r.preference()
	if !enabled {
		return AutoFallbackStatus{Status: AutoNotAttempted}
	}

	if !r.switcher.HasCredentials(fallbackType) {
		return AutoFallbackStatus{Status: AutoMissingEnv}
	}

	method, err := r.switcher.SwitchForFallback(fallbackType)
	if err != nil {
		r.logger.Warn(logging.CategoryAuth, "auth.auto_switch_failed",
			"automatic auth switch failed", map[string]any{
				"type":  fallbackType,
				"error": err.Error(),
			})
		return AutoFallbackStatus{Status: AutoNotAttempted}
	}

	r.logger.Info(logging.CategoryAuth, "auth.auto_switch",
		"switched authentication automatically", map[string]any{
			"type":   fallbackType,
			"method": string(method),
		})
	return AutoFallbackStatus{Status: AutoSuccess, AuthType: method}
}

// preference reads the persisted auto-fallback setting. Unreadable settings
// mean disabled.
func (r *AutoFallbackResolver) preference() (bool, string) {
	if r.settings == nil {
		return false, ""
	}

	enabled, ok, err := r.settings.GetValue(storage.KeyAutoFallbackEnabled)
	if err != nil || !ok || enabled != "true" {
		return false, ""
	}

	fallbackType, ok, err := r.settings.GetValue(storage.KeyAutoFallbackType)
	if err != nil || !ok {
		return false, ""
	}
	if _, valid := auth.MethodForFallbackType(fallbackType); !valid {
		return false, ""
	}
	return true, fallbackType
}
