package auth

import (
	"os"
	"sync"

	quillerrors "github.com/odvcencio/quill/pkg/errors"
)

// Method identifies how requests to the hosted API are authenticated.
type Method string

const (
	// MethodOAuth is the primary subscription login.
	MethodOAuth Method = "oauth"
	// MethodAPIKey bills against a standalone API key.
	MethodAPIKey Method = "api-key"
	// MethodGateway routes through an alternate backend gateway.
	MethodGateway Method = "gateway"
)

// Auto-fallback types as persisted in settings (auto_fallback.type).
const (
	FallbackTypeSecondaryKey     = "secondary-key"
	FallbackTypeAlternateBackend = "alternate-backend"
)

// Environment variables carrying fallback credentials.
const (
	EnvFallbackAPIKey = "QUILL_API_KEY_FALLBACK"
	EnvGatewayURL     = "QUILL_GATEWAY_URL"
	EnvGatewayToken   = "QUILL_GATEWAY_TOKEN"
)

// MethodForFallbackType maps a persisted auto-fallback type to the auth
// method it switches to.
func MethodForFallbackType(fallbackType string) (Method, bool) {
	switch fallbackType {
	case FallbackTypeSecondaryKey:
		return MethodAPIKey, true
	case FallbackTypeAlternateBackend:
		return MethodGateway, true
	}
	return "", false
}

// requiredEnvVars lists the credential variables each fallback type needs.
var requiredEnvVars = map[string][]string{
	FallbackTypeSecondaryKey:     {EnvFallbackAPIKey},
	FallbackTypeAlternateBackend: {EnvGatewayURL, EnvGatewayToken},
}

// RequiredEnvVars returns the credential variables for a fallback type.
func RequiredEnvVars(fallbackType string) []string {
	return requiredEnvVars[fallbackType]
}

// Manager tracks the session's active authentication method.
type Manager struct {
	mu        sync.RWMutex
	active    Method
	lookupEnv func(string) (string, bool)
}

// NewManager creates a manager with the given starting method.
func NewManager(active Method) *Manager {
	return &Manager{active: active, lookupEnv: os.LookupEnv}
}

// Active returns the current authentication method.
func (m *Manager) Active() Method {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// HasCredentials reports whether every environment credential required by the
// fallback type is present and non-empty.
func (m *Manager) HasCredentials(fallbackType string) bool {
	vars, ok := requiredEnvVars[fallbackType]
	if !ok {
		return false
	}
	for _, name := range vars {
		value, found := m.lookupEnv(name)
		if !found || value == "" {
			return false
		}
	}
	return true
}

// SwitchForFallback switches the active method to the one implied by the
// fallback type. The caller is expected to have checked HasCredentials first;
// switching without credentials is an error.
func (m *Manager) SwitchForFallback(fallbackType string) (Method, error) {
	method, ok := MethodForFallbackType(fallbackType)
	if !ok {
		return "", quillerrors.New(quillerrors.ErrCodeInvalidInput, "unknown auto-fallback type").
			WithContext("type", fallbackType)
	}
	if !m.HasCredentials(fallbackType) {
		return "", quillerrors.New(quillerrors.ErrCodeAuthMissing, "missing fallback credentials").
			WithContext("type", fallbackType)
	}

	m.mu.Lock()
	m.active = method
	m.mu.Unlock()
	return method, nil
}
