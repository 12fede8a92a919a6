package session

import "sync"

// State holds the per-session fallback state shared between the fallback
// orchestrator (sole writer) and the request-building code (readers).
type State struct {
	mu                 sync.RWMutex
	id                 string
	inFallbackMode     bool
	activeOverride     string
	quotaErrorOccurred bool
}

// NewState creates session state with the given session ID.
func NewState(id string) *State {
	return &State{id: id}
}

// ID returns the session identifier.
func (s *State) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// InFallbackMode reports whether the session has switched to a fallback model.
func (s *State) InFallbackMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFallbackMode
}

// ActiveModelOverride returns the session-wide model override, if any.
func (s *State) ActiveModelOverride() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeOverride, s.activeOverride != ""
}

// QuotaErrorOccurred reports whether a quota failure has been seen this session.
func (s *State) QuotaErrorOccurred() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotaErrorOccurred
}

// ActivateFallback switches the session to the given fallback model for the
// rest of the session.
func (s *State) ActivateFallback(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFallbackMode = true
	s.activeOverride = model
}

// MarkQuotaError records that a quota failure occurred this session.
func (s *State) MarkQuotaError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotaErrorOccurred = true
}

// ClearOverride removes the session model override and leaves fallback mode.
func (s *State) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFallbackMode = false
	s.activeOverride = ""
}
