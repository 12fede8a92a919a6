package fallback

import (
	"sync"
	"time"
)

// AvailabilityStatus describes whether a model is currently usable.
type AvailabilityStatus int

const (
	// StatusAvailable allows requests to the model.
	StatusAvailable AvailabilityStatus = iota
	// StatusUnavailableUntil blocks the model until its reset time.
	StatusUnavailableUntil
)

// String returns the string representation of the availability status
func (s AvailabilityStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusUnavailableUntil:
		return "unavailable-until"
	default:
		return "unknown"
	}
}

// availabilityState tracks one model. Created lazily on first reference.
type availabilityState struct {
	status  AvailabilityStatus
	resetAt time.Time
}

// AvailabilityService tracks per-model availability. Reset times are checked
// lazily on query, not via a timer.
type AvailabilityService struct {
	mu     sync.Mutex
	states map[string]*availabilityState
	now    func() time.Time
}

// NewAvailabilityService creates an availability service.
func NewAvailabilityService() *AvailabilityService {
	return &AvailabilityService{
		states: make(map[string]*availabilityState),
		now:    time.Now,
	}
}

// SelectFirstAvailable returns the first candidate whose state is available,
// flipping any state whose reset time has elapsed back to available. Returns
// ok=false when every candidate is unavailable.
func (a *AvailabilityService) SelectFirstAvailable(candidates []string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, model := range candidates {
		if a.availableLocked(model) {
			return model, true
		}
	}
	return "", false
}

// availableLocked reports whether a model is usable, lazily resetting elapsed
// unavailability. Must be called with the lock held.
func (a *AvailabilityService) availableLocked(model string) bool {
	state, ok := a.states[model]
	if !ok {
		return true
	}
	if state.status == StatusUnavailableUntil && !a.now().Before(state.resetAt) {
		state.status = StatusAvailable
		state.resetAt = time.Time{}
	}
	return state.status == StatusAvailable
}

// ApplyTransition applies the availability consequence of a failure to the
// policy's model. Only terminal quota exhaustion produces a transition; every
// other kind leaves state untouched. Idempotent for repeated identical input.
func (a *AvailabilityService) ApplyTransition(c Classification, policy FallbackPolicy) {
	if c.Kind != FailureTerminalQuota || c.ResetAt.IsZero() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state, ok := a.states[policy.Model]
	if !ok {
		state = &availabilityState{}
		a.states[policy.Model] = state
	}
	state.status = StatusUnavailableUntil
	state.resetAt = c.ResetAt
}

// StatusOf returns the current status and reset time for a model, applying
// the same lazy reset as selection.
func (a *AvailabilityService) StatusOf(model string) (AvailabilityStatus, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.availableLocked(model)
	state, ok := a.states[model]
	if !ok {
		return StatusAvailable, time.Time{}
	}
	return state.status, state.resetAt
}
