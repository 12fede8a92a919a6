package fallback

import (
	"context"
	"sync"

	"github.com/google/uuid"

	quillerrors "github.com/odvcencio/quill/pkg/errors"
)

// promptOutcome carries the resolution of a pending request.
type promptOutcome struct {
	intent Intent
	err    error
}

// PendingRequest is the single outstanding interactive fallback decision.
type PendingRequest struct {
	ID            string
	FailedModel   string
	FallbackModel string

	once sync.Once
	done chan promptOutcome
}

// Resolve completes the request with the chosen intent. Safe to call more
// than once; only the first call wins.
func (p *PendingRequest) Resolve(intent Intent) {
	p.once.Do(func() {
		p.done <- promptOutcome{intent: intent}
	})
}

// Fail completes the request with a prompter error.
func (p *PendingRequest) Fail(err error) {
	p.once.Do(func() {
		p.done <- promptOutcome{err: err}
	})
}

// DecisionGate holds at most one outstanding interactive fallback request.
// The pending flag is the sole concurrency guard: a failure arriving while a
// request is outstanding is answered with stop, never queued.
type DecisionGate struct {
	mu      sync.Mutex
	pending *PendingRequest
}

// NewDecisionGate creates a gate in the idle state.
func NewDecisionGate() *DecisionGate {
	return &DecisionGate{}
}

// Pending reports whether a request is outstanding.
func (g *DecisionGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Begin transitions the gate to awaiting-choice. Returns ok=false without
// creating a request when one is already outstanding.
func (g *DecisionGate) Begin(failedModel, fallbackModel string) (*PendingRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		return nil, false
	}

	req := &PendingRequest{
		ID:            uuid.NewString(),
		FailedModel:   failedModel,
		FallbackModel: fallbackModel,
		done:          make(chan promptOutcome, 1),
	}
	g.pending = req
	return req, true
}

// Wait blocks until the request resolves or the context is canceled, then
// returns the gate to idle. A canceled context clears the pending request so
// the session can recover.
func (g *DecisionGate) Wait(ctx context.Context, req *PendingRequest) (Intent, error) {
	defer g.clear(req)

	select {
	case outcome := <-req.done:
		if outcome.err != nil {
			return "", outcome.err
		}
		return outcome.intent, nil
	case <-ctx.Done():
		return "", quillerrors.Wrap(ctx.Err(), quillerrors.ErrCodeInternal,
			"canceled while awaiting fallback choice")
	}
}

func (g *DecisionGate) clear(req *PendingRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == req {
		g.pending = nil
	}
}
