package fallback

import (
	"context"

	"github.com/odvcencio/quill/pkg/auth"
	"github.com/odvcencio/quill/pkg/config"
	"github.com/odvcencio/quill/pkg/logging"
	"github.com/odvcencio/quill/pkg/observability"
	"github.com/odvcencio/quill/pkg/session"
	"github.com/odvcencio/quill/pkg/telemetry"
)

// Verdict is the orchestrator's answer to the retry loop. VerdictNone means
// fallback does not apply and the original failure propagates unchanged.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictRetry
	VerdictStop
)

// String returns the string representation of the verdict
func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictRetry:
		return "retry"
	case VerdictStop:
		return "stop"
	default:
		return "unknown"
	}
}

// PromptRequest is handed to the prompter when an interactive decision is
// needed.
type PromptRequest struct {
	FailedModel   string
	FallbackModel string
	Failure       Classification
	Cause         error
	AutoFallback  AutoFallbackStatus
}

// Prompter renders a fallback chooser and returns the user's intent.
// Returning IntentNone declines the fallback entirely.
type Prompter interface {
	PromptFallback(ctx context.Context, req PromptRequest) (Intent, error)
}

// SettingsStore is the settings surface the orchestrator depends on.
type SettingsStore interface {
	SettingsReader
	SettingsWriter
}

// Orchestrator coordinates failure classification, candidate selection, the
// automatic auth switch, and the single interactive decision per session.
type Orchestrator struct {
	cfg          *config.Config
	state        *session.State
	availability *AvailabilityService
	resolver     *AutoFallbackResolver
	gate         *DecisionGate
	processor    *IntentProcessor
	prompter     Prompter
	logger       *logging.Logger
	hub          *telemetry.Hub
}

// NewOrchestrator creates a fallback orchestrator for one session. The
// prompter is fixed at construction; passing nil degrades every
// prompt-requiring path to VerdictNone.
func NewOrchestrator(cfg *config.Config, state *session.State, settings SettingsStore, switcher AuthSwitcher, prompter Prompter, logger *logging.Logger, hub *telemetry.Hub) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		state:        state,
		availability: NewAvailabilityService(),
		resolver:     NewAutoFallbackResolver(settings, switcher, logger),
		gate:         NewDecisionGate(),
		processor:    NewIntentProcessor(state, settings, cfg.Fallback.UpgradeURL, logger),
		prompter:     prompter,
		logger:       logger,
		hub:          hub,
	}
}

// Availability exposes the availability service for request routing.
func (o *Orchestrator) Availability() *AvailabilityService {
	return o.availability
}

// HandleFallback is invoked by the retry loop once per failed model call.
// VerdictRetry means retry now, VerdictStop means stop retrying, and
// VerdictNone means no fallback applies.
func (o *Orchestrator) HandleFallback(ctx context.Context, failedModel string, authType auth.Method, cause error) Verdict {
	ctx, span := observability.StartSpan(ctx, "fallback.handle")
	defer span.End()
	observability.SetAttributes(ctx,
		observability.AttrFailedModel.String(failedModel),
		observability.AttrSessionID.String(o.state.ID()),
	)

	class := Classify(cause)
	recordClassification(class.Kind)
	observability.SetAttributes(ctx, observability.AttrFailureKind.String(class.Kind.String()))
	o.publish(telemetry.EventFallbackClassified, map[string]any{
		"failed_model": failedModel,
		"kind":         class.Kind.String(),
	})
	o.logger.Info(logging.CategoryFallback, "fallback.classified", "classified model failure", map[string]any{
		"failed_model": failedModel,
		"kind":         class.Kind.String(),
	})

	if class.Kind.IsQuota() {
		o.state.MarkQuotaError()
	}

	// Fallback only applies to sessions on the primary auth method.
	if authType != auth.MethodOAuth {
		return o.finish(ctx, VerdictNone, "wrong auth type")
	}

	// A failure arriving while a prompt is outstanding is answered with stop
	// without touching the pending request.
	if o.gate.Pending() {
		return o.finish(ctx, VerdictStop, "decision already pending")
	}

	policyCtx, ok := BuildPolicyContext(o.cfg.Fallback.Chain, failedModel)
	if !ok {
		return o.finish(ctx, VerdictNone, "empty fallback chain")
	}

	autoStatus := o.resolver.Resolve(authType)
	recordAutoSwitch(autoStatus.Status)
	observability.SetAttributes(ctx, observability.AttrAutoStatus.String(string(autoStatus.Status)))
	if autoStatus.Status != AutoNotAttempted {
		o.publish(telemetry.EventFallbackAutoSwitch, map[string]any{
			"status": string(autoStatus.Status),
		})
	}

	if autoStatus.Status == AutoSuccess {
		// The auth switch already fixed the failure; the prompt only reports
		// success and drives a retry. No model change.
		return o.promptAndProcess(ctx, class, policyCtx, failedModel, failedModel, autoStatus, cause)
	}

	fallbackModel := o.selectFallbackModel(policyCtx)
	if fallbackModel == "" || fallbackModel == failedModel {
		return o.finish(ctx, VerdictNone, "no replacement model")
	}

	if policy, ok := policyCtx.PolicyFor(fallbackModel); ok && policy.Action == config.ActionSilent {
		o.availability.ApplyTransition(class, policyCtx.FailedPolicy)
		o.state.ActivateFallback(fallbackModel)
		recordSilentFallback()
		o.publish(telemetry.EventFallbackSilent, map[string]any{
			"failed_model":   failedModel,
			"fallback_model": fallbackModel,
		})
		o.logger.Info(logging.CategoryFallback, "fallback.silent", "switched model silently", map[string]any{
			"failed_model":   failedModel,
			"fallback_model": fallbackModel,
		})
		return o.finish(ctx, VerdictRetry, "silent fallback")
	}

	return o.promptAndProcess(ctx, class, policyCtx, failedModel, fallbackModel, autoStatus, cause)
}

// selectFallbackModel picks the first available candidate, falling back to
// the chain's last resort when every candidate is unavailable. Empty when the
// chain offers no replacement at all.
func (o *Orchestrator) selectFallbackModel(policyCtx PolicyContext) string {
	if selected, ok := o.availability.SelectFirstAvailable(policyCtx.CandidateModels()); ok {
		return selected
	}
	if lastResort, ok := policyCtx.LastResort(); ok {
		return lastResort.Model
	}
	return ""
}

// promptAndProcess runs the interactive path: create the pending request,
// hand it to the prompter, suspend until resolution, then apply the intent.
func (o *Orchestrator) promptAndProcess(ctx context.Context, class Classification, policyCtx PolicyContext, failedModel, fallbackModel string, autoStatus AutoFallbackStatus, cause error) Verdict {
	if o.prompter == nil {
		return o.finish(ctx, VerdictNone, "no prompter registered")
	}

	req, ok := o.gate.Begin(failedModel, fallbackModel)
	if !ok {
		return o.finish(ctx, VerdictStop, "decision already pending")
	}

	recordPromptShown()
	observability.SetAttributes(ctx, observability.AttrFallbackModel.String(fallbackModel))
	o.publish(telemetry.EventFallbackPrompt, map[string]any{
		"failed_model":   failedModel,
		"fallback_model": fallbackModel,
	})
	o.logger.Info(logging.CategoryFallback, "fallback.prompt", "awaiting fallback choice", map[string]any{
		"request_id":     req.ID,
		"failed_model":   failedModel,
		"fallback_model": fallbackModel,
	})

	go func() {
		intent, err := o.prompter.PromptFallback(ctx, PromptRequest{
			FailedModel:   failedModel,
			FallbackModel: fallbackModel,
			Failure:       class,
			Cause:         cause,
			AutoFallback:  autoStatus,
		})
		if err != nil {
			req.Fail(err)
			return
		}
		req.Resolve(intent)
	}()

	intent, err := o.gate.Wait(ctx, req)
	if err != nil {
		// Prompter errors degrade to "no fallback"; the original failure
		// propagates to the caller unchanged.
		observability.RecordError(ctx, err)
		o.logger.Error(logging.CategoryFallback, "fallback.prompt_failed", "prompter failed", map[string]any{
			"request_id": req.ID,
			"error":      err.Error(),
		})
		return o.finish(ctx, VerdictNone, "prompter failed")
	}

	if intent == IntentNone {
		return o.finish(ctx, VerdictNone, "prompter declined")
	}

	observability.SetAttributes(ctx, observability.AttrIntent.String(string(intent)))

	// Only a genuine retry consumes the failed model's availability. Stop and
	// retry-later leave it untouched for a later attempt.
	if intent.IsRetry() {
		o.availability.ApplyTransition(class, policyCtx.FailedPolicy)
	}

	shouldContinue, err := o.processor.Process(intent, fallbackModel)
	if err != nil {
		// Contract violation between prompter and orchestrator. Logged loudly
		// and surfaced as "no fallback" at this boundary.
		observability.RecordError(ctx, err)
		o.logger.Error(logging.CategoryFallback, "fallback.bad_intent", "prompter returned unknown intent", map[string]any{
			"request_id": req.ID,
			"intent":     string(intent),
		})
		return o.finish(ctx, VerdictNone, "unknown intent")
	}

	verdict := VerdictStop
	if shouldContinue {
		verdict = VerdictRetry
	}
	return o.finish(ctx, verdict, "intent "+string(intent))
}

// finish records the verdict and returns it.
func (o *Orchestrator) finish(ctx context.Context, v Verdict, reason string) Verdict {
	recordVerdict(v)
	observability.SetAttributes(ctx, observability.AttrVerdict.String(v.String()))
	o.publish(telemetry.EventFallbackVerdict, map[string]any{
		"verdict": v.String(),
		"reason":  reason,
	})
	o.logger.Debug(logging.CategoryFallback, "fallback.verdict", reason, map[string]any{
		"verdict": v.String(),
	})
	return v
}

func (o *Orchestrator) publish(eventType telemetry.EventType, data map[string]any) {
	o.hub.Publish(telemetry.Event{
		Type:      eventType,
		SessionID: o.state.ID(),
		Data:      data,
	})
}
