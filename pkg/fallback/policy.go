package fallback

import (
	"github.com/odvcencio/quill/pkg/config"
)

// FallbackPolicy is one resolved entry of the policy chain.
type FallbackPolicy struct {
	Model        string
	IsLastResort bool
	Action       string // config.ActionSilent or config.ActionPrompt
}

// PolicyContext pairs the failed model's policy with the remaining
// candidates, in configured order.
type PolicyContext struct {
	FailedPolicy FallbackPolicy
	Candidates   []FallbackPolicy
}

// BuildPolicyContext derives the policy context for a failed model from the
// configured chain. Returns ok=false for an empty chain, meaning no fallback
// is possible and the failed model stays as-is. Candidate order is strictly
// the configured order.
func BuildPolicyContext(chain []config.FallbackPolicyConfig, failedModel string) (PolicyContext, bool) {
	if len(chain) == 0 {
		return PolicyContext{}, false
	}

	ctx := PolicyContext{
		// A model missing from the chain escalates via prompt.
		FailedPolicy: FallbackPolicy{Model: failedModel, Action: config.ActionPrompt},
	}

	for i, entry := range chain {
		policy := FallbackPolicy{
			Model:        entry.Model,
			IsLastResort: i == len(chain)-1,
			Action:       entry.Action,
		}
		if entry.Model == failedModel {
			ctx.FailedPolicy = policy
			continue
		}
		ctx.Candidates = append(ctx.Candidates, policy)
	}

	return ctx, true
}

// CandidateModels returns the candidate model names in order.
func (c PolicyContext) CandidateModels() []string {
	models := make([]string, len(c.Candidates))
	for i, policy := range c.Candidates {
		models[i] = policy.Model
	}
	return models
}

// PolicyFor looks up the candidate policy for a model.
func (c PolicyContext) PolicyFor(model string) (FallbackPolicy, bool) {
	for _, policy := range c.Candidates {
		if policy.Model == model {
			return policy, true
		}
	}
	return FallbackPolicy{}, false
}

// LastResort returns the final candidate in the chain, used when every
// candidate is currently unavailable.
func (c PolicyContext) LastResort() (FallbackPolicy, bool) {
	for _, policy := range c.Candidates {
		if policy.IsLastResort {
			return policy, true
		}
	}
	if len(c.Candidates) > 0 {
		return c.Candidates[len(c.Candidates)-1], true
	}
	return FallbackPolicy{}, false
}
