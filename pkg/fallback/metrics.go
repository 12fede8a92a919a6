package fallback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClassifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Name:      "fallback_classifications_total",
		Help:      "Model failures classified, by failure kind.",
	}, []string{"kind"})
	metricSilentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Name:      "fallback_silent_total",
		Help:      "Fallbacks applied silently without consulting the prompter.",
	})
	metricPromptsShown = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Name:      "fallback_prompts_total",
		Help:      "Interactive fallback prompts handed to the prompter.",
	})
	metricAutoSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Name:      "fallback_auto_switch_total",
		Help:      "Automatic auth-switch attempts, by outcome.",
	}, []string{"status"})
	metricVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Name:      "fallback_verdicts_total",
		Help:      "Fallback verdicts returned to the retry loop.",
	}, []string{"verdict"})
)

func recordClassification(kind FailureKind) {
	metricClassifications.WithLabelValues(kind.String()).Inc()
}

func recordSilentFallback() {
	metricSilentFallbacks.Inc()
}

func recordPromptShown() {
	metricPromptsShown.Inc()
}

func recordAutoSwitch(status AutoStatus) {
	metricAutoSwitches.WithLabelValues(string(status)).Inc()
}

func recordVerdict(v Verdict) {
	metricVerdicts.WithLabelValues(v.String()).Inc()
}
