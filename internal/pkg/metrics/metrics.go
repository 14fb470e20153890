package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llm_chat"

// Admission outcomes
const (
	AdmissionStarted       = "started"
	AdmissionContinued     = "continued"
	AdmissionReactivated   = "reactivated"
	AdmissionLimitExceeded = "limit_exceeded"
	AdmissionOwnerMismatch = "owner_mismatch"
)

// Recorder is fire-and-forget: no method returns an error and callers never
// depend on a metric having been recorded.
type Recorder interface {
	SessionAdmission(outcome string)
	SessionEnded(reason string)
	ReclaimAnomaly()
	Completion(result string)
	ProviderRequest(provider string, elapsed time.Duration, failed bool)
	ProviderTokens(prompt, completion int)
	DocsFetchError()
}

type PrometheusRecorder struct {
	registry *prometheus.Registry

	admissions      *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	anomalies       prometheus.Counter
	completions     *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	providerTokens  *prometheus.CounterVec
	docsErrors      prometheus.Counter
}

// NewPrometheusRecorder registers collectors on a private registry so several
// instances (tests, multiple processes in one binary) never collide.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_admissions_total",
			Help:      "Session admission decisions by outcome.",
		}, []string{"outcome"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions transitioned to ended, by reason (explicit or reclaimed).",
		}, []string{"reason"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaim_anomalies_total",
			Help:      "Active sessions found without any transcript record during a sweep.",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion requests by result.",
		}, []string{"result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Completion provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"provider", "status"}),
		providerTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Tokens reported by the completion provider.",
		}, []string{"kind"}),
		docsErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "docs_fetch_errors_total",
			Help:      "Failed reference documentation fetches for the seed prompt.",
		}),
	}

	r.registry.MustRegister(
		r.admissions,
		r.sessionsEnded,
		r.anomalies,
		r.completions,
		r.providerLatency,
		r.providerTokens,
		r.docsErrors,
	)
	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the exposition format for this recorder's registry.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) SessionAdmission(outcome string) {
	r.admissions.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) SessionEnded(reason string) {
	r.sessionsEnded.WithLabelValues(reason).Inc()
}

func (r *PrometheusRecorder) ReclaimAnomaly() {
	r.anomalies.Inc()
}

func (r *PrometheusRecorder) Completion(result string) {
	r.completions.WithLabelValues(result).Inc()
}

func (r *PrometheusRecorder) ProviderRequest(provider string, elapsed time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	r.providerLatency.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) ProviderTokens(prompt, completion int) {
	if prompt > 0 {
		r.providerTokens.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		r.providerTokens.WithLabelValues("completion").Add(float64(completion))
	}
}

func (r *PrometheusRecorder) DocsFetchError() {
	r.docsErrors.Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) SessionAdmission(string)                     {}
func (Nop) SessionEnded(string)                         {}
func (Nop) ReclaimAnomaly()                             {}
func (Nop) Completion(string)                           {}
func (Nop) ProviderRequest(string, time.Duration, bool) {}
func (Nop) ProviderTokens(int, int)                     {}
func (Nop) DocsFetchError()                             {}
