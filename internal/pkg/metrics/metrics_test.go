package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	r := NewPrometheusRecorder()

	r.SessionAdmission(AdmissionStarted)
	r.SessionAdmission(AdmissionStarted)
	r.SessionAdmission(AdmissionLimitExceeded)
	r.ReclaimAnomaly()
	r.ProviderTokens(12, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.admissions.WithLabelValues(AdmissionStarted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.admissions.WithLabelValues(AdmissionLimitExceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.anomalies))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.providerTokens.WithLabelValues("prompt")))
}

func TestRecordersAreIsolated(t *testing.T) {
	a := NewPrometheusRecorder()
	b := NewPrometheusRecorder()

	a.Completion("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.completions.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.completions.WithLabelValues("success")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewPrometheusRecorder()
	r.ProviderRequest("ollama", 150*time.Millisecond, false)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "llm_chat_provider_request_duration_seconds")
}
