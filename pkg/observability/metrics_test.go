package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetricsRegistered(t *testing.T) {
	InteractionsTotal.WithLabelValues(OutcomeOK).Add(0)
	UpstreamDuration.WithLabelValues("create_thread").Observe(0.1)
	RequestsTotal.WithLabelValues("GET", "/", "2xx").Add(0)
	RequestDuration.WithLabelValues("GET", "/").Observe(0.01)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	expected := map[string]bool{
		"tutor_requests_total":            false,
		"tutor_request_duration_seconds":  false,
		"tutor_interactions_total":        false,
		"tutor_upstream_duration_seconds": false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		assert.True(t, found, "metric %s not registered", name)
	}
}

func TestMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	okBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/ok", "2xx"))
	boomBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/boom", "5xx"))
	missBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "4xx"))

	for _, path := range []string{"/ok", "/ok", "/boom", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/ok", "2xx")))
	assert.Equal(t, boomBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/boom", "5xx")))
	assert.Equal(t, missBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "4xx")))
}
