package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swiftjobs-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_CountsDomainEvents(t *testing.T) {
	c := metrics.NewCollector("test")

	c.RecordSwipe("applicant", "like")
	c.RecordSwipe("applicant", "like")
	c.RecordMatch()
	c.RecordNegotiation("AGREED", 4)
	c.RecordStaleSessions(0)
	c.RecordStaleSessions(2)
	c.ObserveExternalCall("llm", "timeout", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Swipes.WithLabelValues("applicant", "like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MatchCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Negotiations.WithLabelValues("AGREED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StaleSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ExternalCalls.WithLabelValues("llm", "timeout")))
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := metrics.NewCollector("test")

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/ping/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/ping/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
