package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/infrastructure/metrics"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(handlers...)
	return engine
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	engine := newTestEngine(RequestID())
	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(constants.ContextKeyRequestID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(constants.HeaderXRequestID))
	assert.Len(t, seen, 36)
}

func TestRequestID_PropagatesCallerValue(t *testing.T) {
	engine := newTestEngine(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderXRequestID, "req-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderXRequestID))
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	engine := newTestEngine(RequestID(), Recovery(logger.NewNop()))
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
}

func TestLogger_PassesThrough(t *testing.T) {
	engine := newTestEngine(Logger(logger.NewNop()))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.True(t, shouldSkipLog("/metrics"))
	assert.False(t, shouldSkipLog("/api/plans"))
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	engine := newTestEngine(Metrics("/metrics"))
	engine.GET("/api/subscribers/:id/entitlement", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/subscribers/:id/entitlement", "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subscribers/"+id+"/entitlement", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))

	metricsCounter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	beforeMetrics := testutil.ToFloat64(metricsCounter)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, beforeMetrics, testutil.ToFloat64(metricsCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.HTTPRequestsInFlight))
}

func TestMetricsAuth(t *testing.T) {
	engine := newTestEngine()
	engine.GET("/metrics", MetricsAuth("admin", "secret123"), func(c *gin.Context) { c.String(http.StatusOK, "metrics data") })
	engine.GET("/open", MetricsAuth("", ""), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name     string
		path     string
		user     string
		pass     string
		withAuth bool
		want     int
	}{
		{name: "valid credentials", path: "/metrics", user: "admin", pass: "secret123", withAuth: true, want: http.StatusOK},
		{name: "no credentials", path: "/metrics", want: http.StatusUnauthorized},
		{name: "wrong password", path: "/metrics", user: "admin", pass: "nope", withAuth: true, want: http.StatusUnauthorized},
		{name: "auth disabled", path: "/open", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.withAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
