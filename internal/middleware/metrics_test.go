package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/pkg/metrics"
)

func TestMetricsObservesLatency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/teams/:id/members", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/teams/t-1/members", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Positive(t, testutil.CollectAndCount(metrics.APILatency, "teamhub_api_latency_seconds"))
}
