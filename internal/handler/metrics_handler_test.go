package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
)

func TestMetricsHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/submissions", http.StatusOK, 25*time.Millisecond)
	metrics.RecordCacheOperation(true)
	metrics.RecordCacheOperation(false)

	h := NewMetricsHandler(metrics, nil, nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/stats", nil)

	h.Stats(c)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot service.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Equal(t, uint64(1), snapshot.RequestsTotal)
	require.Equal(t, uint64(1), snapshot.CacheHits)
	require.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestMetricsHandlerStatsWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewMetricsHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/stats", nil)

	h.Stats(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
