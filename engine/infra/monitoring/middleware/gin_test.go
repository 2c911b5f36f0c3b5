package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "pharens_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				path, _ := dp.Attributes.Value(attribute.Key("path"))
				status, _ := dp.Attributes.Value(attribute.Key("status_code"))
				out[path.AsString()+" "+status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestHTTPMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should label requests by route template and status", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		r := gin.New()
		r.Use(HTTPMetrics(mp.Meter("test")))
		r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodPost, "/api/chat", http.NoBody),
			httptest.NewRequest(http.MethodPost, "/api/chat", http.NoBody),
			httptest.NewRequest(http.MethodGet, "/items/42", http.NoBody),
			httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody),
		} {
			r.ServeHTTP(httptest.NewRecorder(), req)
		}

		totals := collectTotals(t, reader)
		assert.Equal(t, int64(2), totals["/api/chat 200"])
		assert.Equal(t, int64(1), totals["/items/:id 404"])
		assert.Equal(t, int64(1), totals["unmatched 404"])
	})

	t.Run("Should pass requests through with a no-op meter", func(t *testing.T) {
		r := gin.New()
		r.Use(HTTPMetrics(noop.NewMeterProvider().Meter("noop")))
		r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
		assert.Equal(t, "fine", rec.Body.String())
	})
}
