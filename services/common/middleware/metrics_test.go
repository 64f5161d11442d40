package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusCodeToRange(t *testing.T) {
	for code, want := range map[int]string{
		200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 429: "4xx", 502: "5xx", 101: "unknown",
	} {
		assert.Equal(t, want, statusCodeToRange(code), code)
	}
}

func TestMetricsMiddleware_DisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware(nil, "order-service"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
