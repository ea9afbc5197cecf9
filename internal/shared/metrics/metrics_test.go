package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveConsumption(10)
		m.SetOpenProjects(3)
		m.ObservePublish("printingqueue/count_open", nil)
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveConsumption(120)
	m.ObserveConsumption(30.5)
	m.SetOpenProjects(4)
	m.ObservePublish("t", nil)
	m.ObservePublish("t", errors.New("broker down"))

	assert.InDelta(t, 150.5, testutil.ToFloat64(m.consumedGrams), 1e-9)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.openProjects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishes.WithLabelValues("t", "error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/7", nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/projects/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "printingqueue_http_requests_total")
}
