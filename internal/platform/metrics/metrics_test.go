package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/wards", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wards", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/wards", "200"))
	if got != 3 {
		t.Errorf("expected 3 requests counted, got %v", got)
	}
}

func TestMiddleware_CountsErrorStatus(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "conflict")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/boom", "409"))
	if got != 1 {
		t.Errorf("expected 1 conflict counted, got %v", got)
	}
}

func TestHandler_ExposesGauges(t *testing.T) {
	m := New()
	m.SetBedGauges(40, 12)

	e := echo.New()
	e.GET("/metrics", m.Handler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "hms_beds_total 40") {
		t.Errorf("expected hms_beds_total 40 in output:\n%s", body)
	}
	if !strings.Contains(body, "hms_beds_occupied 12") {
		t.Errorf("expected hms_beds_occupied 12 in output:\n%s", body)
	}
}
