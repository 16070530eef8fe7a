package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ventacrm/crm/internal/metrics"
)

func TestMetrics_RecordsRouteTemplateAndFinalStatus(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/widgets/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(),
		`crm_http_request_duration_seconds_count{method="GET",route="/widgets/:id",status="418"} 1`)
}
