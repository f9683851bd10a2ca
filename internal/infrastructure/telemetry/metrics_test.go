package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HTTP(t *testing.T) {
	m := NewMetrics("test")

	done := m.IncInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))

	m.ObserveHTTPRequest("GET", "/api/v1/products/:id", "200", 15*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/products/:id", "200", 5*time.Millisecond)
	m.ObserveHTTPRequest("GET", "", "404", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetrics_Business(t *testing.T) {
	m := NewMetrics("test")

	m.RecordOrderPlaced(decimal.RequireFromString("19.99"), false)
	m.RecordOrderPlaced(decimal.RequireFromString("0.01"), true)
	m.RecordOrderStatusChange("pending", "confirmed")
	m.RecordUserRegistered("customer")
	m.RecordDomainEvent("order.placed")
	m.RecordPublishError("order.placed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlacedTotal.WithLabelValues("true")))
	assert.InDelta(t, 20.0, testutil.ToFloat64(m.orderRevenueTotal), 0.0001)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderStatusChanges.WithLabelValues("pending", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.usersRegistered.WithLabelValues("customer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.domainEventsTotal.WithLabelValues("order.placed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventPublishErrors.WithLabelValues("order.placed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("shop")
	m.RecordUserRegistered("brand")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `shop_users_registered_total{role="brand"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
