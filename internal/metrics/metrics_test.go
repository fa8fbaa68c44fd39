package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveFetch(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveFetch("binance:BTCUSDT", 10*time.Millisecond, nil)
	m.ObserveFetch("binance:BTCUSDT", 10*time.Millisecond, errors.New("boom"))
	m.ObserveFetch("binance:BTCUSDT", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("binance:BTCUSDT", "ok")); got != 2 {
		t.Errorf("ok fetches: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("binance:BTCUSDT", "error")); got != 1 {
		t.Errorf("failed fetches: got %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("x", time.Second, nil)
	m.IncStoreFallback("btc")
	m.ObserveCompute("RSI_14", time.Millisecond)
	m.SetBreakerState(1, true)
	m.IncHTTP("/api/data", 200)
}

func TestMetrics_BreakerState(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetBreakerState(1, true)
	m.SetBreakerState(2, false)
	if got := testutil.ToFloat64(m.RedisCircuitBreakerState); got != 2 {
		t.Errorf("state: got %v", got)
	}
	if got := testutil.ToFloat64(m.RedisCircuitBreakerTrips); got != 1 {
		t.Errorf("trips: got %v", got)
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 200: "200", 503: "503"} {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestHealthStatus(t *testing.T) {
	h := NewHealthStatus()
	if h.Status() != "unhealthy" {
		t.Errorf("no sqlite: got %s", h.Status())
	}

	h.SetSQLiteOK(true)
	h.SetRedisEnabled(true)
	if h.Status() != "degraded" {
		t.Errorf("redis down: got %s", h.Status())
	}

	h.SetRedisEnabled(false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code: got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Status != "healthy" {
		t.Errorf("body: %+v, %v", body, err)
	}
}
