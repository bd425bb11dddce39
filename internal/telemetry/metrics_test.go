package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveTick(20 * time.Millisecond)
	m.ObserveTick(30 * time.Millisecond)
	m.UpdateFailed("weather")
	m.UpdateFailed("weather")
	m.UpdateFailed("netspeed")
	m.Published(nil, 42)
	m.Published(errors.New("boom"), 0)
	m.WeatherFetched(nil)
	m.SetActiveModules(5)

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.updateFailures.WithLabelValues("weather")); got != 2 {
		t.Errorf("weather failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.updateFailures.WithLabelValues("netspeed")); got != 1 {
		t.Errorf("netspeed failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.publishes.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("ok publishes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.publishes.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("failed publishes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lineLength); got != 42 {
		t.Errorf("line length = %v, want 42 (failed publish must not reset it)", got)
	}
	if got := testutil.ToFloat64(m.activeModules); got != 5 {
		t.Errorf("active modules = %v, want 5", got)
	}
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	m.ObserveTick(time.Second)
	m.UpdateFailed("cpu")
	m.Published(nil, 1)
	m.WeatherFetched(nil)
	m.SetActiveModules(1)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.UpdateFailed("cpu")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `wmstatus_module_update_failures_total{module="cpu"} 1`) {
		t.Fatalf("metrics output lacks failure counter:\n%s", body)
	}
}
