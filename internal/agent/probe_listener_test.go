package agent

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"wmstatus/internal/agent/version"
	"wmstatus/internal/config"
	"wmstatus/internal/telemetry"
)

func probeConfig(addr string) config.Config {
	cfg := config.Default()
	cfg.ProbeListenAddr = addr
	cfg.Hostname = "desk"
	return cfg
}

func TestProbeServer_Version(t *testing.T) {
	p := NewProbeServer(probeConfig("127.0.0.1:9100"), NewHealthStatus(nil), telemetry.NewMetrics(), discardLogger())
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body version.GetVersionResponse
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Host != "desk" || body.Version != version.Version || body.SinkMode != "xsetroot" || body.ProbeListenAddr != "127.0.0.1:9100" {
		t.Fatalf("version body = %+v", body)
	}
}

func TestProbeServer_Healthz(t *testing.T) {
	health := NewHealthStatus([]string{"cpu", "datetime"})
	p := NewProbeServer(probeConfig("127.0.0.1:0"), health, telemetry.NewMetrics(), discardLogger())

	get := func() (int, map[string]any) {
		t.Helper()
		rec := httptest.NewRecorder()
		p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var body map[string]any
		if err := jsoniter.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
		return rec.Code, body
	}

	code, body := get()
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("before first publish: %d %v", code, body)
	}

	health.MarkPublish(time.Now(), 12)
	code, body = get()
	if code != http.StatusOK || body["sink_healthy"] != true || body["last_line_bytes"] != float64(12) {
		t.Fatalf("after publish: %d %v", code, body)
	}

	health.MarkPublishFailure(errors.New("cannot open display"))
	code, body = get()
	if code != http.StatusServiceUnavailable || body["status"] != "degraded" || body["last_error"] != "cannot open display" {
		t.Fatalf("after failure: %d %v", code, body)
	}
}

func TestProbeServer_ServeMetricsAndShutdown(t *testing.T) {
	metrics := telemetry.NewMetrics()
	metrics.UpdateFailed("weather")
	p := NewProbeServer(probeConfig("127.0.0.1:0"), NewHealthStatus(nil), metrics, discardLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `wmstatus_module_update_failures_total{module="weather"} 1`) {
		t.Fatalf("metrics body lacks counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve = %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestProbeServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	p := NewProbeServer(probeConfig(ln.Addr().String()), NewHealthStatus(nil), telemetry.NewMetrics(), discardLogger())
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error when address is in use")
	}
}
