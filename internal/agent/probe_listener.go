package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	jsoniter "github.com/json-iterator/go"

	"wmstatus/internal/agent/version"
	"wmstatus/internal/config"
	"wmstatus/internal/telemetry"
)

const probeShutdownTimeout = 2 * time.Second

// ProbeServer exposes /healthz, /version and /metrics. It only reads atomics and
// Prometheus collectors, never sampler state.
type ProbeServer struct {
	logger *slog.Logger
	addr   string
	server *http.Server
}

func NewProbeServer(cfg config.Config, health *HealthStatus, metrics *telemetry.Metrics, logger *slog.Logger) *ProbeServer {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS.Concise(true),
	}))

	r.Get("/healthz", healthHandler(health))
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Get(cfg))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return &ProbeServer{
		logger: logger,
		addr:   cfg.ProbeListenAddr,
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (p *ProbeServer) Handler() http.Handler {
	return p.server.Handler
}

func (p *ProbeServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("listen probe endpoint %s: %w", p.addr, err)
	}
	return p.Serve(ctx, ln)
}

func (p *ProbeServer) Serve(ctx context.Context, ln net.Listener) error {
	p.logger.Info("probe endpoint listening", "addr", ln.Addr().String())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), probeShutdownTimeout)
		defer cancel()
		if err := p.server.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn("probe server shutdown failed", "error", err)
		}
	}()

	if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve probe endpoint %s: %w", p.addr, err)
	}
	return nil
}

func healthHandler(health *HealthStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := health.Snapshot()
		status := http.StatusOK
		snap["status"] = "ok"
		if !health.Healthy() && health.publishFailures.Load() > 0 {
			status = http.StatusServiceUnavailable
			snap["status"] = "degraded"
		}
		writeJSON(w, status, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
