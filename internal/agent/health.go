package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	startedAt       time.Time
	modules         []string
	sinkHealthy     atomic.Bool
	lastPublishAt   atomic.Int64
	lastLineBytes   atomic.Int64
	publishes       atomic.Uint64
	publishFailures atomic.Uint64
	lastError       atomic.Value
}

func NewHealthStatus(modules []string) *HealthStatus {
	h := &HealthStatus{
		startedAt: time.Now().UTC(),
		modules:   append([]string(nil), modules...),
	}
	h.sinkHealthy.Store(false)
	return h
}

func (h *HealthStatus) SetSinkHealthy(ok bool) {
	h.sinkHealthy.Store(ok)
}

func (h *HealthStatus) MarkPublish(ts time.Time, lineBytes int) {
	h.sinkHealthy.Store(true)
	h.publishes.Add(1)
	h.lastPublishAt.Store(ts.UnixNano())
	h.lastLineBytes.Store(int64(lineBytes))
}

func (h *HealthStatus) MarkPublishFailure(err error) {
	h.sinkHealthy.Store(false)
	h.publishFailures.Add(1)
	if err != nil {
		h.lastError.Store(err.Error())
	}
}

// Healthy reports whether the last publish succeeded.
func (h *HealthStatus) Healthy() bool {
	return h.sinkHealthy.Load()
}

func (h *HealthStatus) Modules() []string {
	return append([]string(nil), h.modules...)
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"sink_healthy":     h.sinkHealthy.Load(),
		"started_at":       h.startedAt,
		"modules":          h.Modules(),
		"publishes":        h.publishes.Load(),
		"publish_failures": h.publishFailures.Load(),
	}
	if v := h.lastPublishAt.Load(); v > 0 {
		out["last_publish_at"] = time.Unix(0, v).UTC()
		out["last_line_bytes"] = h.lastLineBytes.Load()
	}
	if v, ok := h.lastError.Load().(string); ok {
		out["last_error"] = v
	}
	return out
}
