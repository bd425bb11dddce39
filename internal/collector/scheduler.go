// Package collector drives the status loop: it updates the active modules,
// substitutes their renders into the template and publishes the result.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wmstatus/internal/layout"
	"wmstatus/internal/stream"
	"wmstatus/internal/telemetry"
)

// PublishHook observes every publish attempt.
type PublishHook func(line string, err error)

type Scheduler struct {
	logger   *slog.Logger
	tpl      *layout.Template
	modules  ModuleSet
	order    []layout.Kind
	sink     stream.Sink
	interval time.Duration
	metrics  *telemetry.Metrics
	hook     PublishHook
}

func NewScheduler(
	logger *slog.Logger,
	tpl *layout.Template,
	modules ModuleSet,
	sink stream.Sink,
	interval time.Duration,
	metrics *telemetry.Metrics,
) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	order := make([]layout.Kind, 0, len(modules))
	for _, k := range tpl.Kinds() {
		if _, ok := modules[k]; ok {
			order = append(order, k)
		}
	}
	return &Scheduler{
		logger:   logger,
		tpl:      tpl,
		modules:  modules,
		order:    order,
		sink:     sink,
		interval: interval,
		metrics:  metrics,
	}
}

func (s *Scheduler) OnPublish(hook PublishHook) {
	s.hook = hook
}

// Run ticks immediately and then once per interval until ctx is done. A
// publish failure stops the loop and is returned; module failures never do.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.Tick(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("status publish failed", "error", err)
				return err
			}
		}
	}
}

// Tick runs one update, render and publish cycle and returns the line it
// published.
func (s *Scheduler) Tick(ctx context.Context) (string, error) {
	start := time.Now()
	for _, k := range s.order {
		m := s.modules[k]
		if err := m.Update(ctx); err != nil {
			s.logger.Warn("module update failed", "module", string(k), "error", err)
			s.metrics.UpdateFailed(string(k))
			continue
		}
		if lv, ok := m.(slog.LogValuer); ok {
			s.logger.Debug("module updated", "module", string(k), "state", lv)
		}
	}

	line := s.tpl.Render(s.lookup)
	err := s.sink.Publish(ctx, line)
	s.metrics.Published(err, len(line))
	s.metrics.ObserveTick(time.Since(start))
	if s.hook != nil {
		s.hook(line, err)
	}
	if err != nil {
		return line, fmt.Errorf("publish status line: %w", err)
	}
	s.logger.Debug("status published", "line", line)
	return line, nil
}

func (s *Scheduler) lookup(k layout.Kind) (string, bool) {
	m, ok := s.modules[k]
	if !ok {
		return "", false
	}
	return m.Render(), true
}
