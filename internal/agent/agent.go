package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wmstatus/internal/collector"
	"wmstatus/internal/config"
	"wmstatus/internal/layout"
	"wmstatus/internal/stream"
	"wmstatus/internal/telemetry"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	tpl       *layout.Template
	scheduler *collector.Scheduler
	sink      *healthSink
	metrics   *telemetry.Metrics
	health    *HealthStatus
	probe     *ProbeServer
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("stream sink: %w", err)
	}
	return newAgent(cfg, logger, sink)
}

func newAgent(cfg config.Config, logger *slog.Logger, sink stream.Sink) (*Agent, error) {
	tpl := layout.Parse(cfg.Template)
	reportUnknownPlaceholders(tpl, logger)

	metrics := telemetry.NewMetrics()
	modules, err := collector.BuildModules(cfg, tpl, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("build modules: %w", err)
	}

	kinds := make([]string, 0, len(modules))
	for _, k := range tpl.Kinds() {
		kinds = append(kinds, string(k))
	}
	health := NewHealthStatus(kinds)
	wrappedSink := &healthSink{sink: sink, health: health}
	scheduler := collector.NewScheduler(logger, tpl, modules, wrappedSink, cfg.Interval, metrics)

	a := &Agent{
		cfg:       cfg,
		logger:    logger,
		tpl:       tpl,
		scheduler: scheduler,
		sink:      wrappedSink,
		metrics:   metrics,
		health:    health,
	}
	if cfg.ProbeListenAddr != "" {
		a.probe = NewProbeServer(cfg, health, metrics, logger)
	}
	return a, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting wmstatus",
		"template", a.tpl.String(),
		"interval", a.cfg.Interval,
		"sink", string(a.cfg.Sink.Mode),
		"modules", a.health.Modules(),
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// Loop terminated by itself (sink failure or parent ctx canceled).
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("wmstatus stopped")
	return nil
}

// Once runs a single tick and returns the published line. Connections are
// released but the published status is left in place.
func (a *Agent) Once(ctx context.Context) (string, error) {
	line, err := a.scheduler.Tick(ctx)
	if relErr := stream.Release(ctx, a.sink); relErr != nil {
		a.logger.Warn("stream sink release failed", "error", relErr)
	}
	return line, err
}

func (a *Agent) Health() *HealthStatus {
	return a.health
}

func reportUnknownPlaceholders(tpl *layout.Template, logger *slog.Logger) {
	for _, name := range tpl.Unknown() {
		attrs := []any{"placeholder", "{" + name + "}"}
		if s, ok := layout.Suggest(name); ok {
			attrs = append(attrs, "did_you_mean", "{"+s+"}")
		}
		logger.Warn("unknown template placeholder kept as literal text", attrs...)
	}
}

// BuildLogger writes to w, which should not be the stdout sink's stream.
func BuildLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.JSON {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}

type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) Publish(ctx context.Context, line string) error {
	err := s.sink.Publish(ctx, line)
	if err != nil {
		s.health.MarkPublishFailure(err)
		return err
	}
	s.health.MarkPublish(time.Now(), len(line))
	return nil
}

func (s *healthSink) Close(ctx context.Context) error {
	return s.sink.Close(ctx)
}

func (s *healthSink) Release(ctx context.Context) error {
	return stream.Release(ctx, s.sink)
}
