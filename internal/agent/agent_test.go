package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"wmstatus/internal/config"
	"wmstatus/internal/sampler"
	sinkmocks "wmstatus/internal/stream/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(template string) config.Config {
	cfg := config.Default()
	cfg.Template = template
	cfg.Interval = 5 * time.Millisecond
	cfg.ShutdownTimeout = time.Second
	cfg.NoIcons = true
	cfg.BatteryPath = "/nonexistent/capacity"
	return cfg
}

func TestAgent_OncePublishesOneLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := sinkmocks.NewMockSink(ctrl)

	var published string
	sink.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, line string) error {
		published = line
		return nil
	})

	a, err := newAgent(testConfig("[{bat}] {volume}"), discardLogger(), sink)
	if err != nil {
		t.Fatalf("newAgent: %v", err)
	}
	line, err := a.Once(context.Background())
	if err != nil {
		t.Fatalf("Once: %v", err)
	}
	want := "[" + sampler.Fallback + "] {volume}"
	if line != want || published != want {
		t.Fatalf("line = %q, published = %q, want %q", line, published, want)
	}
	if !a.Health().Healthy() {
		t.Fatal("health not marked after successful publish")
	}
}

func TestAgent_RunStopsOnPublishFailureAndResetsSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := sinkmocks.NewMockSink(ctrl)
	boom := errors.New("cannot open display")

	gomock.InOrder(
		sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(boom),
		sink.EXPECT().Close(gomock.Any()).Return(nil),
	)

	a, err := newAgent(testConfig("{datetime}"), discardLogger(), sink)
	if err != nil {
		t.Fatalf("newAgent: %v", err)
	}
	err = a.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapping %v", err, boom)
	}
	snap := a.Health().Snapshot()
	if snap["publish_failures"].(uint64) != 1 {
		t.Fatalf("snapshot = %v", snap)
	}
}

func TestAgent_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := sinkmocks.NewMockSink(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) error {
		cancel()
		return nil
	}).MinTimes(1)
	sink.EXPECT().Close(gomock.Any()).Return(nil)

	a, err := newAgent(testConfig("{datetime}"), discardLogger(), sink)
	if err != nil {
		t.Fatalf("newAgent: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if a.Health().Healthy() {
		t.Fatal("sink should be marked unhealthy after shutdown")
	}
}

func TestNewAgent_ModuleRequirementError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := sinkmocks.NewMockSink(ctrl)

	cfg := testConfig("{net}")
	cfg.NetInterface = ""
	if _, err := newAgent(cfg, discardLogger(), sink); err == nil {
		t.Fatal("expected error for netspeed without interface")
	}
}

func TestReportUnknownPlaceholders(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := sinkmocks.NewMockSink(ctrl)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	if _, err := newAgent(testConfig("{cpuu} {datetime}"), logger, sink); err != nil {
		t.Fatalf("newAgent: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "placeholder={cpuu}") || !strings.Contains(out, "did_you_mean={cpu}") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestBuildLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log = config.LogConfig{Level: "warn", JSON: true}
	logger := BuildLogger(cfg, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "module", "cpu")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"module":"cpu"`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}
}
