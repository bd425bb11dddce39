package stream

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const defaultXSetRootBinary = "xsetroot"

// CommandRunner executes an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// XSetRootSink sets the X root window name, which most tiling window
// managers (dwm and friends) display as their status bar.
type XSetRootSink struct {
	logger  *slog.Logger
	binary  string
	run     CommandRunner
	timeout time.Duration
}

func NewXSetRootSink(timeout time.Duration, logger *slog.Logger) *XSetRootSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &XSetRootSink{
		logger:  logger,
		binary:  defaultXSetRootBinary,
		run:     execRunner,
		timeout: timeout,
	}
}

func (s *XSetRootSink) Publish(ctx context.Context, line string) error {
	return s.setName(ctx, line)
}

func (s *XSetRootSink) Close(ctx context.Context) error {
	if err := s.setName(ctx, ""); err != nil {
		return fmt.Errorf("reset root name: %w", err)
	}
	s.logger.Debug("root window name cleared")
	return nil
}

func (s *XSetRootSink) setName(ctx context.Context, name string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.run(runCtx, s.binary, "-name", name); err != nil {
		return fmt.Errorf("xsetroot publish: %w", err)
	}
	return nil
}
