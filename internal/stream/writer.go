package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterSink writes one line per publish. Used for the stdout mode, which
// suits bars that read status from a pipe.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Publish(_ context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, line); err != nil {
		return fmt.Errorf("write status line: %w", err)
	}
	return nil
}

func (s *WriterSink) Close(context.Context) error {
	return nil
}
