// Package stream holds the output sinks a rendered status line is published
// to. Exactly one sink is active per process.
package stream

//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

import "context"

type Sink interface {
	Publish(ctx context.Context, line string) error
	// Close releases the sink. Sinks that own visible state (the X root
	// window name) reset it here.
	Close(ctx context.Context) error
}

// Releaser is implemented by sinks holding network connections. Release
// frees them without touching published state.
type Releaser interface {
	Release(ctx context.Context) error
}

// Release calls s.Release when s holds connections and is a no-op otherwise.
func Release(ctx context.Context, s Sink) error {
	if r, ok := s.(Releaser); ok {
		return r.Release(ctx)
	}
	return nil
}
