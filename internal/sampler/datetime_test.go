package sampler

import (
	"context"
	"testing"
	"time"
)

func TestDateTime_Render(t *testing.T) {
	d := NewDateTime("T")
	if got := d.Render(); got != Fallback {
		t.Fatalf("Render() before update = %q, want %q", got, Fallback)
	}

	at := time.Date(2026, 10, 16, 14, 5, 59, 0, time.Local)
	d.now = func() time.Time { return at }
	if err := d.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := "TFriday Oct 2026-10-16 14:05"
	if got := d.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
