package sampler

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func cpuLine(fields ...uint64) string {
	line := "cpu "
	for _, f := range fields {
		line += fmt.Sprintf(" %d", f)
	}
	return line + "\ncpu0 1 1 1 1 1 1 1 1 1 1\n"
}

func TestCPU_FirstUpdateOnlySeedsBaseline(t *testing.T) {
	path := tempPath(t, "stat")
	writeFile(t, path, cpuLine(100, 0, 0, 700, 0, 0, 0, 0, 0, 0))

	c := NewCPU(path, "")
	if got := c.Render(); got != Fallback {
		t.Fatalf("Render() before update = %q, want %q", got, Fallback)
	}
	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := c.Render(); got != Fallback {
		t.Errorf("Render() after first update = %q, want %q", got, Fallback)
	}
	if _, ok := c.Usage(); ok {
		t.Error("Usage() reported a value after the baseline read")
	}
}

func TestCPU_UsageBetweenTwoSamples(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t, "stat")
	c := NewCPU(path, "")

	writeFile(t, path, cpuLine(100, 0, 0, 700, 0, 0, 0, 0, 0, 0))
	if err := c.Update(ctx); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}
	writeFile(t, path, cpuLine(200, 0, 0, 1300, 0, 0, 0, 0, 0, 0))
	if err := c.Update(ctx); err != nil {
		t.Fatalf("second Update() error = %v", err)
	}

	usage, ok := c.Usage()
	if !ok {
		t.Fatal("Usage() has no value after two samples")
	}
	want := 100.0 * (700 - 600) / 700
	if math.Abs(usage-want) > 1e-9 {
		t.Errorf("usage = %v, want %v", usage, want)
	}
	if got := c.Render(); got != "14%" {
		t.Errorf("Render() = %q, want %q", got, "14%")
	}
}

func TestCPU_ZeroDeltaKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t, "stat")
	c := NewCPU(path, "")

	writeFile(t, path, cpuLine(100, 0, 0, 700, 0, 0, 0, 0, 0, 0))
	_ = c.Update(ctx)
	writeFile(t, path, cpuLine(200, 0, 0, 1300, 0, 0, 0, 0, 0, 0))
	_ = c.Update(ctx)

	if err := c.Update(ctx); err != nil {
		t.Fatalf("Update() with unchanged counters error = %v", err)
	}
	if got := c.Render(); got != "14%" {
		t.Errorf("Render() = %q, want previous value %q", got, "14%")
	}
}

func TestCPU_FailureKeepsLastGoodValue(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t, "stat")
	c := NewCPU(path, "C")

	if err := c.Update(ctx); err == nil {
		t.Fatal("expected error for missing stat file")
	}
	if got := c.Render(); got != Fallback {
		t.Errorf("Render() with no success = %q, want %q", got, Fallback)
	}

	writeFile(t, path, cpuLine(0, 0, 0, 0, 0))
	_ = c.Update(ctx)
	writeFile(t, path, cpuLine(50, 0, 0, 50, 0))
	_ = c.Update(ctx)
	if got := c.Render(); got != "C50%" {
		t.Fatalf("Render() = %q, want %q", got, "C50%")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(ctx); err == nil {
		t.Fatal("expected error after stat file removal")
	}
	if got := c.Render(); got != "C50%" {
		t.Errorf("Render() after failure = %q, want stale %q", got, "C50%")
	}
}

func TestCPU_CounterResetReseeds(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t, "stat")
	c := NewCPU(path, "")

	writeFile(t, path, cpuLine(1000, 0, 0, 1000, 0))
	_ = c.Update(ctx)
	writeFile(t, path, cpuLine(1100, 0, 0, 1100, 0))
	_ = c.Update(ctx)
	if got := c.Render(); got != "50%" {
		t.Fatalf("Render() = %q, want %q", got, "50%")
	}

	writeFile(t, path, cpuLine(10, 0, 0, 5, 0))
	if err := c.Update(ctx); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := c.Render(); got != "50%" {
		t.Errorf("Render() after reset = %q, want unchanged %q", got, "50%")
	}

	writeFile(t, path, cpuLine(20, 0, 0, 5, 0))
	_ = c.Update(ctx)
	if got := c.Render(); got != "100%" {
		t.Errorf("Render() after new baseline = %q, want %q", got, "100%")
	}
}

func TestCPUUsage_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("usage stays within [0, 100]", prop.ForAll(
		func(prevTotal, prevIdle, idleDelta, busyDelta uint64) bool {
			if idleDelta+busyDelta == 0 {
				return true
			}
			usage := cpuUsage(prevTotal, prevIdle, prevTotal+idleDelta+busyDelta, prevIdle+idleDelta)
			return usage >= 0 && usage <= 100
		},
		gen.UInt64Range(0, 1<<40),
		gen.UInt64Range(0, 1<<40),
		gen.UInt64Range(0, 1<<20),
		gen.UInt64Range(0, 1<<20),
	))

	properties.Property("usage depends only on counter deltas", prop.ForAll(
		func(base, idleDelta, busyDelta uint64) bool {
			if idleDelta+busyDelta == 0 {
				return true
			}
			a := cpuUsage(0, 0, idleDelta+busyDelta, idleDelta)
			b := cpuUsage(base, base/2, base+idleDelta+busyDelta, base/2+idleDelta)
			return math.Abs(a-b) < 1e-9
		},
		gen.UInt64Range(0, 1<<40),
		gen.UInt64Range(0, 1<<20),
		gen.UInt64Range(0, 1<<20),
	))

	properties.TestingRun(t)
}

func TestCPU_FirstUpdateNeverRenders_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	path := tempPath(t, "stat")

	properties.Property("first update renders fallback", prop.ForAll(
		func(user, system, idle uint64) bool {
			if err := os.WriteFile(path, []byte(cpuLine(user, 0, system, idle, 0)), 0o644); err != nil {
				t.Logf("write: %v", err)
				return false
			}
			c := NewCPU(path, "")
			if err := c.Update(context.Background()); err != nil {
				t.Logf("Update: %v", err)
				return false
			}
			return c.Render() == Fallback
		},
		gen.UInt64Range(0, 1<<32),
		gen.UInt64Range(0, 1<<32),
		gen.UInt64Range(0, 1<<32),
	))

	properties.TestingRun(t)
}
