package sampler

import (
	"context"
	"fmt"
	"math"

	"wmstatus/internal/system"
)

// CPU reports utilisation over the interval between two successful updates.
// On read failure it keeps rendering the last good value.
type CPU struct {
	path string
	icon string

	lastTotal uint64
	lastIdle  uint64
	seeded    bool

	usage float64
	text  string
}

func NewCPU(statPath, icon string) *CPU {
	return &CPU{path: statPath, icon: icon}
}

func (c *CPU) Update(_ context.Context) error {
	cur, err := system.ReadCPUCounters(c.path)
	if err != nil {
		return fmt.Errorf("cpu: %w", err)
	}

	// The first reading holds counters since boot, not an interval.
	if !c.seeded || cur.Total < c.lastTotal || cur.Idle < c.lastIdle {
		c.lastTotal, c.lastIdle, c.seeded = cur.Total, cur.Idle, true
		return nil
	}
	if cur.Total == c.lastTotal {
		return nil
	}

	c.usage = cpuUsage(c.lastTotal, c.lastIdle, cur.Total, cur.Idle)
	c.lastTotal, c.lastIdle = cur.Total, cur.Idle
	c.text = fmt.Sprintf("%s%02d%%", c.icon, int(math.Round(c.usage)))
	return nil
}

func (c *CPU) Render() string {
	if c.text == "" {
		return Fallback
	}
	return c.text
}

// Usage returns the last computed utilisation and whether one exists yet.
func (c *CPU) Usage() (float64, bool) {
	return c.usage, c.text != ""
}

// cpuUsage expects curTotal > prevTotal and non-decreasing idle.
func cpuUsage(prevTotal, prevIdle, curTotal, curIdle uint64) float64 {
	totalDelta := float64(curTotal - prevTotal)
	idleDelta := float64(curIdle - prevIdle)
	return clampPercent(100 * (totalDelta - idleDelta) / totalDelta)
}
