package sampler

import (
	"context"
	"fmt"
	"math"

	"wmstatus/internal/system"
)

// Memory reports used memory as 100 - available/total. A failed read leaves
// the previous value in place.
type Memory struct {
	path string
	icon string

	used float64
	text string
}

func NewMemory(meminfoPath, icon string) *Memory {
	return &Memory{path: meminfoPath, icon: icon}
}

func (m *Memory) Update(_ context.Context) error {
	info, err := system.ReadMemInfo(m.path)
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	if info.TotalKB <= 0 {
		return fmt.Errorf("memory: MemTotal is %v", info.TotalKB)
	}

	m.used = clampPercent(100 - 100*info.AvailableKB/info.TotalKB)
	m.text = fmt.Sprintf("%s%02d%%", m.icon, int(math.Round(m.used)))
	return nil
}

func (m *Memory) Render() string {
	if m.text == "" {
		return Fallback
	}
	return m.text
}
