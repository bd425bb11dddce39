package sampler

import (
	"context"
	"fmt"

	"wmstatus/internal/system"
)

// Battery passes the kernel's capacity percentage through unchanged.
type Battery struct {
	path string
	icon string
	text string
}

func NewBattery(capacityPath, icon string) *Battery {
	return &Battery{path: capacityPath, icon: icon}
}

func (b *Battery) Update(_ context.Context) error {
	v, err := system.ReadBatteryCapacity(b.path)
	if err != nil {
		b.text = ""
		return fmt.Errorf("battery: %w", err)
	}
	b.text = b.icon + v + "%"
	return nil
}

func (b *Battery) Render() string {
	if b.text == "" {
		return Fallback
	}
	return b.text
}
