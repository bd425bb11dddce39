package sampler

import (
	"context"
	"time"
)

// DateTimeLayout renders e.g. "Friday Oct 2026-10-16 14:05".
const DateTimeLayout = "Monday Jan 2006-01-02 15:04"

type DateTime struct {
	icon string
	now  Clock

	at  time.Time
	set bool
}

func NewDateTime(icon string) *DateTime {
	return &DateTime{icon: icon, now: time.Now}
}

func (d *DateTime) Update(_ context.Context) error {
	d.at = d.now().Local()
	d.set = true
	return nil
}

func (d *DateTime) Render() string {
	if !d.set {
		return Fallback
	}
	return d.icon + d.at.Format(DateTimeLayout)
}
