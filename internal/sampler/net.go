package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"wmstatus/internal/system"
)

const (
	rateWindowSize = 3
	// minElapsed guards the rate division against a clock that did not move.
	minElapsed = time.Millisecond
	bytesPerMB = 1e6
)

// rateWindow is a fixed FIFO of the most recent instantaneous rates.
type rateWindow [rateWindowSize]float64

func (w *rateWindow) push(v float64) {
	copy(w[:], w[1:])
	w[rateWindowSize-1] = v
}

func (w *rateWindow) mean() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum / rateWindowSize
}

// Network reports receive and transmit throughput of one interface, smoothed
// over the last three updates. When the interface cannot be read it renders
// Fallback rather than a stale speed.
type Network struct {
	path   string
	iface  string
	rxIcon string
	txIcon string
	now    Clock

	lastRx uint64
	lastTx uint64
	lastAt time.Time
	seeded bool

	rx    rateWindow
	tx    rateWindow
	ready bool
}

func NewNetwork(devPath, iface, rxIcon, txIcon string) *Network {
	return &Network{
		path:   devPath,
		iface:  iface,
		rxIcon: rxIcon,
		txIcon: txIcon,
		now:    time.Now,
	}
}

func (n *Network) Update(_ context.Context) error {
	c, err := system.ReadNetDev(n.path, n.iface)
	if err != nil {
		n.ready = false
		return fmt.Errorf("network: %w", err)
	}
	now := n.now()

	// A counter going backwards is a reset or a wrap: skip the sample and
	// start over from the new baseline.
	if !n.seeded || c.RxBytes < n.lastRx || c.TxBytes < n.lastTx {
		n.lastRx, n.lastTx, n.lastAt, n.seeded = c.RxBytes, c.TxBytes, now, true
		return nil
	}

	elapsed := now.Sub(n.lastAt)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	seconds := elapsed.Seconds()

	n.rx.push(float64(c.RxBytes-n.lastRx) / seconds)
	n.tx.push(float64(c.TxBytes-n.lastTx) / seconds)
	n.lastRx, n.lastTx, n.lastAt = c.RxBytes, c.TxBytes, now
	n.ready = true
	return nil
}

func (n *Network) Render() string {
	if !n.ready {
		return Fallback
	}
	return fmt.Sprintf("%s%.2f MB/s %s%.2f MB/s",
		n.rxIcon, n.rx.mean()/bytesPerMB, n.txIcon, n.tx.mean()/bytesPerMB)
}

// Rates returns the smoothed rates in bytes per second.
func (n *Network) Rates() (rx, tx float64, ok bool) {
	return n.rx.mean(), n.tx.mean(), n.ready
}

func (n *Network) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("iface", n.iface),
		slog.Bool("ready", n.ready),
		slog.String("rx_total", humanize.Bytes(n.lastRx)),
		slog.String("tx_total", humanize.Bytes(n.lastTx)),
		slog.String("rx_rate", humanize.Bytes(uint64(n.rx.mean()))+"/s"),
		slog.String("tx_rate", humanize.Bytes(uint64(n.tx.mean()))+"/s"),
	)
}
