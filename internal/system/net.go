package system

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrInterfaceNotFound = errors.New("interface not found")

// NetCounters are the cumulative byte counters of one interface.
type NetCounters struct {
	RxBytes uint64
	TxBytes uint64
}

func ReadNetDev(path, iface string) (NetCounters, error) {
	f, err := os.Open(path)
	if err != nil {
		return NetCounters{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := ParseNetDev(f, iface)
	if err != nil {
		return NetCounters{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseNetDev picks the line of iface. The received bytes counter is the
// first field after the colon, transmitted bytes the ninth.
func ParseNetDev(r io.Reader, iface string) (NetCounters, error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) != iface {
			continue
		}
		metrics := strings.Fields(parts[1])
		if len(metrics) < 9 {
			return NetCounters{}, fmt.Errorf("unexpected counter line for %s: %q", iface, line)
		}
		rx, rxErr := strconv.ParseUint(metrics[0], 10, 64)
		if rxErr != nil {
			return NetCounters{}, fmt.Errorf("parse rx bytes %q: %w", metrics[0], rxErr)
		}
		tx, txErr := strconv.ParseUint(metrics[8], 10, 64)
		if txErr != nil {
			return NetCounters{}, fmt.Errorf("parse tx bytes %q: %w", metrics[8], txErr)
		}
		return NetCounters{RxBytes: rx, TxBytes: tx}, nil
	}
	if err := s.Err(); err != nil {
		return NetCounters{}, fmt.Errorf("scan net dev: %w", err)
	}
	return NetCounters{}, fmt.Errorf("%q: %w", iface, ErrInterfaceNotFound)
}
