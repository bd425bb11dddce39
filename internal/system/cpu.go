package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CPUCounters is the aggregate "cpu" line of /proc/stat in jiffies.
// Fields absent on older kernels stay zero.
type CPUCounters struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
	Total     uint64
}

func ReadCPUCounters(path string) (CPUCounters, error) {
	f, err := os.Open(path)
	if err != nil {
		return CPUCounters{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := ParseCPUStat(f)
	if err != nil {
		return CPUCounters{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func ParseCPUStat(r io.Reader) (CPUCounters, error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			return CPUCounters{}, fmt.Errorf("unexpected cpu line: %q", line)
		}
		if len(parts) > 11 {
			parts = parts[:11]
		}
		vals := make([]uint64, 0, len(parts)-1)
		for _, p := range parts[1:] {
			v, convErr := strconv.ParseUint(p, 10, 64)
			if convErr != nil {
				return CPUCounters{}, fmt.Errorf("parse cpu stat %q: %w", p, convErr)
			}
			vals = append(vals, v)
		}
		c := CPUCounters{}
		dst := []*uint64{&c.User, &c.Nice, &c.System, &c.Idle, &c.IOWait,
			&c.IRQ, &c.SoftIRQ, &c.Steal, &c.Guest, &c.GuestNice}
		for i, v := range vals {
			*dst[i] = v
			c.Total += v
		}
		return c, nil
	}
	if err := s.Err(); err != nil {
		return CPUCounters{}, fmt.Errorf("scan cpu stat: %w", err)
	}
	return CPUCounters{}, fmt.Errorf("cpu aggregate line not found")
}
