package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MemoryInfo holds the two /proc/meminfo keys the status line needs, in kB.
type MemoryInfo struct {
	TotalKB     float64
	AvailableKB float64
}

func ReadMemInfo(path string) (MemoryInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseMemInfo(f)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ParseMemInfo(r io.Reader) (MemoryInfo, error) {
	var out MemoryInfo
	var haveTotal, haveAvail bool
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		switch {
		case !haveTotal && strings.Contains(line, "MemTotal"):
			v, ok := firstNumber(line)
			if !ok {
				return MemoryInfo{}, fmt.Errorf("no value on line %q", line)
			}
			out.TotalKB, haveTotal = v, true
		case !haveAvail && strings.Contains(line, "MemAvailable"):
			v, ok := firstNumber(line)
			if !ok {
				return MemoryInfo{}, fmt.Errorf("no value on line %q", line)
			}
			out.AvailableKB, haveAvail = v, true
		}
	}
	if err := s.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("scan meminfo: %w", err)
	}
	if !haveTotal {
		return MemoryInfo{}, fmt.Errorf("MemTotal missing")
	}
	if !haveAvail {
		return MemoryInfo{}, fmt.Errorf("MemAvailable missing")
	}
	return out, nil
}

func firstNumber(line string) (float64, bool) {
	for _, field := range strings.Fields(line) {
		v, err := strconv.ParseFloat(field, 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}
