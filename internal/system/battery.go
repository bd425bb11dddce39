package system

import (
	"fmt"
	"os"
	"strings"
)

func ReadBatteryCapacity(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	v := strings.TrimSpace(string(raw))
	if v == "" {
		return "", fmt.Errorf("%s: empty capacity", path)
	}
	return v, nil
}
