package util

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// ParseSize converts a size string like "8G", "512M", "2048K" into bytes.
func ParseSize(sizeStr string) (int64, error) {
	var value int64
	var unit string

	sizeStr = strings.TrimSpace(sizeStr)
	n, err := fmt.Sscanf(sizeStr, "%d%s", &value, &unit)
	if err != nil || n != 2 {
		// No unit: plain bytes.
		n, err = fmt.Sscanf(sizeStr, "%d", &value)
		if err != nil || n != 1 {
			return 0, fmt.Errorf("invalid size format '%s'. Expected format like '8G', '512M', or '2048'", sizeStr)
		}
		unit = "B"
	}
	if value < 0 {
		return 0, fmt.Errorf("size must not be negative: '%s'", sizeStr)
	}

	var multiplier int64 = 1
	switch strings.ToUpper(unit) {
	case "K", "KB", "KIB":
		multiplier = 1 << 10
	case "M", "MB", "MIB":
		multiplier = 1 << 20
	case "G", "GB", "GIB":
		multiplier = 1 << 30
	case "T", "TB", "TIB":
		multiplier = 1 << 40
	case "", "B":
	default:
		return 0, fmt.Errorf("unknown size unit '%s' in '%s'", unit, sizeStr)
	}
	if value > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size '%s' is too large", sizeStr)
	}
	value *= multiplier

	return value, nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// FileSize returns the size in bytes of the regular file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}
