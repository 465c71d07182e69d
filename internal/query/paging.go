package query

import (
	"math"
	"strconv"
	"strings"
)

// Page size bounds. Order pages and auxiliary option lists use different
// defaults.
const (
	DefaultLimit     = 25
	MaxLimit         = 500
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ClampLimit maps non-positive values to def and caps at max.
func ClampLimit(n, def, max int) int {
	if n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// ParseLimit parses a raw limit parameter. Anything that is not a finite
// number falls back to def instead of erroring.
func ParseLimit(raw string, def, max int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	if f > float64(max) {
		return max
	}
	return ClampLimit(int(math.Floor(f)), def, max)
}

// ParseOffset parses a raw offset parameter, clamped to >= 0.
func ParseOffset(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// ClampOffset clamps an already-parsed offset to >= 0.
func ClampOffset(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
