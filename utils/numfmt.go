package utils

import (
	"strconv"
	"strings"
)

// FormatFloat prints f with six decimals, drops trailing zeros and the
// trailing dot, and prints negative zero as "0".
func FormatFloat(f float64) string {
	r := strconv.FormatFloat(f, 'f', 6, 64)
	r = strings.TrimRight(r, "0")
	r = strings.TrimSuffix(r, ".")
	if r == "-0" {
		return "0"
	}
	return r
}

func FormatFloats(fs ...float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = FormatFloat(f)
	}
	return strings.Join(parts, " ")
}
