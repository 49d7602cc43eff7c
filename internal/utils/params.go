// Package utils holds small parsing helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, ignoring surrounding whitespace.
// Empty or malformed input yields def.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// LimitParam parses a ?limit value. Missing, malformed, or non-positive
// input yields 0, which services read as "use the default".
func LimitParam(s string) int {
	if n := AtoiDefault(s, 0); n > 0 {
		return n
	}
	return 0
}
