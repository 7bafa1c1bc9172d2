package common

import (
	"math"
	"strings"
)

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// IndexOf returns the index of the first header matching any of the
// candidates (case-insensitive, surrounding spaces ignored), or -1.
func IndexOf(headers []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), candidate) {
				return i
			}
		}
	}
	return -1
}
