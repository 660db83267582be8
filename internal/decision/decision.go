// Package decision annotates mappings for the UI and tracks pipeline
// progress.
package decision

import (
	"math"

	"github.com/sweta-tw/superfill.ai/internal/types"
)

// DefaultThreshold is the auto-fill threshold used when none is configured.
const DefaultThreshold = 0.8

// ApplyAutoFill returns a copy of mappings with AutoFill set on every mapping
// that carries a record and value and whose confidence reaches threshold.
// The threshold is clamped to [0,1]. Nothing else in a mapping changes.
func ApplyAutoFill(mappings []types.FieldMapping, threshold float64) []types.FieldMapping {
	threshold = clamp(threshold)
	out := make([]types.FieldMapping, len(mappings))
	for i, m := range mappings {
		m.AutoFill = m.Matched() && m.Confidence >= threshold
		out[i] = m
	}
	return out
}

// CountAutoFill returns how many mappings are flagged for auto-fill.
func CountAutoFill(mappings []types.FieldMapping) int {
	n := 0
	for _, m := range mappings {
		if m.AutoFill {
			n++
		}
	}
	return n
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultThreshold
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
