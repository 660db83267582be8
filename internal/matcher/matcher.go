// Package matcher proposes a record for every field. Two strategies share
// one contract: exactly one mapping per input field, in input order.
package matcher

import (
	"context"
	"math"

	"github.com/sweta-tw/superfill.ai/internal/types"
)

const (
	// MinMatchConfidence is the lowest rounded score accepted as a match.
	MinMatchConfidence = 0.35

	passwordReasoning = "Password fields are never matched"
)

// Matcher is a matching strategy.
type Matcher interface {
	Name() string
	// Match returns one mapping per field, in order. It never fails:
	// strategies degrade internally.
	Match(ctx context.Context, fields []types.CompressedField, records []types.CompressedRecord) []types.FieldMapping
}

// round2 rounds to two decimals and clamps to [0,1].
func round2(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v*100) / 100
}

func nullMapping(id types.FieldID, confidence float64, reasoning string) types.FieldMapping {
	return types.FieldMapping{
		FieldID:      id,
		Confidence:   round2(confidence),
		Reasoning:    reasoning,
		Alternatives: []types.Alternative{},
	}
}
