package matcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sweta-tw/superfill.ai/internal/llm"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

const (
	// DefaultAITimeout bounds one model round trip.
	DefaultAITimeout = 30 * time.Second

	alternativePenalty = 0.1
)

// AIMatcher delegates scoring to a language model. Any failure of the model
// call hands the whole field set to the fallback strategy.
type AIMatcher struct {
	client   llm.Client
	fallback Matcher
	timeout  time.Duration
}

// AIOption configures an AIMatcher.
type AIOption func(*AIMatcher)

// WithTimeout overrides DefaultAITimeout.
func WithTimeout(d time.Duration) AIOption {
	return func(m *AIMatcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewAIMatcher creates an AI strategy. A nil fallback uses FallbackMatcher.
func NewAIMatcher(client llm.Client, fallback Matcher, opts ...AIOption) *AIMatcher {
	if fallback == nil {
		fallback = NewFallbackMatcher()
	}
	m := &AIMatcher{client: client, fallback: fallback, timeout: DefaultAITimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *AIMatcher) Name() string {
	if m.client == nil {
		return "ai"
	}
	return "ai:" + string(m.client.Provider())
}

// Match asks the model for mappings. On any error the result is exactly
// what the fallback strategy returns for the same input.
func (m *AIMatcher) Match(ctx context.Context, fields []types.CompressedField, records []types.CompressedRecord) []types.FieldMapping {
	if len(fields) == 0 {
		return []types.FieldMapping{}
	}

	mappings, err := m.matchWithModel(ctx, fields, records)
	if err != nil {
		logging.MatchWarn("AI matching failed, delegating %d fields to %s: %v", len(fields), m.fallback.Name(), err)
		return m.fallback.Match(ctx, fields, records)
	}
	logging.MatchDebug("AI matched %d fields against %d records", len(fields), len(records))
	return mappings
}

func (m *AIMatcher) matchWithModel(ctx context.Context, fields []types.CompressedField, records []types.CompressedRecord) (mappings []types.FieldMapping, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model client panicked: %v", r)
		}
	}()

	if m.client == nil {
		return nil, fmt.Errorf("no model client configured")
	}
	valid := usableRecords(records)
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable records")
	}

	prompt, err := buildUserPrompt(fields, valid)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	raw, err := m.client.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	matches, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	return resolve(fields, valid, matches), nil
}

// resolve maps model output back onto the input fields, in input order.
func resolve(fields []types.CompressedField, records []types.CompressedRecord, matches []aiMatch) []types.FieldMapping {
	byRecord := make(map[string]types.CompressedRecord, len(records))
	for _, r := range records {
		byRecord[r.ID] = r
	}
	byField := make(map[types.FieldID]aiMatch, len(matches))
	for _, am := range matches {
		if _, dup := byField[am.FieldID]; !dup {
			byField[am.FieldID] = am
		}
	}

	out := make([]types.FieldMapping, 0, len(fields))
	for _, f := range fields {
		if f.Type == types.FieldPassword {
			out = append(out, nullMapping(f.ID, 0, passwordReasoning))
			continue
		}
		am, ok := byField[f.ID]
		if !ok {
			out = append(out, nullMapping(f.ID, 0, "No mapping generated"))
			continue
		}
		out = append(out, resolveOne(f.ID, am, byRecord))
	}
	return out
}

func resolveOne(id types.FieldID, am aiMatch, byRecord map[string]types.CompressedRecord) types.FieldMapping {
	reasoning := strings.TrimSpace(am.Reasoning)
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	mapping := nullMapping(id, am.Confidence, reasoning)

	proposed := ""
	if am.MemoryID != nil {
		proposed = *am.MemoryID
		r, known := byRecord[proposed]
		switch {
		case !known:
			logging.MatchDebug("%s: dropping unknown record id %q", id, proposed)
		case mapping.Confidence >= MinMatchConfidence:
			mapping.RecordID = r.ID
			mapping.Value = r.Answer
		}
	}

	altConfidence := round2(mapping.Confidence - alternativePenalty)
	seen := map[string]bool{proposed: true}
	for _, altID := range am.AlternativeMatches {
		if len(mapping.Alternatives) == types.MaxAlternatives {
			break
		}
		r, known := byRecord[altID]
		if !known || seen[altID] {
			continue
		}
		seen[altID] = true
		mapping.Alternatives = append(mapping.Alternatives, types.Alternative{
			RecordID:   r.ID,
			Value:      r.Answer,
			Confidence: altConfidence,
		})
	}
	return mapping
}
