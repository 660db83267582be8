// Package engine runs the fill pipeline: detect, compress, match, decide,
// and on acceptance report usage back to the record store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sweta-tw/superfill.ai/internal/config"
	"github.com/sweta-tw/superfill.ai/internal/decision"
	"github.com/sweta-tw/superfill.ai/internal/detector"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/llm"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/matcher"
	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

var (
	ErrDetectionFailed = errors.New("form detection failed")
	ErrNotPreviewing   = errors.New("run is not showing a preview")
)

// Options configures an Engine.
type Options struct {
	Threshold      float64 // auto-fill threshold, clamped to [0,1]
	MaxFields      int     // fields per page; zero means no cap
	MaxRecords     int     // records per matching call; zero means no cap
	LabelCacheSize int
	// Reporter, when set, receives every progress transition of every run.
	Reporter decision.Reporter
	// Usage, when set, collects matching statistics.
	Usage *usage.Tracker
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return Options{
		Threshold:      decision.DefaultThreshold,
		MaxFields:      200,
		MaxRecords:     50,
		LabelCacheSize: 2048,
	}
}

// Engine owns one detector and one matching strategy. Passes are serialized.
type Engine struct {
	mu       sync.Mutex
	opts     Options
	detector *detector.Detector
	matcher  matcher.Matcher
	store    memory.Store
}

// New creates an engine. A nil matcher uses the rule-based strategy; store
// may be nil when only Detect and Match are used.
func New(store memory.Store, m matcher.Matcher, opts Options) *Engine {
	if m == nil {
		m = matcher.NewFallbackMatcher()
	}
	return &Engine{
		opts: opts,
		detector: detector.New(detector.Options{
			MaxFields:      opts.MaxFields,
			LabelCacheSize: opts.LabelCacheSize,
		}),
		matcher: m,
		store:   store,
	}
}

// FromConfig builds an engine from configuration. The AI strategy is used
// when enabled and a provider is configured; it always falls back to the
// rule-based one.
func FromConfig(cfg *config.Config, store memory.Store) (*Engine, error) {
	opts := Options{
		Threshold:      cfg.Engine.AutoFillThreshold,
		MaxFields:      cfg.Engine.MaxFieldsPerPage,
		MaxRecords:     cfg.Engine.MaxRecords,
		LabelCacheSize: cfg.Engine.LabelCacheSize,
	}

	var m matcher.Matcher = matcher.NewFallbackMatcher()
	if cfg.AIEnabled() {
		client, err := llm.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		if client != nil {
			m = matcher.NewAIMatcher(client, m, matcher.WithTimeout(cfg.GetLLMTimeout()))
		}
	}
	logging.Engine("Matching strategy: %s (threshold %.2f)", m.Name(), opts.Threshold)
	return New(store, m, opts), nil
}

// TrackUsage routes matching statistics to t. Call before the first run.
func (e *Engine) TrackUsage(t *usage.Tracker) {
	e.opts.Usage = t
}

// Strategy returns the matcher name.
func (e *Engine) Strategy() string {
	return e.matcher.Name()
}

// Detect runs one detection pass over root.
func (e *Engine) Detect(root dom.Node) types.DetectionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector.Detect(root)
}

// MatchableFields compresses fields for matching. Password fields are
// excluded and the field cap applied.
func (e *Engine) MatchableFields(fields []types.FieldDescriptor) []types.CompressedField {
	out := make([]types.CompressedField, 0, len(fields))
	for _, f := range fields {
		if f.Type == types.FieldPassword {
			continue
		}
		if e.opts.MaxFields > 0 && len(out) == e.opts.MaxFields {
			logging.EngineWarn("Field cap %d reached, dropping %d fields", e.opts.MaxFields, len(fields)-len(out))
			break
		}
		out = append(out, types.Compress(f))
	}
	return out
}

// Match proposes mappings for fields and applies the auto-fill decision.
// Records past the record cap are dropped. A context that is already done
// goes straight to the rule-based strategy.
func (e *Engine) Match(ctx context.Context, fields []types.CompressedField, records []types.CompressedRecord) types.MatchResult {
	start := time.Now()
	if e.opts.MaxRecords > 0 && len(records) > e.opts.MaxRecords {
		records = records[:e.opts.MaxRecords]
	}

	var m matcher.Matcher = e.matcher
	if err := ctx.Err(); err != nil {
		m = matcher.NewFallbackMatcher()
		logging.EngineWarn("Matching with %s instead of %s: %v", m.Name(), e.matcher.Name(), err)
	}

	mappings := m.Match(ctx, fields, records)
	mappings = decision.ApplyAutoFill(mappings, e.opts.Threshold)

	elapsed := time.Since(start)
	autoFill := decision.CountAutoFill(mappings)
	logging.Engine("Matched %d fields against %d records with %s in %v (%d auto-fill)",
		len(fields), len(records), m.Name(), elapsed, autoFill)
	if e.opts.Usage != nil {
		matched := 0
		for _, fm := range mappings {
			if fm.Matched() {
				matched++
			}
		}
		e.opts.Usage.TrackMatch(usage.MatchEvent{
			Strategy: m.Name(),
			Fields:   len(fields),
			Records:  len(records),
			Matched:  matched,
			AutoFill: autoFill,
			Duration: elapsed,
		})
	}
	return types.MatchResult{
		Success:        true,
		Mappings:       mappings,
		ProcessingTime: elapsed,
		Strategy:       m.Name(),
	}
}

// LoadRecords reads up to the record cap from the store and compresses them.
func (e *Engine) LoadRecords(ctx context.Context) ([]types.CompressedRecord, []memory.ValidationIssue, error) {
	if e.store == nil {
		return nil, nil, fmt.Errorf("no record store configured")
	}
	records, err := e.store.List(ctx, e.opts.MaxRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load records: %w", err)
	}
	compressed, issues := memory.Compress(records)
	if len(issues) > 0 {
		logging.EngineDebug("Skipped %d invalid records", len(issues))
	}
	return compressed, issues, nil
}

func (e *Engine) newProgress(runID string) *decision.Progress {
	return decision.NewProgress(func(t decision.Transition) {
		if t.To == decision.PhaseFailed {
			logging.EngineWarn("run %s: %s -> failed: %s", runID, t.From, t.Reason)
		} else {
			logging.EngineDebug("run %s: %s -> %s", runID, t.From, t.To)
		}
		if e.opts.Reporter != nil {
			e.opts.Reporter(t)
		}
	})
}
