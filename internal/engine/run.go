package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sweta-tw/superfill.ai/internal/decision"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

// Run is one pass of the pipeline over a page.
type Run struct {
	ID        string
	Detection types.DetectionResult
	Fields    []types.CompressedField
	Match     types.MatchResult
	Issues    []memory.ValidationIssue
	Progress  *decision.Progress
}

// Mapping returns the mapping for id.
func (r *Run) Mapping(id types.FieldID) (types.FieldMapping, bool) {
	for _, m := range r.Match.Mappings {
		if m.FieldID == id {
			return m, true
		}
	}
	return types.FieldMapping{}, false
}

// AutoFillIDs returns the fields flagged for auto-fill, in order.
func (r *Run) AutoFillIDs() []types.FieldID {
	var ids []types.FieldID
	for _, m := range r.Match.Mappings {
		if m.AutoFill {
			ids = append(ids, m.FieldID)
		}
	}
	return ids
}

// advance moves the run forward. A rejected move leaves the phase unchanged
// and is only logged.
func (r *Run) advance(next decision.Phase) {
	if err := r.Progress.Advance(next); err != nil {
		logging.EngineDebug("run %s: %v", r.ID, err)
	}
}

// fail moves the run to failed unless it already ended.
func (r *Run) fail(reason string) {
	if err := r.Progress.Fail(reason); err != nil {
		logging.EngineDebug("run %s: %v (reason: %s)", r.ID, err, reason)
	}
}

// Run detects the forms under root and matches them against the store. It
// stops in showing-preview; Accept finishes the run. On error the run is
// returned in the failed phase alongside the error.
func (e *Engine) Run(ctx context.Context, root dom.Node) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	run.Progress = e.newProgress(run.ID)
	fail := func(err error) (*Run, error) {
		run.fail(err.Error())
		return run, err
	}

	run.advance(decision.PhaseDetecting)
	run.Detection = e.Detect(root)
	if !run.Detection.Success {
		return fail(fmt.Errorf("%w: %s", ErrDetectionFailed, run.Detection.Error))
	}

	run.advance(decision.PhaseAnalyzing)
	run.Fields = e.MatchableFields(run.Detection.Fields())

	run.advance(decision.PhaseMatching)
	var records []types.CompressedRecord
	if len(run.Fields) > 0 {
		var err error
		records, run.Issues, err = e.LoadRecords(ctx)
		if err != nil {
			return fail(err)
		}
	}
	run.Match = e.Match(ctx, run.Fields, records)

	run.advance(decision.PhaseShowingPreview)
	logging.Engine("run %s: %d forms, %d fields, %d auto-fill", run.ID,
		len(run.Detection.Forms), len(run.Fields), len(run.AutoFillIDs()))
	return run, nil
}

// FillFunc writes an accepted value into the field it was matched to.
type FillFunc func(ctx context.Context, field types.FieldDescriptor, value string) error

// Accept accepts fields of a previewing run without touching any page. See
// AcceptAndFill.
func (e *Engine) Accept(ctx context.Context, run *Run, fieldIDs []types.FieldID) ([]types.FieldMapping, error) {
	return e.AcceptAndFill(ctx, run, fieldIDs, nil)
}

// AcceptAndFill finishes a previewing run: the accepted fields are filled
// through fill when it is non-nil, then the usage of every record used is
// incremented. Unknown or unmatched field ids are skipped. A fill or store
// error fails the run; usage is only counted once every fill succeeded.
func (e *Engine) AcceptAndFill(ctx context.Context, run *Run, fieldIDs []types.FieldID, fill FillFunc) ([]types.FieldMapping, error) {
	if run == nil || run.Progress == nil || run.Progress.Current() != decision.PhaseShowingPreview {
		return nil, ErrNotPreviewing
	}
	if err := run.Progress.Advance(decision.PhaseFilling); err != nil {
		return nil, err
	}

	var accepted []types.FieldMapping
	seen := make(map[types.FieldID]bool, len(fieldIDs))
	for _, id := range fieldIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		m, ok := run.Mapping(id)
		if !ok || !m.Matched() {
			logging.EngineDebug("run %s: nothing to fill for %s", run.ID, id)
			continue
		}
		accepted = append(accepted, m)
	}

	if len(accepted) > 0 && e.store == nil {
		err := fmt.Errorf("no record store configured")
		run.fail(err.Error())
		return nil, err
	}
	if fill != nil {
		if err := fillFields(ctx, run, accepted, fill); err != nil {
			run.fail(err.Error())
			return nil, err
		}
	}
	for _, m := range accepted {
		if err := e.store.IncrementUsage(ctx, m.RecordID); err != nil {
			err = fmt.Errorf("failed to record usage of %s: %w", m.RecordID, err)
			run.fail(err.Error())
			return nil, err
		}
	}

	run.advance(decision.PhaseCompleted)
	if e.opts.Usage != nil {
		e.opts.Usage.TrackAccepted(run.Match.Strategy, len(accepted))
	}
	logging.Engine("run %s: filled %d fields", run.ID, len(accepted))
	return accepted, nil
}

func fillFields(ctx context.Context, run *Run, accepted []types.FieldMapping, fill FillFunc) error {
	fields := make(map[types.FieldID]types.FieldDescriptor)
	for _, f := range run.Detection.Fields() {
		fields[f.ID] = f
	}
	for _, m := range accepted {
		if err := fill(ctx, fields[m.FieldID], m.Value); err != nil {
			return fmt.Errorf("failed to fill %s: %w", m.FieldID, err)
		}
	}
	return nil
}
