package decision

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Phase is a step of the fill pipeline as reported to the UI.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseDetecting      Phase = "detecting"
	PhaseAnalyzing      Phase = "analyzing"
	PhaseMatching       Phase = "matching"
	PhaseShowingPreview Phase = "showing-preview"
	PhaseFilling        Phase = "filling"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

var phaseOrder = map[Phase]int{
	PhaseIdle:           0,
	PhaseDetecting:      1,
	PhaseAnalyzing:      2,
	PhaseMatching:       3,
	PhaseShowingPreview: 4,
	PhaseFilling:        5,
	PhaseCompleted:      6,
}

// Terminal reports whether no transition can leave p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// ErrInvalidTransition is returned for backward, repeated or post-terminal
// moves.
var ErrInvalidTransition = errors.New("invalid progress transition")

// Transition records one state change.
type Transition struct {
	From   Phase
	To     Phase
	Reason string // set on failure
	At     time.Time
}

// Reporter receives every accepted transition. It is called synchronously
// and must not call back into the Progress.
type Reporter func(Transition)

// Progress is the pipeline state machine:
// idle -> detecting -> analyzing -> matching -> showing-preview -> filling -> completed,
// with failed reachable from every non-terminal phase. Phases may be skipped
// but never revisited.
type Progress struct {
	mu       sync.RWMutex
	current  Phase
	reason   string
	history  []Transition
	reporter Reporter
}

// NewProgress creates a Progress in PhaseIdle. reporter may be nil.
func NewProgress(reporter Reporter) *Progress {
	return &Progress{current: PhaseIdle, reporter: reporter}
}

// Current returns the current phase.
func (p *Progress) Current() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// FailureReason returns the reason passed to Fail, if any.
func (p *Progress) FailureReason() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reason
}

// History returns a copy of the accepted transitions.
func (p *Progress) History() []Transition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Transition(nil), p.history...)
}

// Advance moves forward to next. Advancing to PhaseFailed is the same as
// Fail with an empty reason.
func (p *Progress) Advance(next Phase) error {
	if next == PhaseFailed {
		return p.Fail("")
	}

	p.mu.Lock()
	from := p.current
	target, known := phaseOrder[next]
	if !known || from.Terminal() || target <= phaseOrder[from] {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	t := p.record(from, next, "")
	p.mu.Unlock()

	p.report(t)
	return nil
}

// Fail moves to PhaseFailed from any non-terminal phase.
func (p *Progress) Fail(reason string) error {
	p.mu.Lock()
	from := p.current
	if from.Terminal() {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, PhaseFailed)
	}
	p.reason = reason
	t := p.record(from, PhaseFailed, reason)
	p.mu.Unlock()

	p.report(t)
	return nil
}

func (p *Progress) record(from, to Phase, reason string) Transition {
	t := Transition{From: from, To: to, Reason: reason, At: time.Now()}
	p.current = to
	p.history = append(p.history, t)
	return t
}

func (p *Progress) report(t Transition) {
	if p.reporter != nil {
		p.reporter(t)
	}
}
