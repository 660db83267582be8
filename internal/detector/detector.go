// Package detector walks a document tree and groups its fillable fields into
// forms. Every call to Detect is one pass: ids restart at 1 and the
// analyzer's per-pass state is rebuilt from scratch.
package detector

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sweta-tw/superfill.ai/internal/analyzer"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

const (
	fieldIDPrefix = "field_"
	formIDPrefix  = "form_"

	// IgnoreAttr marks an element as explicitly non-fillable.
	IgnoreAttr = "data-superfill-ignore"
)

var ignoredInputTypes = map[string]bool{
	"hidden": true, "submit": true, "reset": true, "button": true,
	"image": true, "file": true, "checkbox": true, "radio": true,
}

// Options configures a Detector.
type Options struct {
	// MaxFields caps the fields analyzed per pass. Zero means no cap.
	MaxFields int
	// LabelCacheSize bounds the analyzer's positional label memo.
	LabelCacheSize int
}

// Detector finds forms. A Detector is not safe for concurrent passes; callers
// serialize Detect calls against the same tree.
type Detector struct {
	opts     Options
	analyzer *analyzer.Analyzer
}

// New creates a detector.
func New(opts Options) *Detector {
	return &Detector{
		opts:     opts,
		analyzer: analyzer.New(opts.LabelCacheSize),
	}
}

// Analyzer exposes the analyzer of the most recent pass.
func (d *Detector) Analyzer() *analyzer.Analyzer {
	return d.analyzer
}

// Detect runs one detection pass. It never panics: traversal faults are
// reported through Success=false.
func (d *Detector) Detect(root dom.Node) (result types.DetectionResult) {
	passID := uuid.NewString()
	log := logging.Get(logging.CategoryDetect)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pass %s aborted: %v", passID, r)
			result = failure(passID, fmt.Sprintf("detection failed: %v", r))
		}
	}()

	if root == nil {
		return failure(passID, dom.ErrNilRoot.Error())
	}

	d.analyzer.Reset(root)
	p := &pass{d: d, root: root}
	if err := p.collect(); err != nil {
		log.Warn("pass %s: %v", passID, err)
		return failure(passID, err.Error())
	}

	forms := p.build()
	total := 0
	for _, f := range forms {
		total += len(f.Fields)
	}

	log.Debug("pass %s: %d forms, %d fields, %d positional scans", passID, len(forms), total, d.analyzer.Scans())
	return types.DetectionResult{
		Success:     true,
		Forms:       forms,
		TotalFields: total,
		PassID:      passID,
	}
}

func failure(passID, msg string) types.DetectionResult {
	return types.DetectionResult{
		Success: false,
		Forms:   []types.FormDescriptor{},
		Error:   msg,
		PassID:  passID,
	}
}

// =============================================================================
// PASS STATE
// =============================================================================

type formGroup struct {
	container dom.Node // nil for standalone
	fields    []dom.Node
}

type pass struct {
	d    *Detector
	root dom.Node

	groups     []*formGroup
	byNode     map[dom.Node]*formGroup
	byHTMLID   map[string]*formGroup
	standalone *formGroup
	deferred   []deferredField

	fieldCount int
	capped     bool
}

type deferredField struct {
	el     dom.Node
	formID string
}

// collect walks the tree once, assigning each valid field to its container.
func (p *pass) collect() error {
	p.byNode = make(map[dom.Node]*formGroup)
	p.byHTMLID = make(map[string]*formGroup)
	p.standalone = &formGroup{}

	err := dom.Walk(p.root, func(n dom.Node) bool {
		if n.Kind() != dom.ElementNode {
			return false
		}
		if isFormContainer(n) {
			g := &formGroup{container: n}
			p.groups = append(p.groups, g)
			p.byNode[n] = g
			if id := dom.AttrOr(n, "id"); id != "" {
				if _, dup := p.byHTMLID[id]; !dup {
					p.byHTMLID[id] = g
				}
			}
			return true
		}
		if !isFieldElement(n) {
			return true
		}
		if !isValidField(n) {
			return false
		}
		if owner := dom.AttrOr(n, "form"); owner != "" {
			// The owning form may appear later in document order.
			p.deferred = append(p.deferred, deferredField{el: n, formID: owner})
			return false
		}
		p.add(p.containerOf(n), n)
		return false
	})
	if err != nil {
		return err
	}

	for _, df := range p.deferred {
		g, ok := p.byHTMLID[df.formID]
		if !ok {
			g = p.containerOf(df.el)
		}
		p.add(g, df.el)
	}
	return nil
}

func (p *pass) containerOf(n dom.Node) *formGroup {
	c := dom.Closest(n.Parent(), isFormContainer)
	if c == nil {
		return p.standalone
	}
	if g, ok := p.byNode[c]; ok {
		return g
	}
	return p.standalone
}

func (p *pass) add(g *formGroup, n dom.Node) {
	if limit := p.d.opts.MaxFields; limit > 0 && p.fieldCount >= limit {
		if !p.capped {
			logging.DetectWarn("field cap of %d reached, remaining fields skipped", limit)
			p.capped = true
		}
		return
	}
	p.fieldCount++
	g.fields = append(g.fields, n)
}

// build analyzes the collected fields and assigns per-pass ids. Forms are
// emitted in container order with the standalone group last.
func (p *pass) build() []types.FormDescriptor {
	forms := make([]types.FormDescriptor, 0, len(p.groups)+1)
	fieldSeq, formSeq := 0, 0

	emit := func(g *formGroup) {
		if len(g.fields) == 0 {
			return
		}
		var fd types.FormDescriptor
		if g.container == nil {
			fd = types.FormDescriptor{ID: types.StandaloneFormID}
		} else {
			formSeq++
			fd = types.FormDescriptor{
				ID:      types.FormID(fmt.Sprintf("%s%d", formIDPrefix, formSeq)),
				Element: g.container,
				Action:  dom.AttrOr(g.container, "action"),
				Method:  strings.ToLower(dom.AttrOr(g.container, "method")),
				Name:    firstNonEmpty(dom.AttrOr(g.container, "name"), dom.AttrOr(g.container, "id")),
			}
		}
		for _, el := range g.fields {
			fieldSeq++
			desc := p.d.analyzer.Analyze(el, types.FieldID(fmt.Sprintf("%s%d", fieldIDPrefix, fieldSeq)))
			desc.FormID = fd.ID
			fd.Fields = append(fd.Fields, desc)
		}
		if isNoiseForm(fd) {
			logging.DetectDebug("dropping single unlabeled field form %s", fd.ID)
			return
		}
		forms = append(forms, fd)
	}

	for _, g := range p.groups {
		emit(g)
	}
	emit(p.standalone)
	return forms
}

// isNoiseForm flags a form reduced to one field with no label text on any
// channel and no inferable purpose.
func isNoiseForm(f types.FormDescriptor) bool {
	if len(f.Fields) != 1 {
		return false
	}
	only := f.Fields[0]
	return only.Labels.Empty() && only.Purpose == types.PurposeUnknown
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func isFormContainer(n dom.Node) bool {
	return n.Tag() == "form" || strings.EqualFold(dom.AttrOr(n, "role"), "form")
}

func isFieldElement(n dom.Node) bool {
	return dom.IsTag(n, "input", "select", "textarea", "button")
}

// isValidField applies the fillability filter.
func isValidField(n dom.Node) bool {
	if dom.HasAttr(n, IgnoreAttr) || dom.AttrOr(n, "aria-hidden") == "true" {
		return false
	}
	if n.Tag() == "button" {
		return false
	}
	if n.Tag() == "input" {
		if ignoredInputTypes[strings.ToLower(strings.TrimSpace(dom.AttrOr(n, "type")))] {
			return false
		}
	}
	return !n.Rect().IsZero()
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
