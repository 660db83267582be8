// Package analyzer turns one field element into a FieldDescriptor: basic
// attributes, every label channel side by side, and an inferred purpose.
//
// An Analyzer is bound to one detection pass. Reset must be called with the
// pass root before the first Analyze; it drops every index and memoized
// positional label from the previous pass.
package analyzer

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

const (
	// DefaultCacheSize bounds the positional label memo.
	DefaultCacheSize = 2048

	// MaxLabelLength bounds every label channel, in runes.
	MaxLabelLength = 120

	maxOptions = 20
)

// Analyzer inspects field elements for one detection pass.
type Analyzer struct {
	cache *lru.Cache[labelKey, string]

	root     dom.Node
	byID     map[string]dom.Node
	labelFor map[string]dom.Node

	candidates      []textCandidate
	candidatesBuilt bool

	scans int
}

// New creates an analyzer whose positional label memo holds at most
// cacheSize entries. Non-positive sizes use DefaultCacheSize.
func New(cacheSize int) *Analyzer {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[labelKey, string](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Analyzer{cache: cache}
}

// Reset binds the analyzer to a new pass root. The label memo and all
// per-pass indexes are cleared, then the id and label[for] indexes are
// rebuilt from root.
func (a *Analyzer) Reset(root dom.Node) {
	a.cache.Purge()
	a.root = root
	a.byID = make(map[string]dom.Node)
	a.labelFor = make(map[string]dom.Node)
	a.candidates = nil
	a.candidatesBuilt = false
	a.scans = 0

	if root == nil {
		return
	}
	_ = dom.Walk(root, func(n dom.Node) bool {
		if n.Kind() != dom.ElementNode {
			return true
		}
		if id := dom.AttrOr(n, "id"); id != "" {
			if _, dup := a.byID[id]; !dup {
				a.byID[id] = n
			}
		}
		if n.Tag() == "label" {
			if target := dom.AttrOr(n, "for"); target != "" {
				if _, dup := a.labelFor[target]; !dup {
					a.labelFor[target] = n
				}
			}
		}
		return true
	})
}

// Scans reports how many positional candidate scans ran in this pass.
func (a *Analyzer) Scans() int {
	return a.scans
}

// Analyze produces the descriptor for el. The caller assigns the form id.
func (a *Analyzer) Analyze(el dom.Node, id types.FieldID) types.FieldDescriptor {
	ft := FieldTypeOf(el)
	labels := types.FieldLabels{
		Explicit:    a.explicitLabel(el),
		ARIA:        a.ariaLabel(el),
		Left:        a.PositionalLabel(el, id, Left),
		Right:       a.PositionalLabel(el, id, Right),
		Top:         a.PositionalLabel(el, id, Top),
		Data:        dataLabel(el),
		Helper:      a.helperText(el),
		Placeholder: clean(dom.AttrOr(el, "placeholder")),
	}

	fd := types.FieldDescriptor{
		ID:           id,
		Element:      el,
		Type:         ft,
		Labels:       labels,
		Name:         dom.AttrOr(el, "name"),
		HTMLID:       dom.AttrOr(el, "id"),
		Autocomplete: strings.ToLower(strings.TrimSpace(dom.AttrOr(el, "autocomplete"))),
		Rect:         el.Rect(),
		Value:        valueOf(el),
		Required:     dom.HasAttr(el, "required") || dom.AttrOr(el, "aria-required") == "true",
		Disabled:     dom.HasAttr(el, "disabled"),
		ReadOnly:     dom.HasAttr(el, "readonly"),
		MaxLength:    maxLength(el),
	}
	if ft == types.FieldSelect {
		fd.Options = optionTexts(el)
	}

	texts := append(labels.All(), fd.Name, fd.HTMLID)
	fd.Purpose = InferPurpose(ft, fd.Autocomplete, texts...)

	logging.AnalyzeDebug("%s: type=%s purpose=%s labels=%d", id, ft, fd.Purpose, len(labels.All()))
	return fd
}

// FieldTypeOf normalizes the control kind of el.
func FieldTypeOf(el dom.Node) types.FieldType {
	switch el.Tag() {
	case "textarea":
		return types.FieldTextarea
	case "select":
		return types.FieldSelect
	}
	switch t := strings.ToLower(strings.TrimSpace(dom.AttrOr(el, "type"))); t {
	case "email", "tel", "url", "radio", "checkbox", "date", "number", "password":
		return types.FieldType(t)
	case "datetime-local", "month", "week":
		return types.FieldDate
	default:
		return types.FieldText
	}
}

// clean trims, collapses whitespace and bounds s to MaxLabelLength runes.
func clean(s string) string {
	s = dom.CollapseSpace(s)
	if r := []rune(s); len(r) > MaxLabelLength {
		s = strings.TrimSpace(string(r[:MaxLabelLength]))
	}
	return s
}

func valueOf(el dom.Node) string {
	switch el.Tag() {
	case "textarea":
		return dom.TextContent(el)
	case "select":
		for _, opt := range options(el) {
			if dom.HasAttr(opt, "selected") {
				if v, ok := opt.Attr("value"); ok {
					return v
				}
				return dom.TextContent(opt)
			}
		}
		return ""
	}
	return dom.AttrOr(el, "value")
}

func maxLength(el dom.Node) int {
	n, err := strconv.Atoi(strings.TrimSpace(dom.AttrOr(el, "maxlength")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func options(el dom.Node) []dom.Node {
	var out []dom.Node
	_ = dom.Walk(el, func(n dom.Node) bool {
		if dom.IsTag(n, "option") {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func optionTexts(el dom.Node) []string {
	var out []string
	for _, opt := range options(el) {
		if t := clean(dom.TextContent(opt)); t != "" {
			out = append(out, t)
		}
		if len(out) == maxOptions {
			break
		}
	}
	return out
}
