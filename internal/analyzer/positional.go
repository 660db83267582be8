package analyzer

import (
	"math"
	"strings"
	"unicode"

	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

// Direction selects which side of a field a positional label is searched on.
type Direction int

const (
	Left Direction = iota
	Right
	Top
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Top:
		return "top"
	}
	return "unknown"
}

const (
	maxLateralDistance  = 200.0
	maxVerticalDistance = 100.0
	maxTopHorizontalGap = 50.0

	// Ancestor levels checked for clickable wrappers on top candidates.
	topClickableDepth = 3

	// Sub-pixel slack when comparing box edges.
	edgeTolerance = 1.0
)

var interactiveTags = []string{"input", "button", "a", "select", "textarea", "option"}

var ctaClassHints = []string{"btn", "button", "cta", "link"}

var clickableRoles = map[string]bool{"button": true, "link": true, "menuitem": true, "tab": true}

var connectorWords = map[string]bool{
	"or": true, "and": true, "continue": true, "sign": true, "sign in": true,
	"sign up": true, "log in": true, "login": true, "register": true, "next": true,
	"back": true, "submit": true, "skip": true, "with": true, "via": true,
}

type labelKey struct {
	field types.FieldID
	dir   Direction
}

type textCandidate struct {
	text      string
	rect      dom.Rect
	clickable bool // clickable wrapper within topClickableDepth
	connector bool
}

// PositionalLabel returns the nearest text in direction dir from el, or "".
// Results are memoized per field id and direction for the current pass.
func (a *Analyzer) PositionalLabel(el dom.Node, id types.FieldID, dir Direction) string {
	key := labelKey{field: id, dir: dir}
	if s, ok := a.cache.Get(key); ok {
		return s
	}
	s := a.scanPositional(el.Rect(), dir)
	a.cache.Add(key, s)
	return s
}

func (a *Analyzer) scanPositional(field dom.Rect, dir Direction) string {
	if field.IsZero() {
		return ""
	}
	a.buildCandidates()
	a.scans++

	best := ""
	bestDist := math.Inf(1)
	for _, c := range a.candidates {
		if dir == Top && (c.clickable || c.connector) {
			continue
		}
		d, ok := distance(field, c.rect, dir)
		if !ok {
			continue
		}
		// Strict comparison keeps the earliest candidate on ties.
		if d < bestDist {
			best, bestDist = c.text, d
		}
	}
	return best
}

func distance(field, c dom.Rect, dir Direction) (float64, bool) {
	switch dir {
	case Left, Right:
		rowOverlap := c.Y < field.Bottom() && c.Bottom() > field.Y
		if !rowOverlap {
			return 0, false
		}
		var gap float64
		if dir == Left {
			if c.Right() > field.X+edgeTolerance {
				return 0, false
			}
			gap = field.X - c.Right()
		} else {
			if c.X < field.Right()-edgeTolerance {
				return 0, false
			}
			gap = c.X - field.Right()
		}
		gap = math.Max(gap, 0)
		return gap, gap <= maxLateralDistance

	case Top:
		if c.Bottom() > field.Y+edgeTolerance {
			return 0, false
		}
		gap := math.Max(field.Y-c.Bottom(), 0)
		if gap > maxVerticalDistance {
			return 0, false
		}
		hOverlap := c.X < field.Right() && c.Right() > field.X
		if !hOverlap {
			var hGap float64
			if c.X >= field.Right() {
				hGap = c.X - field.Right()
			} else {
				hGap = field.X - c.Right()
			}
			if hGap > maxTopHorizontalGap {
				return 0, false
			}
		}
		return gap, true
	}
	return 0, false
}

// buildCandidates collects the pass's text-bearing leaves in encounter order.
func (a *Analyzer) buildCandidates() {
	if a.candidatesBuilt {
		return
	}
	a.candidatesBuilt = true
	if a.root == nil {
		return
	}
	_ = dom.Walk(a.root, func(n dom.Node) bool {
		if n.Kind() != dom.TextNode {
			return !dom.IsTag(n, "script", "style", "noscript")
		}
		text := clean(n.Text())
		if text == "" || n.Rect().IsZero() {
			return false
		}
		parent := n.Parent()
		if insideInteractive(parent) || dom.ClassContains(parent, ctaClassHints...) {
			return false
		}
		a.candidates = append(a.candidates, textCandidate{
			text:      text,
			rect:      n.Rect(),
			clickable: clickableWithin(parent, topClickableDepth),
			connector: isConnector(text),
		})
		return false
	})
}

func insideInteractive(n dom.Node) bool {
	return dom.Closest(n, func(e dom.Node) bool { return dom.IsTag(e, interactiveTags...) }) != nil
}

func clickableWithin(n dom.Node, depth int) bool {
	for cur, i := n, 0; cur != nil && i < depth; cur, i = cur.Parent(), i+1 {
		if cur.Kind() != dom.ElementNode {
			continue
		}
		if dom.IsTag(cur, "button", "a") || clickableRoles[strings.ToLower(dom.AttrOr(cur, "role"))] {
			return true
		}
		if dom.HasAttr(cur, "onclick") {
			return true
		}
	}
	return false
}

func isConnector(text string) bool {
	norm := strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	}))
	return norm == "" || connectorWords[norm]
}
