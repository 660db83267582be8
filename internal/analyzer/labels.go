package analyzer

import (
	"strings"

	"github.com/sweta-tw/superfill.ai/internal/dom"
)

var dataLabelAttrs = []string{"data-label", "data-field-label", "data-title", "data-name"}

var helperClassHints = []string{"help", "hint", "description"}

// explicitLabel reads a label[for] association, falling back to the nearest
// enclosing label. Nested control text is stripped.
func (a *Analyzer) explicitLabel(el dom.Node) string {
	if id := dom.AttrOr(el, "id"); id != "" {
		if l, ok := a.labelFor[id]; ok {
			if s := clean(dom.TextContentExcluding(l, dom.IsFormControl)); s != "" {
				return s
			}
		}
	}
	if p := el.Parent(); p != nil {
		if l := dom.Closest(p, func(n dom.Node) bool { return n.Tag() == "label" }); l != nil {
			return clean(dom.TextContentExcluding(l, dom.IsFormControl))
		}
	}
	return ""
}

func (a *Analyzer) ariaLabel(el dom.Node) string {
	if s := clean(dom.AttrOr(el, "aria-label")); s != "" {
		return s
	}
	return a.textOfIDs(dom.AttrOr(el, "aria-labelledby"))
}

func (a *Analyzer) helperText(el dom.Node) string {
	if s := a.textOfIDs(dom.AttrOr(el, "aria-describedby")); s != "" {
		return s
	}
	// Siblings of the field, then siblings of its wrapper.
	for cur, depth := el, 0; cur != nil && depth < 2; cur, depth = cur.Parent(), depth+1 {
		parent := cur.Parent()
		if parent == nil {
			break
		}
		for _, sib := range parent.Children() {
			if sib == cur || sib.Kind() != dom.ElementNode {
				continue
			}
			if dom.ClassContains(sib, helperClassHints...) {
				if s := clean(dom.TextContent(sib)); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func dataLabel(el dom.Node) string {
	for _, attr := range dataLabelAttrs {
		if s := clean(dom.AttrOr(el, attr)); s != "" {
			return s
		}
	}
	return ""
}

// textOfIDs joins the text of the elements referenced by a space separated
// id list.
func (a *Analyzer) textOfIDs(ids string) string {
	var parts []string
	for _, id := range strings.Fields(ids) {
		if n, ok := a.byID[id]; ok {
			if t := dom.TextContent(n); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return clean(strings.Join(parts, " "))
}
