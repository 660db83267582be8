package dom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// LayoutOptions tunes the approximate flow layout applied to parsed HTML.
type LayoutOptions struct {
	Margin     float64 // page origin offset
	CharWidth  float64 // width of one text rune
	LineHeight float64 // height of a text line
	RowGap     float64 // vertical gap between block rows
	InlineGap  float64 // horizontal gap between inline boxes
}

// DefaultLayoutOptions returns the metrics used by ParseHTML.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Margin:     8,
		CharWidth:  7,
		LineHeight: 18,
		RowGap:     8,
		InlineGap:  4,
	}
}

var blockTags = map[string]bool{
	"html": true, "body": true, "div": true, "form": true, "p": true, "section": true,
	"article": true, "header": true, "footer": true, "main": true, "nav": true,
	"aside": true, "ul": true, "ol": true, "li": true, "fieldset": true, "legend": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tbody": true, "thead": true, "tr": true, "dl": true, "dt": true,
	"dd": true, "hr": true, "br": true,
}

var skippedTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "meta": true, "link": true, "title": true,
}

// ParseHTML parses a static document into an Element tree rooted at <html>.
// Boxes come from a data-rect="x,y,w,h" attribute when present and from an
// approximate flow layout otherwise: block elements open a new row and
// inline content flows left to right. Hidden content gets a zero box.
func ParseHTML(r io.Reader, opts LayoutOptions) (*Element, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var root *Element
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			root = convertHTML(c)
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("failed to parse html: no root element")
	}

	l := &flowLayout{opts: opts, x: opts.Margin, y: opts.Margin, lineStart: opts.Margin}
	l.layout(root, true)
	return root, nil
}

func convertHTML(n *html.Node) *Element {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	e := NewElement(n.Data, attrs)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				e.AppendChild(NewText(c.Data))
			}
		case html.ElementNode:
			if skippedTags[c.Data] {
				continue
			}
			if c.Data == "template" {
				if mode := getAttr(c, "shadowrootmode"); mode != "" {
					sr := e.AttachShadow()
					// Declarative shadow DOM content lives in the template's
					// content fragment, which x/net/html exposes as children.
					for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
						if child := convertChild(gc); child != nil {
							sr.AppendChild(child)
						}
					}
				}
				continue
			}
			e.AppendChild(convertHTML(c))
		}
	}
	return e
}

func convertChild(c *html.Node) *Element {
	switch c.Type {
	case html.TextNode:
		if strings.TrimSpace(c.Data) != "" {
			return NewText(c.Data)
		}
	case html.ElementNode:
		if !skippedTags[c.Data] {
			return convertHTML(c)
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

type flowLayout struct {
	opts      LayoutOptions
	x, y      float64
	lineStart float64
	rowHeight float64
}

func (l *flowLayout) newRow() {
	if l.x > l.lineStart || l.rowHeight > 0 {
		l.y += max(l.rowHeight, l.opts.LineHeight) + l.opts.RowGap
	}
	l.x = l.lineStart
	l.rowHeight = 0
}

func (l *flowLayout) place(w, h float64) Rect {
	r := Rect{X: l.x, Y: l.y, Width: w, Height: h}
	l.x += w + l.opts.InlineGap
	l.rowHeight = max(l.rowHeight, h)
	return r
}

func (l *flowLayout) layout(e *Element, visible bool) {
	visible = visible && !isHidden(e)

	if e.kind == TextNode {
		if visible {
			text := CollapseSpace(e.text)
			e.rect = l.place(float64(len([]rune(text)))*l.opts.CharWidth, l.opts.LineHeight)
		}
		return
	}

	if fixed, ok := parseRect(AttrOr(e, "data-rect")); ok && visible {
		l.layoutFixed(e, fixed)
		return
	}

	block := blockTags[e.tag]
	if block && visible {
		l.newRow()
	}

	if w, h, ok := controlSize(e); ok {
		if visible {
			e.rect = l.place(w, h)
		}
		// Control content (options, button text) shares the control's box.
		for _, c := range e.children {
			l.inherit(c.(*Element), e.rect)
		}
		return
	}

	var box Rect
	if e.shadow != nil {
		for _, c := range e.shadow.children {
			ce := c.(*Element)
			l.layout(ce, visible)
			box = box.Union(ce.rect)
		}
		e.shadow.rect = box
	}
	for _, c := range e.children {
		ce := c.(*Element)
		l.layout(ce, visible)
		box = box.Union(ce.rect)
	}
	if visible {
		e.rect = box
	}

	if block && visible {
		l.newRow()
	}
}

// layoutFixed places an element with an explicit box. A lone text child takes
// the element's box; other children flow from the box origin.
func (l *flowLayout) layoutFixed(e *Element, r Rect) {
	e.rect = r
	if len(e.children) == 1 && e.children[0].Kind() == TextNode {
		e.children[0].(*Element).rect = r
		return
	}
	saved := *l
	l.x, l.y, l.lineStart, l.rowHeight = r.X, r.Y, r.X, 0
	if e.shadow != nil {
		for _, c := range e.shadow.children {
			l.layout(c.(*Element), true)
		}
	}
	for _, c := range e.children {
		l.layout(c.(*Element), true)
	}
	*l = saved
}

func (l *flowLayout) inherit(e *Element, r Rect) {
	e.rect = r
	for _, c := range e.children {
		l.inherit(c.(*Element), r)
	}
}

func controlSize(e *Element) (float64, float64, bool) {
	switch e.tag {
	case "input":
		switch strings.ToLower(AttrOr(e, "type")) {
		case "checkbox", "radio":
			return 16, 16, true
		case "submit", "button", "reset":
			return float64(len([]rune(AttrOr(e, "value"))))*7 + 24, 28, true
		}
		return 200, 28, true
	case "select":
		return 200, 28, true
	case "textarea":
		return 300, 60, true
	case "button":
		return float64(len([]rune(TextContent(e))))*7 + 24, 28, true
	}
	return 0, 0, false
}

func isHidden(e *Element) bool {
	if e.kind != ElementNode {
		return false
	}
	if HasAttr(e, "hidden") {
		return true
	}
	if e.tag == "input" && strings.EqualFold(AttrOr(e, "type"), "hidden") {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(AttrOr(e, "style"), " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func parseRect(s string) (Rect, bool) {
	if s == "" {
		return Rect{}, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Rect{}, false
		}
		v[i] = f
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}
