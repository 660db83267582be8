// Package dom models the document tree the detector walks.
// Any tree that can enumerate children, read attributes and report a
// layout box satisfies Node; shadow boundaries are exposed through
// ShadowRoot so traversal stays platform neutral.
package dom

import (
	"errors"
	"strings"
)

// ErrNilRoot is returned when a traversal is started without a root.
var ErrNilRoot = errors.New("dom: nil root")

// Kind discriminates element nodes from text nodes.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
)

// ShadowRootTag is the tag reported by shadow root containers.
const ShadowRootTag = "#shadow-root"

// Rect is a layout box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// IsZero reports whether the box has no rendered area.
func (r Rect) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest box covering r and o. Zero boxes are ignored.
func (r Rect) Union(o Rect) Rect {
	if o.IsZero() {
		return r
	}
	if r.IsZero() {
		return o
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Node is the capability set the engine needs from a document tree.
type Node interface {
	Kind() Kind
	// Tag is the lowercase element name; empty for text nodes.
	Tag() string
	Attr(name string) (string, bool)
	// Text is the node's own text. Only text nodes carry text.
	Text() string
	Rect() Rect
	Children() []Node
	// ShadowRoot returns the encapsulated subtree hosted by the node, or nil.
	ShadowRoot() Node
	Parent() Node
}

// Element is the in-memory Node implementation used by the snapshot decoder,
// the HTML parser and tests.
type Element struct {
	kind     Kind
	tag      string
	attrs    map[string]string
	text     string
	rect     Rect
	children []Node
	shadow   *Element
	parent   *Element
}

// NewElement creates an element node. Attribute names are case-folded.
func NewElement(tag string, attrs map[string]string) *Element {
	e := &Element{kind: ElementNode, tag: strings.ToLower(tag), attrs: make(map[string]string, len(attrs))}
	for k, v := range attrs {
		e.attrs[strings.ToLower(k)] = v
	}
	return e
}

// NewText creates a text node.
func NewText(text string) *Element {
	return &Element{kind: TextNode, text: text}
}

func (e *Element) Kind() Kind  { return e.kind }
func (e *Element) Tag() string { return e.tag }
func (e *Element) Text() string {
	return e.text
}
func (e *Element) Rect() Rect { return e.rect }

func (e *Element) Attr(name string) (string, bool) {
	if e.attrs == nil {
		return "", false
	}
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

func (e *Element) Children() []Node { return e.children }

func (e *Element) ShadowRoot() Node {
	if e.shadow == nil {
		return nil
	}
	return e.shadow
}

func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) *Element {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[strings.ToLower(name)] = value
	return e
}

// SetRect sets the layout box and returns e for chaining.
func (e *Element) SetRect(r Rect) *Element {
	e.rect = r
	return e
}

// AppendChild attaches children in order and returns e.
func (e *Element) AppendChild(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

// AttachShadow creates (or returns) the shadow root hosted by e.
func (e *Element) AttachShadow() *Element {
	if e.shadow == nil {
		e.shadow = &Element{kind: ElementNode, tag: ShadowRootTag, attrs: map[string]string{}, parent: e}
	}
	return e.shadow
}
