package dom

import (
	"encoding/json"
	"fmt"
	"io"
)

// SnapshotNode is the JSON shape produced by the browser snapshot script.
type SnapshotNode struct {
	Kind     string            `json:"kind"` // "element" or "text"
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Rect     *Rect             `json:"rect,omitempty"`
	Visible  *bool             `json:"visible,omitempty"`
	Children []SnapshotNode    `json:"children,omitempty"`
	Shadow   *SnapshotNode     `json:"shadow,omitempty"`
}

// DecodeSnapshot reads a JSON snapshot into an Element tree.
func DecodeSnapshot(r io.Reader) (*Element, error) {
	var root SnapshotNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return FromSnapshot(root), nil
}

// UnmarshalSnapshot is DecodeSnapshot for an in-memory payload.
func UnmarshalSnapshot(data []byte) (*Element, error) {
	var root SnapshotNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return FromSnapshot(root), nil
}

// FromSnapshot converts a decoded snapshot. Invisible nodes keep their
// attributes but lose their layout box.
func FromSnapshot(sn SnapshotNode) *Element {
	return fromSnapshot(sn, true)
}

func fromSnapshot(sn SnapshotNode, parentVisible bool) *Element {
	visible := parentVisible && (sn.Visible == nil || *sn.Visible)

	var e *Element
	if sn.Kind == "text" {
		e = NewText(sn.Text)
	} else {
		e = NewElement(sn.Tag, sn.Attrs)
	}
	if sn.Rect != nil && visible {
		e.rect = *sn.Rect
	}
	for _, c := range sn.Children {
		e.AppendChild(fromSnapshot(c, visible))
	}
	if sn.Shadow != nil {
		sr := e.AttachShadow()
		for _, c := range sn.Shadow.Children {
			sr.AppendChild(fromSnapshot(c, visible))
		}
	}
	return e
}

// ToSnapshot converts an Element tree back to its JSON shape. Boxes are kept
// as they are, so hidden content stays hidden through a round trip.
func ToSnapshot(e *Element) SnapshotNode {
	if e.kind == TextNode {
		sn := SnapshotNode{Kind: "text", Text: e.text}
		if e.rect != (Rect{}) {
			r := e.rect
			sn.Rect = &r
		}
		return sn
	}

	sn := SnapshotNode{Kind: "element", Tag: e.tag}
	if len(e.attrs) > 0 {
		sn.Attrs = make(map[string]string, len(e.attrs))
		for k, v := range e.attrs {
			sn.Attrs[k] = v
		}
	}
	if e.rect != (Rect{}) {
		r := e.rect
		sn.Rect = &r
	}
	for _, c := range e.children {
		sn.Children = append(sn.Children, ToSnapshot(c.(*Element)))
	}
	if e.shadow != nil {
		shadow := ToSnapshot(e.shadow)
		sn.Shadow = &shadow
	}
	return sn
}
