package dom

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_VisitsShadowBeforeLightChildren(t *testing.T) {
	host := NewElement("x-widget", nil)
	host.AttachShadow().AppendChild(NewElement("input", map[string]string{"id": "inner"}))
	host.AppendChild(NewElement("input", map[string]string{"id": "light"}))
	root := NewElement("body", nil).AppendChild(host)

	var ids []string
	require.NoError(t, Walk(root, func(n Node) bool {
		if id, ok := n.Attr("id"); ok {
			ids = append(ids, id)
		}
		return true
	}))
	assert.Equal(t, []string{"inner", "light"}, ids)
}

func TestWalk_SkipSubtree(t *testing.T) {
	root := NewElement("body", nil).AppendChild(
		NewElement("div", map[string]string{"id": "skip"}).AppendChild(NewElement("input", map[string]string{"id": "hidden"})),
		NewElement("input", map[string]string{"id": "kept"}),
	)

	var ids []string
	require.NoError(t, Walk(root, func(n Node) bool {
		id, _ := n.Attr("id")
		if id == "skip" {
			return false
		}
		if id != "" {
			ids = append(ids, id)
		}
		return true
	}))
	assert.Equal(t, []string{"kept"}, ids)
}

func TestWalk_NilRoot(t *testing.T) {
	assert.ErrorIs(t, Walk(nil, func(Node) bool { return true }), ErrNilRoot)
}

func TestTextContentExcluding(t *testing.T) {
	label := NewElement("label", nil).AppendChild(
		NewText("  Country\n "),
		NewElement("select", nil).AppendChild(
			NewElement("option", nil).AppendChild(NewText("Germany")),
		),
	)
	assert.Equal(t, "Country Germany", TextContent(label))
	assert.Equal(t, "Country", TextContentExcluding(label, IsFormControl))
}

func TestClosest_CrossesShadowBoundary(t *testing.T) {
	form := NewElement("form", nil)
	host := NewElement("x-field", nil)
	input := NewElement("input", nil)
	host.AttachShadow().AppendChild(input)
	form.AppendChild(host)

	got := Closest(input, func(n Node) bool { return n.Tag() == "form" })
	assert.Same(t, form, got)
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 30, Height: 15}, a.Union(b))
	assert.Equal(t, a, a.Union(Rect{}))
	assert.True(t, Rect{Width: 10}.IsZero())
}

func TestDecodeSnapshot(t *testing.T) {
	payload := `{
	  "kind": "element", "tag": "BODY", "rect": {"x":0,"y":0,"width":800,"height":600},
	  "children": [
	    {"kind": "element", "tag": "input", "attrs": {"id": "a"}, "rect": {"x":10,"y":10,"width":200,"height":28}},
	    {"kind": "element", "tag": "div", "visible": false, "rect": {"x":0,"y":50,"width":100,"height":20},
	     "children": [{"kind": "element", "tag": "input", "attrs": {"id": "b"}, "rect": {"x":0,"y":50,"width":100,"height":20}}]},
	    {"kind": "element", "tag": "x-card", "shadow": {"kind": "element", "children": [
	      {"kind": "text", "text": "Inside", "rect": {"x":0,"y":90,"width":42,"height":18}}
	    ]}}
	  ]
	}`

	root, err := DecodeSnapshot(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "body", root.Tag())

	kids := root.Children()
	require.Len(t, kids, 3)
	assert.Equal(t, 200.0, kids[0].Rect().Width)
	assert.True(t, kids[1].Children()[0].Rect().IsZero(), "invisible subtree loses its boxes")

	sr := kids[2].ShadowRoot()
	require.NotNil(t, sr)
	assert.Equal(t, "Inside", sr.Children()[0].Text())
	assert.Same(t, kids[2], sr.Parent())
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	_, err := DecodeSnapshot(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func findByID(t *testing.T, root Node, id string) Node {
	t.Helper()
	var found Node
	_ = Walk(root, func(n Node) bool {
		if v, ok := n.Attr("id"); ok && v == id {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "element #%s", id)
	return found
}

func TestParseHTML_FlowLayout(t *testing.T) {
	src := `<html><body>
	  <form>
	    <div><label for="email">Email</label><input id="email"></div>
	    <div><span id="top">Full name</span></div>
	    <div><input id="name"></div>
	  </form>
	</body></html>`

	root, err := ParseHTML(strings.NewReader(src), DefaultLayoutOptions())
	require.NoError(t, err)

	email := findByID(t, root, "email").Rect()
	assert.Equal(t, Rect{X: 47, Y: 8, Width: 200, Height: 28}, email)

	label := findByID(t, root, "top").Children()[0].Rect()
	name := findByID(t, root, "name").Rect()
	assert.Less(t, label.Bottom(), name.Y, "label row sits above the input row")
	assert.Equal(t, label.X, name.X)
}

func TestParseHTML_HiddenContentHasNoBox(t *testing.T) {
	src := `<body>
	  <input id="h" type="hidden" name="csrf">
	  <div style="display: none"><input id="inside"></div>
	  <input id="attr" hidden>
	  <input id="shown">
	</body>`

	root, err := ParseHTML(strings.NewReader(src), DefaultLayoutOptions())
	require.NoError(t, err)

	for _, id := range []string{"h", "inside", "attr"} {
		assert.True(t, findByID(t, root, id).Rect().IsZero(), id)
	}
	assert.False(t, findByID(t, root, "shown").Rect().IsZero())
}

func TestParseHTML_ExplicitRect(t *testing.T) {
	src := `<body><span id="s" data-rect="100, 40, 60, 20">Phone</span></body>`

	root, err := ParseHTML(strings.NewReader(src), DefaultLayoutOptions())
	require.NoError(t, err)

	span := findByID(t, root, "s")
	want := Rect{X: 100, Y: 40, Width: 60, Height: 20}
	assert.Equal(t, want, span.Rect())
	assert.Equal(t, want, span.Children()[0].Rect())
}

func TestParseHTML_DeclarativeShadowRoot(t *testing.T) {
	src := `<body><x-field id="host"><template shadowrootmode="open"><input id="inner"></template></x-field></body>`

	root, err := ParseHTML(strings.NewReader(src), DefaultLayoutOptions())
	require.NoError(t, err)

	host := findByID(t, root, "host")
	require.NotNil(t, host.ShadowRoot())
	inner := findByID(t, root, "inner")
	assert.False(t, inner.Rect().IsZero())
}

func TestToSnapshot_RoundTrip(t *testing.T) {
	page := `<html><body><form>
<label for="email">Email</label><input id="email" name="email">
<input id="secret" style="display:none">
<x-card><template shadowrootmode="open"><input id="inner"></template></x-card>
</form></body></html>`
	root, err := ParseHTML(strings.NewReader(page), DefaultLayoutOptions())
	require.NoError(t, err)

	data, err := json.Marshal(ToSnapshot(root))
	require.NoError(t, err)
	back, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	for _, id := range []string{"email", "secret", "inner"} {
		want := findByID(t, root, id)
		got := findByID(t, back, id)
		assert.Equal(t, want.Rect(), got.Rect(), id)
	}
	name, _ := findByID(t, back, "email").Attr("name")
	assert.Equal(t, "email", name)
	assert.True(t, findByID(t, back, "secret").Rect().IsZero())
}
