package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweta-tw/superfill.ai/internal/config"
	"github.com/sweta-tw/superfill.ai/internal/detector"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

func visibleControl(attrs map[string]string, style map[string]string) Control {
	if style == nil {
		style = map[string]string{}
	}
	return Control{Tag: "input", Attrs: attrs, Rect: dom.Rect{X: 10, Y: 10, Width: 200, Height: 28}, Style: style}
}

func TestCheckHoneypot(t *testing.T) {
	tests := []struct {
		name     string
		control  Control
		expected bool
		reasons  []string
	}{
		{
			name:     "Ordinary field",
			control:  visibleControl(map[string]string{"name": "email"}, map[string]string{"opacity": "1", "left": "auto"}),
			expected: false,
		},
		{
			name:     "Opacity zero",
			control:  visibleControl(map[string]string{"name": "email2"}, map[string]string{"opacity": "0"}),
			expected: true,
			reasons:  []string{"Hidden via opacity:0"},
		},
		{
			name:     "Off-screen by left",
			control:  visibleControl(map[string]string{"name": "url"}, map[string]string{"position": "absolute", "left": "-9999px"}),
			expected: true,
			reasons:  []string{"Positioned off-screen"},
		},
		{
			name: "Off-screen by rect",
			control: Control{Attrs: map[string]string{"name": "x"}, Rect: dom.Rect{X: -500, Y: 10, Width: 200, Height: 28},
				Style: map[string]string{}},
			expected: true,
			reasons:  []string{"Positioned off-screen"},
		},
		{
			name: "Tiny",
			control: Control{Attrs: map[string]string{"name": "x"}, Rect: dom.Rect{X: 10, Y: 10, Width: 1, Height: 1},
				Style: map[string]string{}},
			expected: true,
			reasons:  []string{"Zero or near-zero size"},
		},
		{
			name:     "Clipped",
			control:  visibleControl(map[string]string{"name": "x"}, map[string]string{"clip": "rect(0px, 0px, 0px, 0px)"}),
			expected: true,
			reasons:  []string{"Clipped to zero size"},
		},
		{
			name:     "Suspicious name",
			control:  visibleControl(map[string]string{"name": "leave_this_blank"}, nil),
			expected: true,
			reasons:  []string{"Suspicious name pattern"},
		},
		{
			name:     "Single weak signal",
			control:  visibleControl(map[string]string{"name": "search", "tabindex": "-1"}, nil),
			expected: false,
			reasons:  []string{"Not keyboard accessible (negative tabindex)"},
		},
		{
			name:     "Two weak signals",
			control:  visibleControl(map[string]string{"name": "website", "tabindex": "-1", "autocomplete": "off"}, nil),
			expected: true,
			reasons:  []string{"Not keyboard accessible (negative tabindex)", "Autocomplete disabled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := CheckHoneypot(tt.control)
			assert.Equal(t, tt.expected, hp.IsHoneypot)
			assert.Equal(t, tt.reasons, hp.Reasons)
			if len(tt.reasons) == 0 {
				assert.Zero(t, hp.Confidence)
			} else {
				assert.Greater(t, hp.Confidence, 0.5)
			}
		})
	}
}

func TestHoneypotConfidence(t *testing.T) {
	assert.Equal(t, 0.0, honeypotConfidence(0))
	assert.InDelta(t, 0.65, honeypotConfidence(1), 1e-9)
	assert.Equal(t, 1.0, honeypotConfidence(5))
}

const pageJSON = `{
	"url": "https://example.test/signup",
	"title": "Sign up",
	"root": {"kind": "element", "tag": "html", "rect": {"x":0,"y":0,"width":1280,"height":900}, "children": [
		{"kind": "element", "tag": "body", "rect": {"x":0,"y":0,"width":1280,"height":900}, "children": [
			{"kind": "element", "tag": "form", "rect": {"x":8,"y":8,"width":400,"height":120}, "children": [
				{"kind": "element", "tag": "label", "attrs": {"for": "email"}, "rect": {"x":8,"y":8,"width":80,"height":18},
					"children": [{"kind": "text", "text": "Email", "rect": {"x":8,"y":8,"width":35,"height":18}}]},
				{"kind": "element", "tag": "input", "attrs": {"id": "email", "type": "email", "data-superfill-ref": "0"},
					"rect": {"x":100,"y":8,"width":200,"height":28}, "visible": true, "style": {"opacity": "1", "left": "auto"}},
				{"kind": "element", "tag": "input", "attrs": {"name": "hp_website", "type": "text", "data-superfill-ref": "1"},
					"rect": {"x":100,"y":48,"width":200,"height":28}, "visible": true, "style": {"left": "auto"}},
				{"kind": "element", "tag": "input", "attrs": {"type": "hidden", "data-superfill-ref": "2"},
					"rect": {"x":0,"y":0,"width":0,"height":0}, "visible": false, "style": {}}
			]},
			{"kind": "element", "tag": "my-widget", "rect": {"x":8,"y":200,"width":300,"height":40},
				"shadow": {"kind": "element", "tag": "#shadow-root", "children": [
					{"kind": "element", "tag": "input", "attrs": {"name": "city", "placeholder": "City", "data-superfill-ref": "3"},
						"rect": {"x":8,"y":200,"width":200,"height":28}, "visible": true, "style": {}}
				]}}
		]}
	]},
	"truncated": false
}`

func TestDecodePage(t *testing.T) {
	snap, err := decodePage([]byte(pageJSON))
	require.NoError(t, err)
	assert.Equal(t, "Sign up", snap.Title)
	require.Len(t, snap.Honeypots, 1)
	assert.Equal(t, "hp_website", snap.Honeypots[0].Name)
	assert.Equal(t, "1", snap.Honeypots[0].Ref)

	result := detector.New(detector.Options{}).Detect(snap.Root)
	require.True(t, result.Success)
	fields := result.Fields()
	require.Len(t, fields, 2, "honeypot and hidden inputs are skipped")

	assert.Equal(t, types.FieldEmail, fields[0].Type)
	assert.Equal(t, "Email", fields[0].Labels.Explicit)
	ref, ok := refOf(fields[0].Element)
	require.True(t, ok)
	assert.Equal(t, 0, ref)

	assert.Equal(t, "city", fields[1].Name)
	ref, ok = refOf(fields[1].Element)
	require.True(t, ok)
	assert.Equal(t, 3, ref)
}

func TestDecodePage_Errors(t *testing.T) {
	_, err := decodePage([]byte(`not json`))
	assert.Error(t, err)
	_, err = decodePage([]byte(`{"url":"x"}`))
	assert.ErrorIs(t, err, dom.ErrNilRoot)
}

func TestConfigFrom(t *testing.T) {
	c := ConfigFrom(config.DefaultConfig().Browser)
	assert.True(t, c.Headless)
	assert.Equal(t, 1280, c.GetViewportWidth())
	assert.Equal(t, 900, c.GetViewportHeight())

	assert.Equal(t, 1280, Config{}.GetViewportWidth())
	assert.Equal(t, int64(30000), Config{}.NavigationTimeout().Milliseconds())
}

func TestRefOf(t *testing.T) {
	_, ok := refOf(nil)
	assert.False(t, ok)
	_, ok = refOf(dom.NewElement("input", map[string]string{RefAttr: "x"}))
	assert.False(t, ok)
	ref, ok := refOf(dom.NewElement("input", map[string]string{RefAttr: " 7 "}))
	assert.True(t, ok)
	assert.Equal(t, 7, ref)
}

func TestSessionManager_UnknownSessionDoesNotStartBrowser(t *testing.T) {
	sm := NewSessionManager(DefaultConfig())
	assert.False(t, sm.IsConnected())
	assert.Empty(t, sm.ControlURL())

	_, ok := sm.GetSession("missing")
	assert.False(t, ok)
	assert.ErrorIs(t, sm.Navigate(context.Background(), "missing", "https://example.com"), ErrUnknownSession)
	assert.ErrorIs(t, sm.CloseSession("missing"), ErrUnknownSession)
	assert.False(t, sm.IsConnected(), "navigating an unknown session launches nothing")
}
