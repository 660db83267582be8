package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

func el(tag string, attrs map[string]string, r dom.Rect, children ...*dom.Element) *dom.Element {
	return dom.NewElement(tag, attrs).SetRect(r).AppendChild(children...)
}

func txt(s string, r dom.Rect) *dom.Element {
	return dom.NewText(s).SetRect(r)
}

func box(x, y, w, h float64) dom.Rect {
	return dom.Rect{X: x, Y: y, Width: w, Height: h}
}

func analyze(root *dom.Element, field dom.Node) types.FieldDescriptor {
	a := New(0)
	a.Reset(root)
	return a.Analyze(field, "field_1")
}

func TestExplicitLabel(t *testing.T) {
	t.Run("for attribute", func(t *testing.T) {
		input := el("input", map[string]string{"id": "email"}, box(0, 30, 200, 28))
		root := el("body", nil, box(0, 0, 800, 600),
			el("label", map[string]string{"for": "email"}, box(0, 0, 40, 18), txt(" Email\n address ", box(0, 0, 40, 18))),
			input,
		)
		assert.Equal(t, "Email address", analyze(root, input).Labels.Explicit)
	})

	t.Run("wrapping label strips nested controls", func(t *testing.T) {
		sel := el("select", nil, box(60, 0, 200, 28),
			el("option", nil, box(60, 0, 200, 28), txt("Germany", box(60, 0, 200, 28))),
		)
		root := el("body", nil, box(0, 0, 800, 600),
			el("label", nil, box(0, 0, 260, 28), txt("Country", box(0, 0, 50, 18)), sel),
		)
		fd := analyze(root, sel)
		assert.Equal(t, "Country", fd.Labels.Explicit)
		assert.Equal(t, types.FieldSelect, fd.Type)
		assert.Equal(t, []string{"Germany"}, fd.Options)
		assert.Equal(t, types.PurposeCountry, fd.Purpose)
	})
}

func TestAriaAndDataLabels(t *testing.T) {
	input := el("input", map[string]string{
		"aria-labelledby":  "l1 l2",
		"data-field-label": "Mobile",
	}, box(0, 100, 200, 28))
	root := el("body", nil, box(0, 0, 800, 600),
		el("span", map[string]string{"id": "l1"}, dom.Rect{}, txt("Contact", dom.Rect{})),
		el("span", map[string]string{"id": "l2"}, dom.Rect{}, txt("number", dom.Rect{})),
		input,
	)

	fd := analyze(root, input)
	assert.Equal(t, "Contact number", fd.Labels.ARIA)
	assert.Equal(t, "Mobile", fd.Labels.Data)
	assert.Equal(t, types.PurposePhone, fd.Purpose)

	direct := el("input", map[string]string{"aria-label": "Search", "aria-labelledby": "l1"}, box(0, 0, 10, 10))
	assert.Equal(t, "Search", analyze(el("body", nil, dom.Rect{}, direct), direct).Labels.ARIA)
}

func TestHelperText(t *testing.T) {
	t.Run("describedby", func(t *testing.T) {
		input := el("input", map[string]string{"aria-describedby": "hint"}, box(0, 0, 200, 28))
		root := el("body", nil, dom.Rect{},
			input,
			el("p", map[string]string{"id": "hint"}, dom.Rect{}, txt("We never share it", dom.Rect{})),
		)
		assert.Equal(t, "We never share it", analyze(root, input).Labels.Helper)
	})

	t.Run("sibling of wrapper with hint class", func(t *testing.T) {
		input := el("input", nil, box(0, 0, 200, 28))
		root := el("body", nil, dom.Rect{},
			el("div", map[string]string{"class": "control"}, dom.Rect{}, input),
			el("small", map[string]string{"class": "form-text Help-block"}, dom.Rect{}, txt("Format: DD/MM/YYYY", dom.Rect{})),
		)
		assert.Equal(t, "Format: DD/MM/YYYY", analyze(root, input).Labels.Helper)
	})
}

func TestLabelLengthBound(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	input := el("input", map[string]string{"placeholder": string(long)}, box(0, 0, 10, 10))
	fd := analyze(el("body", nil, dom.Rect{}, input), input)
	assert.Len(t, fd.Labels.Placeholder, MaxLabelLength)
}

func TestPositionalLabel_Directions(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	root := el("body", nil, box(0, 0, 1200, 800),
		el("span", nil, dom.Rect{}, txt("Left far", box(0, 200, 60, 18))),       // gap 240: too far
		el("span", nil, dom.Rect{}, txt("Phone", box(220, 205, 40, 18))),        // gap 40
		el("span", nil, dom.Rect{}, txt("optional", box(520, 205, 56, 18))),     // gap 20
		el("span", nil, dom.Rect{}, txt("Phone number", box(300, 150, 90, 18))), // 32 above, overlapping
		el("span", nil, dom.Rect{}, txt("Header", box(300, 40, 90, 18))),        // 142 above: too far
		el("span", nil, dom.Rect{}, txt("Below", box(300, 240, 90, 18))),
		input,
	)

	fd := analyze(root, input)
	assert.Equal(t, "Phone", fd.Labels.Left)
	assert.Equal(t, "optional", fd.Labels.Right)
	assert.Equal(t, "Phone number", fd.Labels.Top)
	assert.Equal(t, types.PurposePhone, fd.Purpose)
}

func TestPositionalLabel_RowOverlapRequired(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	root := el("body", nil, dom.Rect{},
		el("span", nil, dom.Rect{}, txt("Not in row", box(200, 100, 60, 18))),
		input,
	)
	a := New(0)
	a.Reset(root)
	assert.Empty(t, a.PositionalLabel(input, "field_1", Left))
}

func TestPositionalLabel_TopHorizontalGap(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	root := el("body", nil, dom.Rect{},
		el("span", nil, dom.Rect{}, txt("Far aside", box(560, 170, 60, 18))),  // 60px right of field
		el("span", nil, dom.Rect{}, txt("Near aside", box(200, 170, 60, 18))), // 40px left of field
		input,
	)
	a := New(0)
	a.Reset(root)
	assert.Equal(t, "Near aside", a.PositionalLabel(input, "field_1", Top))
}

func TestPositionalLabel_TieKeepsEncounterOrder(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	root := el("body", nil, dom.Rect{},
		el("span", nil, dom.Rect{}, txt("First", box(300, 170, 40, 18))),
		el("span", nil, dom.Rect{}, txt("Second", box(400, 170, 40, 18))),
		input,
	)
	a := New(0)
	a.Reset(root)
	assert.Equal(t, "First", a.PositionalLabel(input, "field_1", Top))
}

func TestPositionalLabel_Rejections(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	root := el("body", nil, dom.Rect{},
		el("button", nil, dom.Rect{}, txt("Go", box(260, 205, 30, 18))),
		el("span", map[string]string{"class": "btn-primary"}, dom.Rect{}, txt("Subscribe", box(520, 205, 60, 18))),
		el("div", map[string]string{"role": "button"}, dom.Rect{},
			el("span", nil, dom.Rect{}, txt("Use my location", box(300, 180, 90, 18))),
		),
		el("span", nil, dom.Rect{}, txt("- or -", box(300, 176, 40, 18))),
		el("span", nil, dom.Rect{}, txt("Email", box(300, 150, 40, 18))),
		input,
	)

	a := New(0)
	a.Reset(root)
	assert.Empty(t, a.PositionalLabel(input, "field_1", Left), "text inside a button is not a label")
	assert.Empty(t, a.PositionalLabel(input, "field_1", Right), "call-to-action containers are skipped")
	assert.Equal(t, "Email", a.PositionalLabel(input, "field_1", Top), "clickable wrappers and connectors are skipped above")
}

func TestPositionalLabel_CachedPerPass(t *testing.T) {
	input := el("input", nil, box(300, 200, 200, 28))
	label := txt("Company", box(220, 205, 50, 18))
	root := el("body", nil, dom.Rect{}, el("span", nil, dom.Rect{}, label), input)

	a := New(0)
	a.Reset(root)

	first := a.PositionalLabel(input, "field_1", Left)
	second := a.PositionalLabel(input, "field_1", Left)
	assert.Equal(t, "Company", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, a.Scans(), "second lookup is served from the memo")

	// A mutated tree needs a fresh pass.
	label.SetRect(box(0, 0, 0, 0))
	assert.Equal(t, "Company", a.PositionalLabel(input, "field_1", Left), "stale within the pass")
	a.Reset(root)
	assert.Empty(t, a.PositionalLabel(input, "field_1", Left))
	assert.Equal(t, 1, a.Scans())
}

func TestPositionalLabel_ZeroBoxField(t *testing.T) {
	input := el("input", nil, dom.Rect{})
	root := el("body", nil, dom.Rect{}, el("span", nil, dom.Rect{}, txt("Name", box(0, 0, 40, 18))), input)
	a := New(0)
	a.Reset(root)
	assert.Empty(t, a.PositionalLabel(input, "field_1", Left))
	assert.Zero(t, a.Scans())
}

func TestAnalyze_Attributes(t *testing.T) {
	input := el("input", map[string]string{
		"type":         "EMAIL",
		"name":         "contact_email",
		"id":           "ce",
		"value":        "x@y.z",
		"required":     "",
		"readonly":     "",
		"maxlength":    "64",
		"autocomplete": "work email",
	}, box(0, 0, 200, 28))
	fd := analyze(el("body", nil, dom.Rect{}, input), input)

	assert.Equal(t, types.FieldID("field_1"), fd.ID)
	assert.Same(t, input, fd.Element)
	assert.Equal(t, types.FieldEmail, fd.Type)
	assert.Equal(t, types.PurposeEmail, fd.Purpose)
	assert.Equal(t, "contact_email", fd.Name)
	assert.Equal(t, "ce", fd.HTMLID)
	assert.Equal(t, "x@y.z", fd.Value)
	assert.True(t, fd.Required)
	assert.True(t, fd.ReadOnly)
	assert.False(t, fd.Disabled)
	assert.Equal(t, 64, fd.MaxLength)
	assert.Equal(t, box(0, 0, 200, 28), fd.Rect)
}

func TestFieldTypeOf(t *testing.T) {
	tests := []struct {
		tag, typ string
		want     types.FieldType
	}{
		{"input", "", types.FieldText},
		{"input", "search", types.FieldText},
		{"input", "Tel", types.FieldTel},
		{"input", "datetime-local", types.FieldDate},
		{"input", "password", types.FieldPassword},
		{"textarea", "", types.FieldTextarea},
		{"select", "", types.FieldSelect},
	}
	for _, tt := range tests {
		attrs := map[string]string{}
		if tt.typ != "" {
			attrs["type"] = tt.typ
		}
		assert.Equal(t, tt.want, FieldTypeOf(dom.NewElement(tt.tag, attrs)), "%s[type=%s]", tt.tag, tt.typ)
	}
}

func TestInferPurpose(t *testing.T) {
	tests := []struct {
		name  string
		ft    types.FieldType
		ac    string
		texts []string
		want  types.Purpose
	}{
		{"declared email", types.FieldEmail, "", []string{"Company"}, types.PurposeEmail},
		{"declared tel", types.FieldTel, "", nil, types.PurposePhone},
		{"autocomplete beats keywords", types.FieldText, "shipping postal-code", []string{"City"}, types.PurposeZip},
		{"autocomplete org title", types.FieldText, "organization-title", nil, types.PurposeTitle},
		{"email keyword", types.FieldText, "", []string{"E-mail address"}, types.PurposeEmail},
		{"email before address", types.FieldText, "", []string{"Email Address"}, types.PurposeEmail},
		{"first name", types.FieldText, "", []string{"First Name"}, types.PurposeName},
		{"bare name attribute", types.FieldText, "", []string{"name"}, types.PurposeName},
		{"username is not a name", types.FieldText, "", []string{"username"}, types.PurposeUnknown},
		{"street", types.FieldText, "", []string{"Street line 1"}, types.PurposeAddress},
		{"city", types.FieldText, "", []string{"Town / City"}, types.PurposeCity},
		{"state", types.FieldText, "", []string{"State"}, types.PurposeState},
		{"zip", types.FieldText, "", []string{"ZIP"}, types.PurposeZip},
		{"country", types.FieldText, "", []string{"Nationality"}, types.PurposeCountry},
		{"company", types.FieldText, "", []string{"Organisation"}, types.PurposeCompany},
		{"job title", types.FieldText, "", []string{"Job title"}, types.PurposeTitle},
		{"unknown", types.FieldText, "", []string{"Favorite Book"}, types.PurposeUnknown},
		{"no text", types.FieldText, "", nil, types.PurposeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferPurpose(tt.ft, tt.ac, tt.texts...))
		})
	}
}

func TestNew_DefaultCacheSize(t *testing.T) {
	a := New(-1)
	require.NotNil(t, a)
	a.Reset(nil)
	assert.Empty(t, a.PositionalLabel(dom.NewElement("input", nil).SetRect(box(0, 0, 10, 10)), "field_1", Top))
}
