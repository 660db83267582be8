// Package types provides the shared data model of the detection and
// matching pipeline. Everything here is created fresh per pass and is never
// persisted by the engine itself.
package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweta-tw/superfill.ai/internal/dom"
)

// =============================================================================
// FIELD CLASSIFICATION
// =============================================================================

// FieldType is the normalized control kind of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldURL      FieldType = "url"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
	FieldPassword FieldType = "password"
)

// Purpose is the inferred semantic category of a field's expected content.
type Purpose string

const (
	PurposeName    Purpose = "name"
	PurposeEmail   Purpose = "email"
	PurposePhone   Purpose = "phone"
	PurposeAddress Purpose = "address"
	PurposeCity    Purpose = "city"
	PurposeState   Purpose = "state"
	PurposeZip     Purpose = "zip"
	PurposeCountry Purpose = "country"
	PurposeCompany Purpose = "company"
	PurposeTitle   Purpose = "title"
	PurposeUnknown Purpose = "unknown"
)

// FieldID identifies a field within one detection pass only.
type FieldID string

// FormID identifies a form within one detection pass only.
type FormID string

// StandaloneFormID is the sentinel id of the synthetic group that collects
// fields living outside any form container.
const StandaloneFormID FormID = "standalone"

// =============================================================================
// DESCRIPTORS
// =============================================================================

// FieldLabels keeps every label channel side by side.
type FieldLabels struct {
	Explicit    string `json:"explicit,omitempty"`
	ARIA        string `json:"aria,omitempty"`
	Left        string `json:"left,omitempty"`
	Right       string `json:"right,omitempty"`
	Top         string `json:"top,omitempty"`
	Data        string `json:"data,omitempty"`
	Helper      string `json:"helper,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// All returns the non-empty channels in precedence order, without duplicates.
func (l FieldLabels) All() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range []string{l.Explicit, l.ARIA, l.Left, l.Right, l.Top, l.Data, l.Helper, l.Placeholder} {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Empty reports whether no channel produced any text.
func (l FieldLabels) Empty() bool {
	return len(l.All()) == 0
}

// FieldDescriptor is the analyzed representation of one fillable control.
type FieldDescriptor struct {
	ID           FieldID     `json:"id"`
	Element      dom.Node    `json:"-"`
	Type         FieldType   `json:"type"`
	Purpose      Purpose     `json:"purpose"`
	Labels       FieldLabels `json:"labels"`
	Name         string      `json:"name,omitempty"`
	HTMLID       string      `json:"htmlId,omitempty"`
	Autocomplete string      `json:"autocomplete,omitempty"`
	Rect         dom.Rect    `json:"rect"`
	Value        string      `json:"value,omitempty"`
	Required     bool        `json:"required,omitempty"`
	Disabled     bool        `json:"disabled,omitempty"`
	ReadOnly     bool        `json:"readonly,omitempty"`
	MaxLength    int         `json:"maxLength,omitempty"`
	Options      []string    `json:"options,omitempty"`
	FormID       FormID      `json:"formId"`
}

// FormDescriptor groups fields sharing a form container. Element is nil for
// the standalone group.
type FormDescriptor struct {
	ID      FormID            `json:"id"`
	Element dom.Node          `json:"-"`
	Action  string            `json:"action,omitempty"`
	Method  string            `json:"method,omitempty"`
	Name    string            `json:"name,omitempty"`
	Fields  []FieldDescriptor `json:"fields"`
}

// DetectionResult is the detector's output. On failure Forms is empty and
// Error describes the fault.
type DetectionResult struct {
	Success     bool             `json:"success"`
	Forms       []FormDescriptor `json:"forms"`
	TotalFields int              `json:"totalFields"`
	Error       string           `json:"error,omitempty"`
	PassID      string           `json:"passId,omitempty"`
}

// Fields flattens the result in form order.
func (r DetectionResult) Fields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range r.Forms {
		out = append(out, f.Fields...)
	}
	return out
}

// =============================================================================
// MATCHING INPUT
// =============================================================================

// CompressedField is the minimal field shape handed to the matchers.
type CompressedField struct {
	ID          FieldID   `json:"id"`
	Type        FieldType `json:"type"`
	Purpose     Purpose   `json:"purpose"`
	Labels      []string  `json:"labels"`
	Placeholder string    `json:"placeholder,omitempty"`
	Helper      string    `json:"helper,omitempty"`
	Name        string    `json:"name,omitempty"`
	HTMLID      string    `json:"htmlId,omitempty"`
}

// Compress reduces a descriptor to its matching input.
func Compress(f FieldDescriptor) CompressedField {
	return CompressedField{
		ID:          f.ID,
		Type:        f.Type,
		Purpose:     f.Purpose,
		Labels:      f.Labels.All(),
		Placeholder: f.Labels.Placeholder,
		Helper:      f.Labels.Helper,
		Name:        f.Name,
		HTMLID:      f.HTMLID,
	}
}

// Context returns the field's contextual text: placeholder, helper text,
// name and id. Fields with none of those fall back to their labels.
func (f CompressedField) Context() string {
	parts := nonEmpty(f.Placeholder, f.Helper, f.Name, f.HTMLID)
	if len(parts) == 0 {
		parts = f.Labels
	}
	return strings.Join(parts, " ")
}

// LabelText joins all label channels.
func (f CompressedField) LabelText() string {
	return strings.Join(f.Labels, " ")
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CompressedRecord is the minimal record shape the matchers need.
type CompressedRecord struct {
	ID       string `json:"id"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// =============================================================================
// MATCHING OUTPUT
// =============================================================================

// MaxAlternatives bounds FieldMapping.Alternatives.
const MaxAlternatives = 3

// Alternative is a runner-up record for a field.
type Alternative struct {
	RecordID   string  `json:"recordId"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// FieldMapping proposes zero or one record for a field. An empty RecordID
// means no match; it serializes as null.
type FieldMapping struct {
	FieldID      FieldID       `json:"fieldId"`
	RecordID     string        `json:"recordId"`
	Value        string        `json:"value"`
	Confidence   float64       `json:"confidence"`
	Reasoning    string        `json:"reasoning"`
	Alternatives []Alternative `json:"alternatives"`
	AutoFill     bool          `json:"autoFill"`
}

// Matched reports whether the mapping carries a record and value.
func (m FieldMapping) Matched() bool {
	return m.RecordID != "" && m.Value != ""
}

func (m FieldMapping) MarshalJSON() ([]byte, error) {
	type alias FieldMapping
	out := struct {
		alias
		RecordID     *string       `json:"recordId"`
		Value        *string       `json:"value"`
		Alternatives []Alternative `json:"alternatives"`
	}{alias: alias(m)}
	if m.RecordID != "" {
		out.RecordID = &m.RecordID
	}
	if m.RecordID != "" || m.Value != "" {
		out.Value = &m.Value
	}
	out.Alternatives = m.Alternatives
	if out.Alternatives == nil {
		out.Alternatives = []Alternative{}
	}
	return json.Marshal(out)
}

// MatchResult wraps a matching call for telemetry.
type MatchResult struct {
	Success        bool           `json:"success"`
	Mappings       []FieldMapping `json:"mappings"`
	ProcessingTime time.Duration  `json:"processingTime"`
	Strategy       string         `json:"strategy,omitempty"`
	Error          string         `json:"error,omitempty"`
}
