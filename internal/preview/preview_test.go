package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

func plain() Options {
	return Options{Styles: PlainStyles(), Threshold: 0.8, Alternatives: true}
}

func detection() types.DetectionResult {
	return types.DetectionResult{
		Success:     true,
		TotalFields: 3,
		Forms: []types.FormDescriptor{{
			ID: "form_1", Name: "signup", Method: "post", Action: "/join",
			Fields: []types.FieldDescriptor{
				{ID: "field_1", Type: types.FieldEmail, Purpose: types.PurposeEmail, Labels: types.FieldLabels{Explicit: "Email Address"}},
				{ID: "field_2", Type: types.FieldPassword, Purpose: types.PurposeUnknown, Labels: types.FieldLabels{Explicit: "Password"}},
				{ID: "field_3", Type: types.FieldText, Purpose: types.PurposeUnknown, Labels: types.FieldLabels{Left: "Favorite Book"}},
			},
		}},
	}
}

func TestMappings(t *testing.T) {
	mappings := []types.FieldMapping{
		{FieldID: "field_1", RecordID: "r1", Value: "a@b.com", Confidence: 0.93, Reasoning: "email question", AutoFill: true,
			Alternatives: []types.Alternative{{RecordID: "r5", Value: "b@b.com", Confidence: 0.55}}},
		{FieldID: "field_3", Confidence: 0, Reasoning: "Low confidence (0.00): Weak partial match"},
	}
	out := Mappings(detection(), mappings, plain())

	assert.Contains(t, out, "3 fields, 1 auto-fill (threshold 0.80)")
	assert.Contains(t, out, "a@b.com")
	assert.Contains(t, out, "0.93")
	assert.Contains(t, out, "b@b.com 0.55")
	assert.Contains(t, out, "no match")
	assert.Contains(t, out, "skipped")

	lines := strings.Split(out, "\n")
	var pw string
	for _, l := range lines {
		if strings.Contains(l, "field_2") {
			pw = l
		}
	}
	assert.Contains(t, pw, "Password")
	assert.Contains(t, pw, "skipped")
}

func TestForms(t *testing.T) {
	out := Forms(detection(), plain())
	assert.Contains(t, out, "1 forms, 3 fields")
	assert.Contains(t, out, "form_1 (signup) POST /join")
	assert.Contains(t, out, "Favorite Book")

	failed := Forms(types.DetectionResult{Error: "document root is nil"}, plain())
	assert.Equal(t, "detection failed: document root is nil\n", failed)
}

func TestRecords(t *testing.T) {
	out := Records([]memory.Record{{ID: "r1", Category: "contact", Question: "Email?", Answer: "a@b.com", UsageCount: 4}}, plain())
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "contact")
	assert.Contains(t, out, "4")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("  a\n\tb "))
	long := strings.Repeat("x", maxCellWidth+10)
	got := []rune(truncate(long))
	assert.Len(t, got, maxCellWidth)
	assert.Equal(t, '…', got[len(got)-1])
}

func TestUsage(t *testing.T) {
	stats := usage.AggregatedStats{
		Total: usage.Counts{Runs: 3, Fields: 10, Matched: 5, AutoFill: 2, Accepted: 1, DurationMs: 300},
		ByStrategy: map[string]usage.Counts{
			"rule-based": {Runs: 2, Fields: 6, Matched: 3, DurationMs: 100},
			"ai:openai":  {Runs: 1, Fields: 4, Matched: 2, DurationMs: 200},
		},
	}
	out := Usage(stats, plain())
	assert.Contains(t, out, "5 (50%)")
	assert.Contains(t, out, "100ms")
	assert.Less(t, strings.Index(out, "ai:openai"), strings.Index(out, "rule-based"))
	assert.Less(t, strings.Index(out, "rule-based"), strings.Index(out, "total"))
}
