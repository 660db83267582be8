package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sweta-tw/superfill.ai/internal/types"
)

// Score weights of the rule-based strategy.
const (
	weightPurpose  = 0.4
	weightContext  = 0.3
	weightCategory = 0.2
	weightLabel    = 0.1

	purposeBase       = 0.6
	purposePerKeyword = 0.2
	categoryVerbatim  = 0.8
	categoryByTokens  = 0.6
	labelPerToken     = 0.5
)

// purposeKeywords are searched in a record's question and category.
var purposeKeywords = map[types.Purpose][]string{
	types.PurposeEmail:   {"email", "e-mail", "mail", "contact"},
	types.PurposePhone:   {"phone", "mobile", "telephone", "cell", "contact"},
	types.PurposeName:    {"name", "first", "last", "full"},
	types.PurposeAddress: {"address", "street", "residence", "location"},
	types.PurposeCity:    {"city", "town"},
	types.PurposeState:   {"state", "province", "region"},
	types.PurposeZip:     {"zip", "postal", "postcode"},
	types.PurposeCountry: {"country", "nation"},
	types.PurposeCompany: {"company", "organization", "employer", "work"},
	types.PurposeTitle:   {"title", "position", "role", "job"},
}

// FallbackMatcher is the deterministic rule-based strategy. It is always
// available and is what AIMatcher degrades to.
type FallbackMatcher struct{}

// NewFallbackMatcher creates the rule-based matcher.
func NewFallbackMatcher() *FallbackMatcher {
	return &FallbackMatcher{}
}

func (m *FallbackMatcher) Name() string { return "rule-based" }

// Match scores every (field, record) pair.
func (m *FallbackMatcher) Match(_ context.Context, fields []types.CompressedField, records []types.CompressedRecord) []types.FieldMapping {
	valid := usableRecords(records)
	out := make([]types.FieldMapping, 0, len(fields))
	for _, f := range fields {
		out = append(out, m.matchField(f, valid))
	}
	return out
}

type fieldTokens struct {
	context    map[string]bool
	labels     map[string]bool
	labelsText string
}

type signals struct {
	purposeHits int
	categoryHit bool
	sharedWithQ int
}

type candidate struct {
	record  types.CompressedRecord
	score   float64
	signals signals
}

func (m *FallbackMatcher) matchField(f types.CompressedField, records []types.CompressedRecord) types.FieldMapping {
	if f.Type == types.FieldPassword {
		return nullMapping(f.ID, 0, passwordReasoning)
	}
	if len(records) == 0 {
		return nullMapping(f.ID, 0, "No stored records to match against")
	}

	ft := fieldTokens{
		context:    TokenSet(f.Context()),
		labels:     TokenSet(f.LabelText()),
		labelsText: strings.ToLower(f.LabelText()),
	}

	candidates := make([]candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, scoreRecord(f, ft, r))
	}
	// Stable sort keeps input order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0]
	mapping := types.FieldMapping{
		FieldID:      f.ID,
		Confidence:   best.score,
		Alternatives: alternatives(candidates[1:], best.record.ID),
	}
	reason := explain(f.Purpose, best)
	if best.score >= MinMatchConfidence {
		mapping.RecordID = best.record.ID
		mapping.Value = best.record.Answer
		mapping.Reasoning = reason
	} else {
		mapping.Reasoning = fmt.Sprintf("Low confidence (%.2f): %s", best.score, reason)
	}
	return mapping
}

func scoreRecord(f types.CompressedField, ft fieldTokens, r types.CompressedRecord) candidate {
	var sig signals

	purpose := 0.0
	if f.Purpose != "" && f.Purpose != types.PurposeUnknown {
		text := strings.ToLower(r.Question + " " + r.Category)
		for _, kw := range purposeKeywords[f.Purpose] {
			if strings.Contains(text, kw) {
				sig.purposeHits++
			}
		}
		purpose = min(purposeBase+purposePerKeyword*float64(sig.purposeHits), 1)
	}

	questionTokens := TokenSet(r.Question)
	contextScore := jaccard(ft.context, questionTokens)

	category := 0.0
	if cat := strings.ToLower(strings.TrimSpace(r.Category)); cat != "" {
		if strings.Contains(ft.labelsText, cat) {
			category = categoryVerbatim
			sig.categoryHit = true
		} else if catTokens := TokenSet(cat); len(catTokens) > 0 {
			category = categoryByTokens * float64(overlap(catTokens, ft.labels)) / float64(len(catTokens))
		}
	}

	shared := overlap(ft.labels, TokenSet(r.Question+" "+r.Answer))
	label := min(labelPerToken*float64(shared), 1)
	sig.sharedWithQ = overlap(ft.labels, questionTokens)

	total := weightPurpose*purpose + weightContext*contextScore + weightCategory*category + weightLabel*label
	return candidate{record: r, score: round2(total), signals: sig}
}

func alternatives(rest []candidate, primaryID string) []types.Alternative {
	alts := []types.Alternative{}
	for _, c := range rest {
		if len(alts) == types.MaxAlternatives {
			break
		}
		if c.record.ID == primaryID {
			continue
		}
		alts = append(alts, types.Alternative{RecordID: c.record.ID, Value: c.record.Answer, Confidence: c.score})
	}
	return alts
}

func explain(p types.Purpose, c candidate) string {
	var parts []string
	if c.signals.purposeHits > 0 {
		parts = append(parts, fmt.Sprintf("question matches %s keywords", p))
	}
	if c.signals.categoryHit {
		parts = append(parts, fmt.Sprintf("category %q appears in the field label", c.record.Category))
	}
	if n := c.signals.sharedWithQ; n > 0 {
		parts = append(parts, fmt.Sprintf("%d shared keyword(s) with the question", n))
	}
	if len(parts) == 0 {
		return "Weak partial match"
	}
	s := strings.Join(parts, "; ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// usableRecords drops records that cannot be suggested.
func usableRecords(records []types.CompressedRecord) []types.CompressedRecord {
	out := make([]types.CompressedRecord, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Answer) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
