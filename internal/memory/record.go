// Package memory holds the user's stored answers and hands the matchers
// their compressed form.
package memory

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Record is a stored answer with its bookkeeping.
type Record struct {
	ID         string    `json:"id" yaml:"id"`
	Question   string    `json:"question,omitempty" yaml:"question,omitempty"`
	Answer     string    `json:"answer" yaml:"answer"`
	Category   string    `json:"category" yaml:"category"`
	Tags       []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Confidence float64   `json:"confidence" yaml:"confidence,omitempty"`
	UsageCount int       `json:"usageCount" yaml:"usage_count,omitempty"`
	LastUsed   time.Time `json:"lastUsed,omitempty" yaml:"last_used,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updated_at,omitempty"`
}

// Validate checks the fields every store requires.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Answer) == "" {
		return fmt.Errorf("%w: answer is empty", ErrInvalidRecord)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidRecord, r.Confidence)
	}
	return nil
}

// Store is what the engine needs from a record store.
type Store interface {
	// List returns up to limit records, most useful first. limit <= 0
	// returns everything.
	List(ctx context.Context, limit int) ([]Record, error)
	// IncrementUsage records that a suggestion from id was accepted.
	IncrementUsage(ctx context.Context, id string) error
}

// ValidationIssue describes a record skipped by Compress.
type ValidationIssue struct {
	Index    int
	RecordID string
	Reason   string
}

func (v ValidationIssue) String() string {
	if v.RecordID == "" {
		return fmt.Sprintf("record #%d: %s", v.Index, v.Reason)
	}
	return fmt.Sprintf("record %s: %s", v.RecordID, v.Reason)
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func textPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// plainText strips markup and collapses whitespace for scoring text. The
// strict policy escapes entities, so the result is unescaped again.
func plainText(s string) string {
	s = html.UnescapeString(textPolicy().Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Compress reduces records to the matcher's input shape. Records without an
// id or answer are skipped and reported rather than failing the batch.
// Answers are suggested verbatim, so only surrounding space is trimmed;
// questions only feed scoring and are reduced to plain text.
func Compress(records []Record) ([]types.CompressedRecord, []ValidationIssue) {
	out := make([]types.CompressedRecord, 0, len(records))
	var issues []ValidationIssue
	for i, r := range records {
		id := strings.TrimSpace(r.ID)
		answer := strings.TrimSpace(r.Answer)
		var reason string
		switch {
		case id == "":
			reason = "missing id"
		case answer == "":
			reason = "missing answer"
		}
		if reason != "" {
			issues = append(issues, ValidationIssue{Index: i, RecordID: id, Reason: reason})
			logging.StoreDebug("Skipping record #%d (%q): %s", i, id, reason)
			continue
		}
		category := strings.ToLower(strings.TrimSpace(r.Category))
		if category == "" {
			category = "general"
		}
		out = append(out, types.CompressedRecord{
			ID:       id,
			Question: plainText(r.Question),
			Answer:   answer,
			Category: category,
		})
	}
	return out, issues
}
