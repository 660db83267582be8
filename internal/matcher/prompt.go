package matcher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweta-tw/superfill.ai/internal/llm"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

const maxPromptAnswerLen = 200

const systemPrompt = `You match web form fields to a user's stored answers ("memories").

Respond with JSON only, in exactly this shape:
{"matches":[{"fieldId":"<field id>","memoryId":"<memory id or null>","confidence":0.0,"reasoning":"<why>","alternativeMatches":["<memory id>"]}]}

Rules:
- Return one entry for every field id you are given.
- Never match password fields, PINs, security answers or anything that looks like a secret.
- confidence is a number between 0 and 1.
- If your confidence is below 0.35, set memoryId to null.
- alternativeMatches lists at most 3 other memory ids, best first, never repeating memoryId.
- Only use memory ids that appear in the input.
- Justify every decision in reasoning, including null matches.`

type promptField struct {
	ID      types.FieldID   `json:"id"`
	Type    types.FieldType `json:"type"`
	Purpose types.Purpose   `json:"purpose"`
	Labels  []string        `json:"labels,omitempty"`
	Context string          `json:"context,omitempty"`
}

type promptMemory struct {
	ID       string `json:"id"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type promptPayload struct {
	Fields   []promptField  `json:"fields"`
	Memories []promptMemory `json:"memories"`
}

func buildUserPrompt(fields []types.CompressedField, records []types.CompressedRecord) (string, error) {
	p := promptPayload{
		Fields:   make([]promptField, 0, len(fields)),
		Memories: make([]promptMemory, 0, len(records)),
	}
	for _, f := range fields {
		p.Fields = append(p.Fields, promptField{
			ID:      f.ID,
			Type:    f.Type,
			Purpose: f.Purpose,
			Labels:  f.Labels,
			Context: f.Context(),
		})
	}
	for _, r := range records {
		answer := r.Answer
		if rs := []rune(answer); len(rs) > maxPromptAnswerLen {
			answer = string(rs[:maxPromptAnswerLen]) + "..."
		}
		p.Memories = append(p.Memories, promptMemory{ID: r.ID, Question: r.Question, Answer: answer, Category: r.Category})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt: %w", err)
	}
	return "Match these fields to these memories:\n" + string(data), nil
}

type aiMatch struct {
	FieldID            types.FieldID `json:"fieldId"`
	MemoryID           *string       `json:"memoryId"`
	Confidence         float64       `json:"confidence"`
	Reasoning          string        `json:"reasoning"`
	AlternativeMatches []string      `json:"alternativeMatches"`
}

type aiResponse struct {
	Matches *[]aiMatch `json:"matches"`
}

var errNoMatches = errors.New("response has no matches array")

func parseResponse(raw string) ([]aiMatch, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if resp.Matches == nil {
		return nil, errNoMatches
	}
	return *resp.Matches, nil
}
