package browser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sweta-tw/superfill.ai/internal/dom"
)

// Control is the honeypot-relevant state of one captured form control.
type Control struct {
	Tag   string
	Attrs map[string]string
	Rect  dom.Rect
	Style map[string]string // computed style subset, camelCase keys
}

// Honeypot is a control judged to be a bot trap.
type Honeypot struct {
	Ref        string   `json:"ref"`
	Name       string   `json:"name,omitempty"`
	Reasons    []string `json:"reasons"`
	Confidence float64  `json:"confidence"`
	IsHoneypot bool     `json:"is_honeypot"`
}

type honeypotRule struct {
	reason string
	// weak signals only count when another rule also fires
	weak  bool
	match func(Control) bool
}

var suspiciousName = regexp.MustCompile(`(?i)(honey\s*pot|^hp[_-]|[_-]hp$|bot[_-]?trap|leave[_\s-]*(this[_\s-]*)?(blank|empty)|do[_\s-]*not[_\s-]*fill|^trap[_-]?)`)

var honeypotRules = []honeypotRule{
	{reason: "Hidden via opacity:0", match: func(c Control) bool {
		return strings.TrimSpace(c.Style["opacity"]) == "0"
	}},
	{reason: "Positioned off-screen", match: func(c Control) bool {
		if c.Rect.Right() < 0 || c.Rect.Bottom() < 0 {
			return true
		}
		return cssPx(c.Style["left"]) <= -1000 || cssPx(c.Style["top"]) <= -1000
	}},
	{reason: "Zero or near-zero size", match: func(c Control) bool {
		return c.Rect.Width < 2 && c.Rect.Height < 2
	}},
	{reason: "Clipped to zero size", match: func(c Control) bool {
		clip := strings.ReplaceAll(c.Style["clip"], " ", "")
		path := strings.ReplaceAll(c.Style["clipPath"], " ", "")
		return strings.HasPrefix(clip, "rect(0") || strings.HasPrefix(clip, "rect(1px,1px,1px,1px") ||
			strings.HasPrefix(path, "inset(50%") || strings.HasPrefix(path, "inset(100%")
	}},
	{reason: "Marked as aria-hidden", match: func(c Control) bool {
		return strings.EqualFold(c.Attrs["aria-hidden"], "true")
	}},
	{reason: "Suspicious name pattern", match: func(c Control) bool {
		return suspiciousName.MatchString(c.Attrs["name"]) || suspiciousName.MatchString(c.Attrs["id"]) ||
			suspiciousName.MatchString(c.Attrs["class"])
	}},
	{reason: "Not keyboard accessible (negative tabindex)", weak: true, match: func(c Control) bool {
		return strings.TrimSpace(c.Attrs["tabindex"]) == "-1"
	}},
	{reason: "Pointer events disabled", weak: true, match: func(c Control) bool {
		return c.Style["pointerEvents"] == "none"
	}},
	{reason: "Autocomplete disabled", weak: true, match: func(c Control) bool {
		return strings.EqualFold(c.Attrs["autocomplete"], "off")
	}},
}

// CheckHoneypot evaluates the honeypot rules against c. A control is a
// honeypot when a strong rule fires, or when at least two weak ones do.
func CheckHoneypot(c Control) Honeypot {
	hp := Honeypot{Ref: c.Attrs[RefAttr], Name: firstNonEmpty(c.Attrs["name"], c.Attrs["id"])}
	strong, weak := 0, 0
	for _, rule := range honeypotRules {
		if !rule.match(c) {
			continue
		}
		hp.Reasons = append(hp.Reasons, rule.reason)
		if rule.weak {
			weak++
		} else {
			strong++
		}
	}
	hp.IsHoneypot = strong > 0 || weak >= 2
	hp.Confidence = honeypotConfidence(len(hp.Reasons))
	return hp
}

// honeypotConfidence grows with the number of indicators.
func honeypotConfidence(reasons int) float64 {
	if reasons == 0 {
		return 0
	}
	confidence := 0.5 + float64(reasons)*0.15
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func (h Honeypot) String() string {
	return fmt.Sprintf("%s (%.2f): %s", firstNonEmpty(h.Name, "ref "+h.Ref), h.Confidence, strings.Join(h.Reasons, ", "))
}

// cssPx parses a computed "123.5px" length; anything else is 0.
func cssPx(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
