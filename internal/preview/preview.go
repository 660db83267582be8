// Package preview renders detection and matching results for the terminal.
package preview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

const maxCellWidth = 48

// Options configures rendering.
type Options struct {
	Styles Styles
	// Threshold is shown in the title; negative hides it.
	Threshold float64
	// Alternatives adds a column listing runner-up records.
	Alternatives bool
	// Width caps the table width; zero leaves it unbounded.
	Width int
}

// DefaultOptions renders in color with the threshold hidden.
func DefaultOptions() Options {
	return Options{Styles: DefaultStyles(), Threshold: -1}
}

// Forms renders the detected forms and their fields.
func Forms(result types.DetectionResult, opts Options) string {
	s := opts.Styles
	if !result.Success {
		return s.Low.Render("detection failed: "+result.Error) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(s.Title.Render(fmt.Sprintf("%d forms, %d fields", len(result.Forms), result.TotalFields)))
	sb.WriteString("\n")
	for _, form := range result.Forms {
		title := string(form.ID)
		if form.Name != "" {
			title += " (" + form.Name + ")"
		}
		if form.Action != "" {
			title += " " + strings.ToUpper(firstNonEmpty(form.Method, "get")) + " " + form.Action
		}
		sb.WriteString(s.Muted.Render(title))
		sb.WriteString("\n")

		t := newTable(s, opts.Width, "Field", "Type", "Purpose", "Labels")
		for _, f := range form.Fields {
			t.Row(string(f.ID), string(f.Type), string(f.Purpose), truncate(strings.Join(f.Labels.All(), " / ")))
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Mappings renders one row per detected field with its proposed value.
// Fields without a mapping, such as password fields, are listed as skipped.
func Mappings(result types.DetectionResult, mappings []types.FieldMapping, opts Options) string {
	s := opts.Styles
	byField := make(map[types.FieldID]types.FieldMapping, len(mappings))
	for _, m := range mappings {
		byField[m.FieldID] = m
	}

	headers := []string{"Field", "Label", "Purpose", "Value", "Confidence", "Auto", "Reasoning"}
	if opts.Alternatives {
		headers = append(headers, "Alternatives")
	}
	t := newTable(s, opts.Width, headers...)

	auto := 0
	for _, f := range result.Fields() {
		label := truncate(firstNonEmpty(f.Labels.All()...))
		m, ok := byField[f.ID]
		if !ok {
			row := []string{string(f.ID), label, string(f.Purpose), "-", "-", "", s.Muted.Render("skipped")}
			if opts.Alternatives {
				row = append(row, "")
			}
			t.Row(row...)
			continue
		}

		value := s.Muted.Render("no match")
		if m.Matched() {
			value = truncate(m.Value)
		}
		flag := ""
		if m.AutoFill {
			flag = "yes"
			auto++
		}
		row := []string{string(f.ID), label, string(f.Purpose), value, confidence(s, m.Confidence), flag, truncate(m.Reasoning)}
		if opts.Alternatives {
			row = append(row, alternatives(m.Alternatives))
		}
		t.Row(row...)
	}

	title := fmt.Sprintf("%d fields, %d auto-fill", len(result.Fields()), auto)
	if opts.Threshold >= 0 {
		title += fmt.Sprintf(" (threshold %.2f)", opts.Threshold)
	}
	return s.Title.Render(title) + "\n" + t.Render() + "\n"
}

// Records renders stored records.
func Records(records []memory.Record, opts Options) string {
	t := newTable(opts.Styles, opts.Width, "ID", "Category", "Question", "Answer", "Used")
	for _, r := range records {
		t.Row(r.ID, r.Category, truncate(r.Question), truncate(r.Answer), fmt.Sprintf("%d", r.UsageCount))
	}
	return t.Render() + "\n"
}

// Usage renders matching statistics, one row per strategy and a total.
func Usage(stats usage.AggregatedStats, opts Options) string {
	t := newTable(opts.Styles, opts.Width, "Strategy", "Runs", "Fields", "Matched", "Auto", "Accepted", "Avg time")
	row := func(name string, c usage.Counts) {
		t.Row(name,
			fmt.Sprintf("%d", c.Runs),
			fmt.Sprintf("%d", c.Fields),
			fmt.Sprintf("%d (%.0f%%)", c.Matched, c.MatchRate()*100),
			fmt.Sprintf("%d", c.AutoFill),
			fmt.Sprintf("%d", c.Accepted),
			c.AvgDuration().String())
	}

	names := make([]string, 0, len(stats.ByStrategy))
	for name := range stats.ByStrategy {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, stats.ByStrategy[name])
	}
	row("total", stats.Total)
	return t.Render() + "\n"
}

func newTable(s Styles, width int, headers ...string) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t
}

func confidence(s Styles, c float64) string {
	text := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.8:
		return s.High.Render(text)
	case c >= 0.5:
		return s.Medium.Render(text)
	default:
		return s.Low.Render(text)
	}
}

func alternatives(alts []types.Alternative) string {
	parts := make([]string, 0, len(alts))
	for _, a := range alts {
		parts = append(parts, fmt.Sprintf("%s %.2f", truncateTo(a.Value, 16), a.Confidence))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string) string {
	return truncateTo(s, maxCellWidth)
}

func truncateTo(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
