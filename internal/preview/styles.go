package preview

import "github.com/charmbracelet/lipgloss"

// Brand palette, shared by light and dark terminals.
var (
	Primary     = lipgloss.Color("#8BC34A") // lime
	Accent      = lipgloss.Color("#2196F3") // blue
	Muted       = lipgloss.Color("#6b7a90")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
)

// Styles groups the styles a preview is rendered with.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
	Border lipgloss.Style
}

// DefaultStyles returns the standard preview styles.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Muted:  lipgloss.NewStyle().Foreground(Muted),
		High:   lipgloss.NewStyle().Foreground(Primary),
		Medium: lipgloss.NewStyle().Foreground(Warning),
		Low:    lipgloss.NewStyle().Foreground(Destructive),
		Border: lipgloss.NewStyle().Foreground(Muted),
	}
}

// PlainStyles renders without colors or emphasis.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	cell := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Title:  plain,
		Header: cell,
		Cell:   cell,
		Muted:  plain,
		High:   plain,
		Medium: plain,
		Low:    plain,
		Border: plain,
	}
}
