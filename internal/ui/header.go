package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one labelled value. Fields render in the order given.
type Field struct {
	Key   string
	Value string
}

// Panel is a bordered block with a title, a subtitle and a list of fields.
// wifictl uses it for the status display.
type Panel struct {
	Title    string // e.g., "WiFi Status"
	Subtitle string // e.g., "wifid-3f2a at 10.0.0.9:80"
	Fields   []Field
	Width    int
}

// NewPanel creates a panel sized to the terminal.
func NewPanel(title, subtitle string, fields ...Field) *Panel {
	return &Panel{
		Title:    title,
		Subtitle: subtitle,
		Fields:   fields,
		Width:    GetTerminalWidth(),
	}
}

// SetWidth sets the width used for rendering
func (p *Panel) SetWidth(width int) *Panel {
	p.Width = width
	return p
}

// Render returns the styled panel
func (p *Panel) Render() string {
	width := clampWidth(p.Width)

	top := PanelTitleStyle.Render(strings.ToUpper(p.Title))
	if p.Subtitle != "" {
		top = lipgloss.JoinVertical(lipgloss.Left, top, PanelSubtitleStyle.Render(p.Subtitle))
	}

	content := top
	if len(p.Fields) > 0 {
		dividerWidth := width - 6
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			PaddingLeft(2).
			Render(strings.Repeat("─", dividerWidth))
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, renderFields(p.Fields))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (p *Panel) String() string {
	return p.Render()
}

func renderFields(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, FieldKeyStyle.Render(f.Key+":")+" "+FieldValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}
