package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("63")).
			MarginBottom(1)

	brandNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	brandContactStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))
)

// Branding is the practice identity shown above every screen.
type Branding struct {
	Name     string
	Subtitle string
	Contact  string
}

// Header renders the branding block. Empty parts are skipped.
func Header(b Branding, width int) string {
	var lines []string
	if b.Name != "" {
		lines = append(lines, brandNameStyle.Render(b.Name))
	}
	if b.Subtitle != "" {
		lines = append(lines, LabelStyle.Render(b.Subtitle))
	}
	if b.Contact != "" {
		lines = append(lines, brandContactStyle.Render(b.Contact))
	}
	if len(lines) == 0 {
		return ""
	}
	style := headerStyle
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}
