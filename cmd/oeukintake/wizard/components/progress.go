package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63"))

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)
)

// ProgressBar renders percent (0-100) as a bar followed by the rounded
// percentage.
func ProgressBar(percent float64, width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	bar := progressBarStyle.Render("[" + strings.Repeat("█", filled))
	bar += progressBarEmptyStyle.Render(strings.Repeat("░", empty) + "]")
	return bar + " " + progressPercentStyle.Render(fmt.Sprintf("%d%%", int(percent+0.5)))
}
