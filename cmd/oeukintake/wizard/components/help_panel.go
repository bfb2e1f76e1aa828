package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/help"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

var (
	helpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Width(60)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// HelpPanel displays the tooltip and key help for the current step
type HelpPanel struct {
	step  questionnaire.Step
	width int
}

// NewHelpPanel creates a new help panel
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{width: 64}
}

// SetStep updates which step's help to display
func (h *HelpPanel) SetStep(step questionnaire.Step) {
	h.step = step
}

// SetWidth updates the panel width
func (h *HelpPanel) SetWidth(width int) {
	if width > 20 {
		h.width = width
	}
}

// View renders the help panel
func (h *HelpPanel) View() string {
	style := helpPanelStyle.Width(h.width - 4)

	text, ok := help.Texts[h.step.Type]
	if !ok {
		return style.Render("No help for this question")
	}

	title := text.Title
	if h.step.Section != "" {
		title = strings.ToUpper(h.step.Section) + " • " + title
	}
	desc := text.Description
	if h.step.Tooltip != "" {
		desc = h.step.Tooltip + "\n\n" + desc
	}

	var sb strings.Builder
	sb.WriteString("ℹ️  ")
	sb.WriteString(helpTitleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(helpDescStyle.Render(desc))
	sb.WriteString("\n\n")
	sb.WriteString(helpDetailStyle.Render(text.Details))

	return style.Render(sb.String())
}
