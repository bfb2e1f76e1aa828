package review

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/record"
)

var (
	headerCellStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	selectedCellStyle = cellStyle.Background(lipgloss.Color("236")).Bold(true)
	pendingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Padding(0, 1)
	reviewedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
)

const statusColumn = 5

type listScreen struct {
	records []record.Summary
	cursor  int
	loading bool
	err     error
}

func newListScreen() *listScreen {
	return &listScreen{}
}

// SetRecords replaces the list and keeps the cursor on the same record when
// it is still present.
func (s *listScreen) SetRecords(records []record.Summary, err error) {
	s.loading = false
	s.err = err
	if err != nil {
		return
	}
	var selected int64
	if cur, ok := s.Selected(); ok {
		selected = cur.ID
	}
	s.records = records
	s.cursor = 0
	for i, r := range records {
		if r.ID == selected {
			s.cursor = i
		}
	}
}

func (s *listScreen) Selected() (record.Summary, bool) {
	if s.cursor < 0 || s.cursor >= len(s.records) {
		return record.Summary{}, false
	}
	return s.records[s.cursor], true
}

func (s *listScreen) Update(key tea.KeyMsg) {
	if len(s.records) == 0 {
		return
	}
	switch key.String() {
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor = min(len(s.records)-1, s.cursor+1)
	case "home", "g":
		s.cursor = 0
	case "end", "G":
		s.cursor = len(s.records) - 1
	}
}

func (s *listScreen) View() string {
	var sb strings.Builder
	sb.WriteString(components.TitleStyle.Render("Submitted questionnaires"))
	sb.WriteString("\n")

	switch {
	case s.err != nil:
		sb.WriteString(components.ErrorStyle.Render("✗ Error fetching medical records: " + s.err.Error()))
		sb.WriteString("\n\n")
		sb.WriteString(components.HintStyle.Render("r: retry • q: quit"))
		return sb.String()
	case s.loading && len(s.records) == 0:
		sb.WriteString(components.HintStyle.Render("Loading…"))
		return sb.String()
	case len(s.records) == 0:
		sb.WriteString(components.LabelStyle.Render("No submissions yet."))
		sb.WriteString("\n\n")
		sb.WriteString(components.HintStyle.Render("r: refresh • q: quit"))
		return sb.String()
	}

	pending := 0
	rows := make([][]string, len(s.records))
	for i, r := range s.records {
		if !r.Reviewed {
			pending++
		}
		rows[i] = []string{
			fmt.Sprintf("%d", r.ID),
			r.Name(),
			r.DateOfBirth,
			r.PositionHeld,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Status(),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "Name", "Date of birth", "Position", "Submitted", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case row == s.cursor:
				return selectedCellStyle
			case col == statusColumn && s.records[row].Reviewed:
				return reviewedStyle
			case col == statusColumn:
				return pendingStyle
			}
			return cellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(components.LabelStyle.Render(fmt.Sprintf("%d record(s), %d pending review", len(s.records), pending)))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("↑/↓: select • Enter: open • r: refresh • q: quit"))
	return sb.String()
}
