package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/dataurl"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
	"github.com/mrsinham/oeukintake/internal/record"
)

var sectionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("63")).
	Bold(true).
	Border(lipgloss.NormalBorder(), false, false, true, false).
	BorderForeground(lipgloss.Color("240"))

const (
	imageCols = 40
	imageRows = 12
)

// detailScreen shows one record, every catalog field grouped by section.
type detailScreen struct {
	id     int64
	rec    *record.Record
	err    error
	vp     viewport.Model
	status string
	actErr error
}

func newDetailScreen(id int64, rec *record.Record, err error, width, height int) *detailScreen {
	s := &detailScreen{id: id, rec: rec, err: err}
	s.vp = viewport.New(max(width, 60), height)
	if rec != nil {
		s.vp.SetContent(renderRecord(rec))
	}
	return s
}

func (s *detailScreen) SetSize(width, height int) {
	s.vp.Width = max(width, 60)
	s.vp.Height = height
}

// SetStatus shows the outcome of the last action.
func (s *detailScreen) SetStatus(msg string, err error) {
	s.status, s.actErr = msg, err
}

func (s *detailScreen) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return cmd
}

func (s *detailScreen) View() string {
	if s.err != nil {
		msg := "Error fetching medical record: " + s.err.Error()
		if errors.Is(s.err, record.ErrNotFound) {
			msg = "Record not found"
		}
		return components.TitleStyle.Render(fmt.Sprintf("Record #%d", s.id)) + "\n" +
			components.ErrorStyle.Render("✗ "+msg) + "\n\n" +
			components.HintStyle.Render("esc: back to list")
	}

	title := components.TitleStyle.Render(fmt.Sprintf("Record #%d • %s • %s", s.rec.ID, s.rec.Name(), s.rec.Status()))
	var footer []string
	switch {
	case s.actErr != nil:
		footer = append(footer, components.ErrorStyle.Render("✗ "+s.actErr.Error()))
	case s.status != "":
		footer = append(footer, components.SuccessStyle.Render("✓ "+s.status))
	}
	footer = append(footer, components.HintStyle.Render(fmt.Sprintf(
		"↑/↓ PgUp/PgDn: scroll (%3.f%%) • c: comments • e: export DICOM • esc: back to list",
		s.vp.ScrollPercent()*100)))
	return title + "\n" + s.vp.View() + "\n" + strings.Join(footer, "\n")
}

// renderRecord lays out every field of the catalog. Booleans read Yes/No,
// NULL reads as a dash, images render as half-block previews.
func renderRecord(rec *record.Record) string {
	bySection := make(map[string][]questionnaire.Field)
	for _, f := range questionnaire.Fields() {
		bySection[f.Section] = append(bySection[f.Section], f)
	}

	var sb strings.Builder
	sb.WriteString(components.LabelStyle.Render("Submitted: "))
	sb.WriteString(components.ValueStyle.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04")))
	sb.WriteString("\n")
	if rec.ReviewedAt != nil {
		sb.WriteString(components.LabelStyle.Render("Reviewed: "))
		sb.WriteString(components.ValueStyle.Render(rec.ReviewedAt.Local().Format("2006-01-02 15:04")))
		sb.WriteString("\n")
	}

	for _, section := range questionnaire.FieldSections() {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render(section))
		sb.WriteString("\n")
		for _, f := range bySection[section] {
			if f.Kind == questionnaire.KindImage {
				sb.WriteString(renderImage(f.Label, rec.String(f.Name)))
				continue
			}
			sb.WriteString(components.LabelStyle.Render(f.Label + ": "))
			sb.WriteString(components.ValueStyle.Render(displayValue(f, rec.Values[f.Name])))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(sectionStyle.Render("Physician comments"))
	sb.WriteString("\n")
	if rec.PhysicianComments == "" {
		sb.WriteString(components.LabelStyle.Render("No comments yet."))
	} else {
		sb.WriteString(rec.PhysicianComments)
	}
	sb.WriteString("\n")
	return sb.String()
}

func displayValue(f questionnaire.Field, v any) string {
	if f.Kind == questionnaire.KindBool {
		if b, ok := v.(bool); ok && b {
			return "Yes"
		}
		return "No"
	}
	if v == nil {
		return "-"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "-"
	}
	return s
}

func renderImage(label, enc string) string {
	head := components.LabelStyle.Render(label + ": ")
	if enc == "" {
		return head + components.ValueStyle.Render("-") + "\n"
	}
	img, err := dataurl.DecodeImage(enc)
	if err != nil {
		return head + components.ErrorStyle.Render("unreadable image") + "\n"
	}
	b := img.Bounds()
	cols, rows := components.FitCells(b.Dx(), b.Dy(), imageCols, imageRows)
	return head + fmt.Sprintf("%dx%d", b.Dx(), b.Dy()) + "\n" +
		components.CanvasStyle.Render(components.HalfBlock(img, cols, rows)) + "\n"
}
