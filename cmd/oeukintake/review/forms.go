package review

import (
	"errors"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/record"
)

// formScreen wraps a huh.Form. Esc cancels; completion is reported once.
type formScreen struct {
	form      *huh.Form
	title     string
	hint      string
	err       string
	cancelled bool
	consumed  bool
}

func (s *formScreen) Init() tea.Cmd {
	return s.form.Init()
}

func (s *formScreen) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		s.cancelled = true
		return nil
	}
	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateAborted {
		s.cancelled = true
	}
	return cmd
}

// completed reports a finished form the first time it is asked.
func (s *formScreen) completed() bool {
	if s.consumed || s.form.State != huh.StateCompleted {
		return false
	}
	s.consumed = true
	return true
}

func (s *formScreen) Cancelled() bool { return s.cancelled }

func (s *formScreen) View() string {
	var sb strings.Builder
	sb.WriteString(components.TitleStyle.Render(s.title))
	sb.WriteString("\n")
	if s.err != "" {
		sb.WriteString(components.ErrorStyle.Render("✗ " + s.err))
		sb.WriteString("\n\n")
	}
	sb.WriteString(s.form.View())
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render(s.hint))
	return sb.String()
}

// loginScreen asks for the shared doctor password.
type loginScreen struct {
	formScreen
	password string
}

func newLoginScreen() *loginScreen {
	s := &loginScreen{}
	s.title = "Doctor login"
	s.hint = "Enter: log in • Esc: quit"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("password").
				Title("Password").
				Description("Shared password, not a security boundary.").
				EchoMode(huh.EchoModePassword).
				Validate(func(v string) error {
					if v == "" {
						return errors.New("password is required")
					}
					return nil
				}).
				Value(&s.password),
		),
	).WithShowHelp(false)
	return s
}

func (s *loginScreen) Submitted() (string, bool) {
	if !s.completed() {
		return "", false
	}
	return s.password, true
}

// commentsScreen edits the physician comments of one record.
type commentsScreen struct {
	formScreen
	id   int64
	text string
}

func newCommentsScreen(rec *record.Record) *commentsScreen {
	s := &commentsScreen{id: rec.ID, text: rec.PhysicianComments}
	s.title = "Physician comments • " + rec.Name()
	s.hint = "Enter: save and mark reviewed • Alt+Enter: new line • Esc: back"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Key("comments").
				Title("Comments").
				Description("Saving marks the record as reviewed.").
				CharLimit(10000).
				Lines(8).
				Value(&s.text),
		),
	).WithShowHelp(false)
	return s
}

func (s *commentsScreen) Submitted() (string, bool) {
	if !s.completed() {
		return "", false
	}
	return s.text, true
}

// exportScreen asks where to write the DICOM files.
type exportScreen struct {
	formScreen
	dir string
}

func newExportScreen(dir string) *exportScreen {
	s := &exportScreen{dir: dir}
	s.title = "Export DICOM"
	s.hint = "Enter: export • Esc: back"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("dir").
				Title("Output directory").
				Description("Photo and signature are written as Secondary Capture images.").
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return errors.New("directory is required")
					}
					return nil
				}).
				Value(&s.dir),
		),
	).WithShowHelp(false)
	return s
}

func (s *exportScreen) Submitted() (string, bool) {
	if !s.completed() {
		return "", false
	}
	s.dir = filepath.Clean(strings.TrimSpace(s.dir))
	return s.dir, true
}
