// Package review is the physician's terminal view of submitted
// questionnaires: login, list, detail, comments and DICOM export.
package review

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/dicom"
	"github.com/mrsinham/oeukintake/internal/record"
)

// Backend is the record API as seen by a reviewer. *client.Client
// satisfies it.
type Backend interface {
	Authenticate(ctx context.Context, password string) (bool, error)
	List(ctx context.Context) ([]record.Summary, error)
	Get(ctx context.Context, id int64) (*record.Record, error)
	Review(ctx context.Context, id int64, comments string) error
}

// Phase represents the current screen.
type Phase int

const (
	PhaseLogin Phase = iota
	PhaseList
	PhaseDetail
	PhaseComments
	PhaseExport
)

// Options configures the reviewer.
type Options struct {
	Backend         Backend
	Branding        components.Branding
	ExportDir       string
	InstitutionName string
	Logger          zerolog.Logger
}

type authMsg struct {
	ok  bool
	err error
}

type listMsg struct {
	records []record.Summary
	err     error
}

type detailMsg struct {
	id  int64
	rec *record.Record
	err error
}

type reviewedMsg struct {
	id  int64
	err error
}

type exportedMsg struct {
	files []dicom.ExportedFile
	err   error
}

// Reviewer is the main tea.Model.
type Reviewer struct {
	opts   Options
	ctx    context.Context
	logger zerolog.Logger

	phase    Phase
	login    *loginScreen
	list     *listScreen
	detail   *detailScreen
	comments *commentsScreen
	export   *exportScreen

	width  int
	height int
	quit   bool
}

// New creates a reviewer on the login screen.
func New(ctx context.Context, opts Options) *Reviewer {
	if opts.ExportDir == "" {
		opts.ExportDir = "dicom_export"
	}
	return &Reviewer{
		opts:   opts,
		ctx:    ctx,
		logger: opts.Logger,
		phase:  PhaseLogin,
		login:  newLoginScreen(),
		list:   newListScreen(),
	}
}

// Init implements tea.Model.
func (r *Reviewer) Init() tea.Cmd {
	return r.login.Init()
}

// Phase reports the current screen.
func (r *Reviewer) Phase() Phase { return r.phase }

// Update implements tea.Model.
func (r *Reviewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width, r.height = msg.Width, msg.Height
		if r.detail != nil {
			r.detail.SetSize(msg.Width, r.bodyHeight())
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			r.quit = true
			return r, tea.Quit
		}

	case authMsg:
		return r.onAuth(msg)
	case listMsg:
		r.list.SetRecords(msg.records, msg.err)
		if msg.err != nil {
			r.logger.Warn().Err(msg.err).Msg("list records")
		}
		return r, nil
	case detailMsg:
		return r.onDetail(msg)
	case reviewedMsg:
		if msg.err != nil {
			r.logger.Warn().Err(msg.err).Int64("id", msg.id).Msg("save comments")
			if r.detail != nil {
				r.detail.SetStatus("", msg.err)
			}
			r.phase = PhaseDetail
			return r, nil
		}
		r.logger.Info().Int64("id", msg.id).Msg("record reviewed")
		r.phase = PhaseDetail
		return r, r.loadDetail(msg.id)
	case exportedMsg:
		r.phase = PhaseDetail
		if r.detail != nil {
			if msg.err != nil {
				r.detail.SetStatus("", msg.err)
			} else {
				r.detail.SetStatus(fmt.Sprintf("Exported %d DICOM file(s) to %s", len(msg.files), r.export.dir), nil)
			}
		}
		return r, nil
	}

	switch r.phase {
	case PhaseLogin:
		return r.updateLogin(msg)
	case PhaseList:
		return r.updateList(msg)
	case PhaseDetail:
		return r.updateDetail(msg)
	case PhaseComments:
		return r.updateComments(msg)
	case PhaseExport:
		return r.updateExport(msg)
	}
	return r, nil
}

func (r *Reviewer) bodyHeight() int {
	h := r.height - lipgloss.Height(components.Header(r.opts.Branding, 0)) - 4
	return max(h, 8)
}

func (r *Reviewer) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := r.login.Update(msg)
	if r.login.Cancelled() {
		r.quit = true
		return r, tea.Quit
	}
	if password, ok := r.login.Submitted(); ok {
		backend, ctx := r.opts.Backend, r.ctx
		return r, func() tea.Msg {
			ok, err := backend.Authenticate(ctx, password)
			return authMsg{ok: ok, err: err}
		}
	}
	return r, cmd
}

func (r *Reviewer) onAuth(msg authMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		r.logger.Warn().Err(msg.err).Msg("doctor login")
		r.login = newLoginScreen()
		r.login.err = "Could not reach the server: " + msg.err.Error()
		return r, r.login.Init()
	case !msg.ok:
		r.logger.Info().Msg("doctor login refused")
		r.login = newLoginScreen()
		r.login.err = "Incorrect password."
		return r, r.login.Init()
	}
	r.logger.Info().Msg("doctor logged in")
	r.phase = PhaseList
	return r, r.loadList()
}

func (r *Reviewer) loadList() tea.Cmd {
	r.list.loading = true
	backend, ctx := r.opts.Backend, r.ctx
	return func() tea.Msg {
		records, err := backend.List(ctx)
		return listMsg{records: records, err: err}
	}
}

func (r *Reviewer) loadDetail(id int64) tea.Cmd {
	backend, ctx := r.opts.Backend, r.ctx
	return func() tea.Msg {
		rec, err := backend.Get(ctx, id)
		return detailMsg{id: id, rec: rec, err: err}
	}
}

func (r *Reviewer) onDetail(msg detailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		r.logger.Warn().Err(msg.err).Int64("id", msg.id).Msg("get record")
	}
	status := ""
	if r.detail != nil && r.detail.id == msg.id {
		status = r.detail.status
	}
	r.detail = newDetailScreen(msg.id, msg.rec, msg.err, r.width, r.bodyHeight())
	if msg.err == nil && status != "" {
		r.detail.status = status
	}
	r.phase = PhaseDetail
	return r, nil
}

func (r *Reviewer) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch key.String() {
	case "q":
		r.quit = true
		return r, tea.Quit
	case "r":
		return r, r.loadList()
	case "enter":
		if s, ok := r.list.Selected(); ok {
			return r, r.loadDetail(s.ID)
		}
		return r, nil
	}
	r.list.Update(key)
	return r, nil
}

func (r *Reviewer) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if r.detail == nil {
		r.phase = PhaseList
		return r, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "backspace":
			r.phase = PhaseList
			return r, r.loadList()
		case "c":
			if r.detail.rec != nil {
				r.comments = newCommentsScreen(r.detail.rec)
				r.phase = PhaseComments
				return r, r.comments.Init()
			}
		case "e":
			if r.detail.rec != nil {
				r.export = newExportScreen(r.opts.ExportDir)
				r.phase = PhaseExport
				return r, r.export.Init()
			}
		}
	}
	return r, r.detail.Update(msg)
}

func (r *Reviewer) updateComments(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := r.comments.Update(msg)
	if r.comments.Cancelled() {
		r.phase = PhaseDetail
		return r, nil
	}
	if text, ok := r.comments.Submitted(); ok {
		backend, ctx, id := r.opts.Backend, r.ctx, r.comments.id
		return r, func() tea.Msg {
			return reviewedMsg{id: id, err: backend.Review(ctx, id, text)}
		}
	}
	return r, cmd
}

func (r *Reviewer) updateExport(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := r.export.Update(msg)
	if r.export.Cancelled() {
		r.phase = PhaseDetail
		return r, nil
	}
	if dir, ok := r.export.Submitted(); ok {
		rec := r.detail.rec
		opts := dicom.Options{InstitutionName: r.opts.InstitutionName}
		logger := r.logger
		return r, func() tea.Msg {
			files, err := dicom.ExportRecord(rec, dir, opts)
			if err != nil {
				return exportedMsg{err: err}
			}
			logger.Info().Int64("id", rec.ID).Int("files", len(files)).Str("dir", dir).Msg("dicom export")
			if _, err := dicom.WriteDICOMDIR(dir); err != nil {
				logger.Warn().Err(err).Str("dir", dir).Msg("write DICOMDIR")
			}
			return exportedMsg{files: files}
		}
	}
	return r, cmd
}

// View implements tea.Model.
func (r *Reviewer) View() string {
	if r.quit {
		return ""
	}
	header := components.Header(r.opts.Branding, min(r.width, 100))

	var body string
	switch r.phase {
	case PhaseLogin:
		body = r.login.View()
	case PhaseList:
		body = r.list.View()
	case PhaseDetail:
		body = r.detail.View()
	case PhaseComments:
		body = r.comments.View()
	case PhaseExport:
		body = r.export.View()
	}
	if header == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// Run starts the reviewer and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running reviewer: %w", err)
	}
	return nil
}
