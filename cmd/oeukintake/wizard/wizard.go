// Package wizard is the terminal front end of the intake questionnaire. It
// renders the engine's current step and feeds every answer back into it.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/engine"
	"github.com/mrsinham/oeukintake/internal/photo"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// Phase represents the current screen of the wizard.
type Phase int

const (
	PhaseQuestion Phase = iota
	PhaseSubmitted
)

// Options configures a Wizard.
type Options struct {
	Catalog   *questionnaire.Catalog
	Submitter engine.Submitter
	Branding  components.Branding
	// Camera may be nil, which leaves file selection as the only photo source.
	Camera           photo.Camera
	Fs               afero.Fs
	AutoAdvanceDelay time.Duration
	Logger           zerolog.Logger
}

// engineEventMsg carries an engine event into the update loop.
type engineEventMsg engine.Event

// submitDoneMsg is returned by the background submission command.
type submitDoneMsg struct{}

// Wizard is the main tea.Model.
type Wizard struct {
	opts   Options
	ctx    context.Context
	engine *engine.Engine
	events chan engine.Event
	logger zerolog.Logger

	// Widgets for the step at stepIndex. Exactly one is set.
	stepIndex int
	question  *questionInput
	sig       *signatureInput
	photo     *photoInput

	helpPanel *components.HelpPanel
	showHelp  bool

	width  int
	height int

	cancelled bool
}

// New creates a wizard on the first step. ctx bounds submissions and camera
// access.
func New(ctx context.Context, opts Options) *Wizard {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	w := &Wizard{
		opts:      opts,
		ctx:       ctx,
		events:    make(chan engine.Event, 16),
		logger:    opts.Logger,
		stepIndex: -1,
		helpPanel: components.NewHelpPanel(),
	}

	engineOpts := []engine.Option{
		engine.WithLogger(opts.Logger),
		engine.WithContext(ctx),
		engine.WithListener(w.forward),
	}
	if opts.AutoAdvanceDelay > 0 {
		engineOpts = append(engineOpts, engine.WithAutoAdvanceDelay(opts.AutoAdvanceDelay))
	}
	w.engine = engine.New(opts.Catalog, opts.Submitter, engineOpts...)
	w.syncStep(true)
	return w
}

// forward runs on whichever goroutine changed the engine. The view reads
// engine state directly, so a dropped event only delays a redraw until the
// next message.
func (w *Wizard) forward(ev engine.Event) {
	select {
	case w.events <- ev:
	default:
	}
}

func (w *Wizard) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-w.events:
			return engineEventMsg(ev)
		case <-w.ctx.Done():
			return nil
		}
	}
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return tea.Batch(w.waitForEvent(), w.syncStep(true))
}

// Phase reports which screen is showing.
func (w *Wizard) Phase() Phase {
	if w.engine.Submitted() {
		return PhaseSubmitted
	}
	return PhaseQuestion
}

// syncStep rebuilds the step widgets when the engine moved, releasing the
// camera of the step being left.
func (w *Wizard) syncStep(force bool) tea.Cmd {
	idx := w.engine.CurrentIndex()
	if idx == w.stepIndex && !force {
		return nil
	}
	if w.photo != nil {
		w.photo.Close()
	}
	w.question, w.sig, w.photo = nil, nil, nil
	w.stepIndex = idx

	step := w.engine.Current()
	w.helpPanel.SetStep(step)
	switch step.Type {
	case questionnaire.TypeSignature:
		w.sig = newSignatureInput(step, w.engine)
	case questionnaire.TypePhoto:
		w.photo = newPhotoInput(w.ctx, step, w.engine, w.opts.Fs, w.opts.Camera, w.logger)
	default:
		q, cmd := newQuestionInput(step, w.engine, w.width)
		w.question = q
		return cmd
	}
	return nil
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.helpPanel.SetWidth(min(msg.Width, 72))
		return w, nil

	case engineEventMsg:
		cmd := w.syncStep(msg.Kind == engine.EventReset)
		return w, tea.Batch(cmd, w.waitForEvent())

	case submitDoneMsg:
		return w, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			w.cancelled = true
			w.Close()
			return w, tea.Quit
		}
		if w.Phase() == PhaseSubmitted {
			return w.updateSubmitted(msg)
		}
		return w.updateQuestion(msg)
	}

	if w.Phase() == PhaseQuestion {
		return w, w.delegate(msg)
	}
	return w, nil
}

func (w *Wizard) updateQuestion(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := w.engine.Current()

	switch key.String() {
	case "f1":
		w.showHelp = !w.showHelp
		return w, nil
	case "shift+tab":
		if w.photo != nil && w.photo.capturesEnter() {
			break
		}
		if w.engine.Retreat() {
			return w, w.syncStep(false)
		}
		return w, nil
	case "tab":
		if w.photo != nil && w.photo.capturesEnter() {
			break
		}
		return w, w.advance()
	case "enter":
		switch {
		case step.Multiline(), step.AutoAdvances():
		case w.photo != nil && w.photo.capturesEnter():
		default:
			return w, w.advance()
		}
	}
	return w, w.delegate(key)
}

// advance moves on, or starts the submission in the background from the
// last visible step.
func (w *Wizard) advance() tea.Cmd {
	if w.engine.Submitting() || !w.engine.CanAdvance() {
		return nil
	}
	if w.engine.IsLastVisible() {
		e, ctx := w.engine, w.ctx
		return func() tea.Msg {
			e.Advance(ctx)
			return submitDoneMsg{}
		}
	}
	w.engine.Advance(w.ctx)
	return w.syncStep(false)
}

func (w *Wizard) delegate(msg tea.Msg) tea.Cmd {
	switch {
	case w.question != nil:
		return w.question.Update(msg)
	case w.sig != nil:
		return w.sig.Update(msg)
	case w.photo != nil:
		return w.photo.Update(msg)
	}
	return nil
}

func (w *Wizard) updateSubmitted(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter", " ", "space":
		w.engine.Reset()
		return w, w.syncStep(true)
	case "q", "esc":
		w.Close()
		return w, tea.Quit
	}
	return w, nil
}

// Close stops the auto-advance timer and releases the camera.
func (w *Wizard) Close() {
	w.engine.Close()
	if w.photo != nil {
		w.photo.Close()
	}
}

// View implements tea.Model.
func (w *Wizard) View() string {
	if w.cancelled {
		return "Cancelled.\n"
	}
	header := components.Header(w.opts.Branding, min(w.width, 80))
	if w.Phase() == PhaseSubmitted {
		return lipgloss.JoinVertical(lipgloss.Left, header, w.viewSubmitted())
	}
	return w.viewQuestion(header)
}

func (w *Wizard) viewQuestion(header string) string {
	step := w.engine.Current()

	var top []string
	if header != "" {
		top = append(top, header)
	}
	top = append(top,
		components.ProgressBar(w.engine.Progress(), 40),
		components.LabelStyle.Render(w.engine.ProgressLabel()),
		"",
	)
	if msg := w.engine.LastError(); msg != "" {
		top = append(top, components.ErrorStyle.Render("✗ "+msg), "")
	}
	question := step.Question
	if step.Required {
		question += " *"
	}
	top = append(top, components.QuestionStyle.Render(question), "")
	above := strings.Join(top, "\n")

	var input string
	switch {
	case w.question != nil:
		input = w.question.View()
	case w.sig != nil:
		// Mouse coordinates are screen cells; the box border is one cell wide.
		w.sig.originX = 1
		w.sig.originY = lipgloss.Height(above) + 1
		input = w.sig.View()
	case w.photo != nil:
		input = w.photo.View()
	}

	parts := []string{above + "\n" + input, "", w.hints(step)}
	if w.showHelp {
		parts = append(parts, "", w.helpPanel.View())
	}
	return strings.Join(parts, "\n")
}

func (w *Wizard) hints(step questionnaire.Step) string {
	if w.engine.Submitting() {
		return components.HintStyle.Render("Submitting…")
	}
	next := "Enter: continue"
	switch {
	case step.Multiline():
		next = "Tab: continue"
	case step.AutoAdvances():
		next = "Tab: continue"
	}
	if w.engine.IsLastVisible() {
		next = strings.Replace(next, "continue", "submit", 1)
	}
	if !w.engine.CanAdvance() {
		next = components.DisabledStyle.Render(next)
	} else {
		next = components.HintStyle.Render(next)
	}

	rest := []string{}
	if w.engine.CurrentVisibleRank() > 1 {
		rest = append(rest, "Shift+Tab: back")
	}
	help := "F1: help"
	if step.Tooltip != "" {
		help = "F1: more about this question"
	}
	rest = append(rest, help, "Ctrl+C: quit")
	return next + components.HintStyle.Render(" • "+strings.Join(rest, " • "))
}

func (w *Wizard) viewSubmitted() string {
	receipt := w.engine.Receipt()

	var sb strings.Builder
	sb.WriteString(components.SuccessStyle.Render("✓ Thank you!"))
	sb.WriteString("\n\n")
	sb.WriteString(components.ValueStyle.Render("Your questionnaire has been submitted."))
	sb.WriteString("\n")
	if receipt.ID > 0 {
		sb.WriteString(components.LabelStyle.Render(fmt.Sprintf("Reference: #%d", receipt.ID)))
		sb.WriteString("\n")
	}
	if receipt.Message != "" {
		sb.WriteString(components.LabelStyle.Render(receipt.Message))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(components.ButtonStyle.Render("Submit another form"))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Enter to start a new form or q to exit"))
	return sb.String()
}

// Run starts the interactive questionnaire and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := New(ctx, opts)
	defer w.Close()

	p := tea.NewProgram(w,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}
	return nil
}
