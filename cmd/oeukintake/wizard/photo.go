package wizard

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/engine"
	"github.com/mrsinham/oeukintake/internal/photo"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

const (
	previewInterval = 400 * time.Millisecond
	photoCols       = 48
	photoRows       = 18
)

type cameraOpenedMsg struct {
	session int
	err     error
}

type capturedMsg struct {
	session int
	err     error
}

type previewTickMsg struct{ session int }

type previewFrameMsg struct {
	session int
	img     image.Image
}

// photoInput drives the photo widget. Camera work runs in commands bound to
// a context that esc, capture and leaving the step all cancel.
type photoInput struct {
	step   questionnaire.Step
	widget *photo.Widget
	parent context.Context

	path        textinput.Model
	pathFocused bool

	// session tags camera messages so replies for an abandoned camera
	// session are dropped.
	session int
	cancel  context.CancelFunc
	live    image.Image
	busy    bool
}

func newPhotoInput(ctx context.Context, step questionnaire.Step, e *engine.Engine, fs afero.Fs, cam photo.Camera, logger zerolog.Logger) *photoInput {
	p := &photoInput{step: step, parent: ctx}
	p.widget = photo.New(fs, cam, func(enc string) {
		e.SetField(step.Field, enc, false)
	}, photo.WithLogger(logger))
	p.widget.Load(e.Answers().String(step.Field))

	p.path = textinput.New()
	p.path.Placeholder = "/path/to/photo.jpg"
	p.path.Prompt = "File: "
	p.path.Width = 50
	return p
}

// capturesEnter reports whether enter belongs to the photo input rather
// than the wizard.
func (p *photoInput) capturesEnter() bool {
	return p.pathFocused || p.widget.CameraActive() || p.widget.CameraOpening()
}

func (p *photoInput) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case cameraOpenedMsg:
		if msg.session != p.session || msg.err != nil {
			return nil
		}
		p.live = nil
		return p.tick()

	case previewTickMsg:
		if msg.session != p.session || !p.widget.CameraActive() {
			return nil
		}
		return p.fetchFrame()

	case previewFrameMsg:
		if msg.session != p.session {
			return nil
		}
		if msg.img != nil {
			p.live = msg.img
		}
		return p.tick()

	case capturedMsg:
		if msg.session == p.session {
			p.busy = false
			if msg.err == nil {
				p.live = nil
			}
		}
		return nil

	case tea.KeyMsg:
		if p.pathFocused {
			return p.updatePath(msg)
		}
		return p.updateKeys(msg)
	}
	return nil
}

func (p *photoInput) updatePath(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		p.pathFocused = false
		p.path.Blur()
		return nil
	case "enter":
		if err := p.widget.SelectFile(expandHome(strings.TrimSpace(p.path.Value()))); err == nil {
			p.stopSession()
			p.pathFocused = false
			p.path.Blur()
			p.path.SetValue("")
		}
		return nil
	}
	var cmd tea.Cmd
	p.path, cmd = p.path.Update(key)
	return cmd
}

func (p *photoInput) updateKeys(key tea.KeyMsg) tea.Cmd {
	active := p.widget.CameraActive()
	switch key.String() {
	case "c":
		if active || p.widget.CameraOpening() {
			return nil
		}
		return p.startCamera()
	case " ", "space", "enter":
		if !active || p.busy {
			return nil
		}
		p.busy = true
		return p.capture()
	case "esc":
		p.widget.CancelCamera()
		p.stopSession()
		p.live = nil
	case "f", "/":
		p.widget.CancelCamera()
		p.stopSession()
		p.pathFocused = true
		return p.path.Focus()
	case "r", "delete":
		if !active {
			p.widget.Remove()
		}
	}
	return nil
}

func (p *photoInput) startCamera() tea.Cmd {
	p.stopSession()
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel
	session := p.session
	w := p.widget
	return func() tea.Msg {
		return cameraOpenedMsg{session: session, err: w.StartCamera(ctx)}
	}
}

func (p *photoInput) capture() tea.Cmd {
	session, w, ctx := p.session, p.widget, p.parent
	return func() tea.Msg {
		return capturedMsg{session: session, err: w.Capture(ctx)}
	}
}

func (p *photoInput) tick() tea.Cmd {
	session := p.session
	return tea.Tick(previewInterval, func(time.Time) tea.Msg {
		return previewTickMsg{session: session}
	})
}

func (p *photoInput) fetchFrame() tea.Cmd {
	session, w, ctx := p.session, p.widget, p.parent
	return func() tea.Msg {
		img, err := w.Frame(ctx)
		if err != nil {
			return previewFrameMsg{session: session}
		}
		return previewFrameMsg{session: session, img: img}
	}
}

// stopSession cancels a pending open and invalidates in-flight replies.
// The widget session is cancelled first so a refused open leaves no notice.
func (p *photoInput) stopSession() {
	p.session++
	p.busy = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Close releases the camera when the wizard leaves the step.
func (p *photoInput) Close() {
	_ = p.widget.Close()
	p.stopSession()
}

func (p *photoInput) View() string {
	var parts []string

	switch {
	case p.widget.CameraOpening():
		parts = append(parts, components.HintStyle.Render("Waiting for the camera… (esc to cancel)"))
	case p.widget.CameraActive():
		if p.live != nil {
			b := p.live.Bounds()
			cols, rows := components.FitCells(b.Dx(), b.Dy(), photoCols, photoRows)
			parts = append(parts, components.CanvasStyle.Render(components.HalfBlock(p.live, cols, rows)))
		} else {
			parts = append(parts, components.HintStyle.Render("Starting preview…"))
		}
		hint := "Space: take photo • Esc: stop camera"
		if p.busy {
			hint = "Capturing…"
		}
		parts = append(parts, components.HintStyle.Render(hint))
	default:
		if img, err := p.widget.PreviewImage(); err == nil && img != nil {
			b := img.Bounds()
			cols, rows := components.FitCells(b.Dx(), b.Dy(), photoCols, photoRows)
			parts = append(parts, components.CanvasStyle.Render(components.HalfBlock(img, cols, rows)))
			parts = append(parts, components.HintStyle.Render("r: remove • c: retake with camera • f: choose another file"))
		} else {
			parts = append(parts, components.HintStyle.Render("c: use the camera • f: choose an image file"))
		}
	}

	if p.pathFocused {
		parts = append(parts, p.path.View(), components.HintStyle.Render("Enter: use this file • Esc: cancel"))
	}
	if n := p.widget.Notice(); n != "" {
		parts = append(parts, components.NoticeStyle.Render(n))
	}
	return strings.Join(parts, "\n")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
