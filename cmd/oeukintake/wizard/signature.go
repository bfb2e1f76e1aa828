package wizard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/engine"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
	"github.com/mrsinham/oeukintake/internal/signature"
)

// Terminal size of the signature box. Each cell covers cellPx x cellPx
// canvas pixels.
const (
	sigCols = signature.DefaultWidth / cellPx
	sigRows = signature.DefaultHeight / cellPx / 2
	cellPx  = 10
)

// signatureInput maps mouse events over the on-screen box onto the pad.
type signatureInput struct {
	step questionnaire.Step
	pad  *signature.Pad
	err  error

	// Screen cell of the top-left canvas cell, set while rendering.
	originX, originY int
}

func newSignatureInput(step questionnaire.Step, e *engine.Engine) *signatureInput {
	s := &signatureInput{step: step}
	s.pad = signature.New(func(enc string) {
		e.SetField(step.Field, enc, false)
	})
	s.err = s.pad.Load(e.Answers().String(step.Field))
	return s
}

// toCanvas converts a screen cell to canvas pixels. inside is false when the
// cell lies outside the box.
func (s *signatureInput) toCanvas(x, y int) (signature.Point, bool) {
	cx, cy := x-s.originX, y-s.originY
	inside := cx >= 0 && cx < sigCols && cy >= 0 && cy < sigRows
	return signature.Point{
		X: float64(cx*cellPx + cellPx/2),
		Y: float64(cy*2*cellPx + cellPx),
	}, inside
}

func (s *signatureInput) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		pt, inside := s.toCanvas(msg.X, msg.Y)
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft && inside {
				s.pad.PointerDown(pt)
			}
		case tea.MouseActionMotion:
			if !s.pad.Drawing() {
				return nil
			}
			if !inside {
				s.pad.PointerLeave()
				return nil
			}
			s.pad.PointerMove(pt)
		case tea.MouseActionRelease:
			s.pad.PointerUp()
		}
		s.err = s.pad.Err()
	case tea.KeyMsg:
		switch msg.String() {
		case "c", "delete", "backspace":
			s.pad.Clear()
			s.err = nil
		}
	}
	return nil
}

// View renders the box and its hint line. The box border adds one cell on
// each side, which the caller accounts for when setting the origin.
func (s *signatureInput) View() string {
	box := components.CanvasStyle.Render(components.HalfBlock(s.pad.Image(), sigCols, sigRows))
	hint := "Sign above with the mouse."
	if s.pad.HasContent() {
		hint = "Signed. Press c to clear and sign again."
	}
	out := box + "\n" + components.HintStyle.Render(hint)
	if s.err != nil {
		out += "\n" + components.ErrorStyle.Render("Could not save the signature: "+s.err.Error())
	}
	return out
}
