package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/engine"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// questionInput edits the answer of one text, choice or checklist step.
// Every change goes straight to the engine.
type questionInput struct {
	step   questionnaire.Step
	engine *engine.Engine

	text   textinput.Model
	area   textarea.Model
	cursor int
}

func newQuestionInput(step questionnaire.Step, e *engine.Engine, width int) (*questionInput, tea.Cmd) {
	q := &questionInput{step: step, engine: e}
	answers := e.Answers()

	switch step.Type {
	case questionnaire.TypeText, questionnaire.TypeNumber, questionnaire.TypeDate:
		q.text = textinput.New()
		q.text.Placeholder = step.Placeholder
		q.text.Prompt = "› "
		q.text.Width = inputWidth(width)
		switch step.Type {
		case questionnaire.TypeDate:
			q.text.CharLimit = 10
		case questionnaire.TypeNumber:
			q.text.CharLimit = questionnaire.MaxDigits
		}
		q.text.SetValue(answers.String(step.Field))
		q.text.CursorEnd()
		return q, q.text.Focus()

	case questionnaire.TypeTextarea:
		q.area = textarea.New()
		q.area.Placeholder = step.Placeholder
		q.area.ShowLineNumbers = false
		q.area.SetWidth(inputWidth(width))
		q.area.SetHeight(5)
		q.area.SetValue(answers.String(step.Field))
		return q, q.area.Focus()

	case questionnaire.TypeSelect, questionnaire.TypeRadio, questionnaire.TypeYesNo:
		current := answers.String(step.Field)
		for i, opt := range step.Choices() {
			if opt == current {
				q.cursor = i
			}
		}
	}
	return q, nil
}

func inputWidth(width int) int {
	if width <= 0 {
		return 60
	}
	return max(20, min(width-6, 80))
}

// Update handles a key for the step. Navigation keys never reach it.
func (q *questionInput) Update(msg tea.Msg) tea.Cmd {
	switch q.step.Type {
	case questionnaire.TypeText, questionnaire.TypeNumber, questionnaire.TypeDate:
		var cmd tea.Cmd
		before := q.text.Value()
		q.text, cmd = q.text.Update(msg)
		if v := q.text.Value(); v != before {
			q.engine.SetField(q.step.Field, v, false)
			if stored := q.engine.Answers().String(q.step.Field); stored != v {
				q.text.SetValue(stored)
				q.text.CursorEnd()
			}
		}
		return cmd

	case questionnaire.TypeTextarea:
		var cmd tea.Cmd
		before := q.area.Value()
		q.area, cmd = q.area.Update(msg)
		if v := q.area.Value(); v != before {
			q.engine.SetField(q.step.Field, v, false)
		}
		return cmd

	case questionnaire.TypeSelect, questionnaire.TypeRadio, questionnaire.TypeYesNo:
		key, ok := msg.(tea.KeyMsg)
		if !ok {
			return nil
		}
		q.updateChoice(key)

	case questionnaire.TypeCheckboxGroup:
		key, ok := msg.(tea.KeyMsg)
		if !ok {
			return nil
		}
		q.updateChecklist(key)
	}
	return nil
}

func (q *questionInput) updateChoice(key tea.KeyMsg) {
	choices := q.step.Choices()
	switch s := key.String(); s {
	case "up", "k":
		q.cursor = (q.cursor - 1 + len(choices)) % len(choices)
	case "down", "j":
		q.cursor = (q.cursor + 1) % len(choices)
	case "enter", " ", "space":
		q.pick(q.cursor)
	case "y", "n":
		if q.step.Type == questionnaire.TypeYesNo {
			q.pick(map[string]int{"y": 0, "n": 1}[s])
		}
	default:
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(choices) {
				q.pick(i)
			}
		}
	}
}

func (q *questionInput) pick(i int) {
	q.cursor = i
	q.engine.SetField(q.step.Field, q.step.Choices()[i], true)
}

func (q *questionInput) updateChecklist(key tea.KeyMsg) {
	switch key.String() {
	case "up", "k":
		q.cursor = (q.cursor - 1 + len(q.step.Fields)) % len(q.step.Fields)
	case "down", "j":
		q.cursor = (q.cursor + 1) % len(q.step.Fields)
	case " ", "space", "x":
		q.engine.ToggleCheckbox(q.step.Fields[q.cursor])
	}
}

// View renders the input for the current answers.
func (q *questionInput) View() string {
	answers := q.engine.Answers()
	switch q.step.Type {
	case questionnaire.TypeText, questionnaire.TypeNumber, questionnaire.TypeDate:
		return q.text.View()
	case questionnaire.TypeTextarea:
		return q.area.View()
	case questionnaire.TypeSelect, questionnaire.TypeRadio, questionnaire.TypeYesNo:
		current := answers.String(q.step.Field)
		var sb strings.Builder
		for i, opt := range q.step.Choices() {
			line := fmt.Sprintf("%s %d. %s", mark(opt == current, "●", "○"), i+1, opt)
			sb.WriteString(cursorLine(i == q.cursor, line))
		}
		return strings.TrimSuffix(sb.String(), "\n")
	case questionnaire.TypeCheckboxGroup:
		var sb strings.Builder
		for i, field := range q.step.Fields {
			line := fmt.Sprintf("%s %s", mark(answers.Bool(field), "[x]", "[ ]"), q.step.Labels[i])
			sb.WriteString(cursorLine(i == q.cursor, line))
		}
		return strings.TrimSuffix(sb.String(), "\n")
	}
	return ""
}

func mark(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

func cursorLine(active bool, line string) string {
	if active {
		return components.SelectedStyle.Render("› "+line) + "\n"
	}
	return "  " + line + "\n"
}
