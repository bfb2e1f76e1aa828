package help

import "github.com/mrsinham/oeukintake/internal/questionnaire"

// HelpText describes how to answer one kind of question.
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains keyboard help for every input type.
var Texts = map[questionnaire.InputType]HelpText{
	questionnaire.TypeText: {
		Title:       "TEXT",
		Description: "Type your answer.",
		Details:     "Enter: continue • Shift+Tab: back",
	},
	questionnaire.TypeNumber: {
		Title:       "NUMBER",
		Description: "Digits only. Anything else is ignored as you type.",
		Details:     "Enter: continue • Shift+Tab: back",
	},
	questionnaire.TypeDate: {
		Title:       "DATE",
		Description: "Use the YYYY-MM-DD format, for example 1985-04-12.",
		Details:     "Enter: continue • Shift+Tab: back",
	},
	questionnaire.TypeTextarea: {
		Title:       "FREE TEXT",
		Description: "Several lines are allowed. Enter starts a new line.",
		Details:     "Tab: continue • Shift+Tab: back",
	},
	questionnaire.TypeSelect: {
		Title:       "CHOICE",
		Description: "Pick one option. The next question follows automatically.",
		Details:     "↑/↓: move • Enter or Space: pick • 1-9: pick by number",
	},
	questionnaire.TypeRadio: {
		Title:       "CHOICE",
		Description: "Pick one option. The next question follows automatically.",
		Details:     "↑/↓: move • Enter or Space: pick • 1-9: pick by number",
	},
	questionnaire.TypeYesNo: {
		Title:       "YES / NO",
		Description: "Answer yes or no. The next question follows automatically.",
		Details:     "y: yes • n: no • ↑/↓ then Enter",
	},
	questionnaire.TypeCheckboxGroup: {
		Title:       "CHECKLIST",
		Description: "Tick every item that applies. Leave the rest unticked.",
		Details:     "↑/↓: move • Space: tick or untick • Enter: continue",
	},
	questionnaire.TypeSignature: {
		Title:       "SIGNATURE",
		Description: "Sign inside the box by dragging with the mouse.",
		Details:     "c: clear • Enter: continue",
	},
	questionnaire.TypePhoto: {
		Title:       "PHOTO",
		Description: "Take a photo with the camera or choose an image file.",
		Details: `c: start camera • Space: take photo • Esc: stop camera
f: choose a file • r: remove the photo`,
	},
}
