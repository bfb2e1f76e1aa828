package questionnaire

import (
	"strings"
	"testing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("Expected steps in the default catalog")
	}
	if c.Steps[0].Field != "surname" {
		t.Errorf("Expected first step to ask for surname, got %q", c.Steps[0].Field)
	}
	if c.Steps[0].ShowIf != nil {
		t.Error("Expected the first step to be unconditionally visible")
	}
}

func TestDefaultCatalogCoversFieldCatalog(t *testing.T) {
	c := MustDefault()
	defaults := c.Defaults()
	initial := InitialAnswers()

	if !defaults.Equal(initial) {
		for _, f := range Fields() {
			if _, ok := defaults[f.Name]; !ok {
				t.Errorf("Column %q is never asked by any step", f.Name)
			}
		}
		for k := range defaults {
			if _, ok := initial[k]; !ok {
				t.Errorf("Step field %q has no column", k)
			}
		}
	}
}

func TestCheckFieldsRejectsUnknownColumns(t *testing.T) {
	c, err := NewCatalog(
		Step{ID: "q1", Section: "Survey", Field: "q1_smoke", Type: TypeYesNo, Question: "Do you smoke?"},
		Step{ID: "forenames", Section: "Survey", Field: "forenames", Type: TypeText, Question: "Forenames?",
			ShowIf: Equals("q1_smoke", "Yes")},
	)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	err = c.CheckFields()
	if err == nil {
		t.Fatal("Expected drift error for survey keys")
	}
	for _, want := range []string{`"q1_smoke" has no column`, `"forenames" has no column`, `show_if reads unknown field "q1_smoke"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got: %v", want, err)
		}
	}
}

func TestCheckFieldsRejectsKindMismatch(t *testing.T) {
	c, err := NewCatalog(Step{ID: "x", Section: "S", Field: "asthma", Type: TypeSignature, Question: "?"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if err := c.CheckFields(); err == nil {
		t.Error("Expected a signature step on a text column to be rejected")
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "steps: []", "no steps"},
		{"unknown type", "steps:\n  - {id: a, field: a, type: slider}", "unknown type"},
		{"missing field", "steps:\n  - {id: a, type: text}", "missing field"},
		{"select without options", "steps:\n  - {id: a, field: a, type: select}", "needs options"},
		{"duplicate id", "steps:\n  - {id: a, field: a, type: text}\n  - {id: a, field: b, type: text}", "duplicate id"},
		{"labels mismatch", "steps:\n  - {id: a, type: checkbox-group, fields: [x, y], labels: [X]}", "labels"},
		{"bad rule", "steps:\n  - {id: a, field: a, type: text, show_if: {op: equals}}", "missing field"},
		{"unknown op", "steps:\n  - {id: a, field: a, type: text, show_if: {op: maybe, field: b}}", "unknown rule op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestParseRuleYAML(t *testing.T) {
	c, err := Parse([]byte(`
steps:
  - id: works
    field: works_offshore
    type: yesno
    question: Do you work offshore?
  - id: rig
    field: rig_name
    type: text
    question: Which rig?
    show_if:
      op: all
      operands:
        - {op: equals, field: works_offshore, value: "Yes"}
        - {op: not, operands: [{op: in, field: role, values: [Visitor, Guest]}]}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rig := c.Steps[1]
	if rig.Visible(Answers{"works_offshore": "No"}) {
		t.Error("Expected rig step hidden when not offshore")
	}
	if !rig.Visible(Answers{"works_offshore": "Yes", "role": "Driller"}) {
		t.Error("Expected rig step visible for an offshore driller")
	}
	if rig.Visible(Answers{"works_offshore": "Yes", "role": "Visitor"}) {
		t.Error("Expected rig step hidden for a visitor")
	}
}

func TestStepHelpers(t *testing.T) {
	yn := Step{Type: TypeYesNo}
	if got := yn.Choices(); len(got) != 2 || got[0] != "Yes" || got[1] != "No" {
		t.Errorf("Expected Yes/No choices, got %v", got)
	}
	if !yn.AutoAdvances() {
		t.Error("Expected yesno to auto-advance")
	}
	if (Step{Type: TypeText}).AutoAdvances() {
		t.Error("Expected text not to auto-advance")
	}
	if !(Step{Type: TypeTextarea}).Multiline() {
		t.Error("Expected textarea to be multiline")
	}
	group := Step{Type: TypeCheckboxGroup, Field: "ignored", Fields: []string{"a", "b"}}
	if keys := group.Keys(); len(keys) != 2 || keys[0] != "a" {
		t.Errorf("Expected group keys [a b], got %v", keys)
	}
}
