package questionnaire

import "testing"

func TestRuleEval(t *testing.T) {
	a := Answers{
		"works_offshore": "Yes",
		"smoking_status": "Former smoker",
		"city":           "",
		"ert":            true,
	}
	tests := []struct {
		name string
		rule *Rule
		want bool
	}{
		{"nil", nil, true},
		{"equals", Equals("works_offshore", "Yes"), true},
		{"equals unset", Equals("missing", "Yes"), false},
		{"not equals", NotEquals("works_offshore", "No"), true},
		{"in", In("smoking_status", "Former smoker", "Current smoker"), true},
		{"in miss", In("smoking_status", "Current smoker"), false},
		{"filled", Filled("works_offshore"), true},
		{"filled empty", Filled("city"), false},
		{"checked", Checked("ert"), true},
		{"checked missing", Checked("cranes"), false},
		{"all", All(Equals("works_offshore", "Yes"), Checked("ert")), true},
		{"all short", All(Equals("works_offshore", "Yes"), Filled("city")), false},
		{"any", Any(Filled("city"), Checked("ert")), true},
		{"not", Not(Filled("city")), true},
		{"unknown op", &Rule{Op: "maybe"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Eval(a); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRuleFields(t *testing.T) {
	r := All(Equals("a", "1"), Not(In("b", "x")), Any(Checked("c")))
	got := r.Fields()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	if err := (&Rule{Op: OpNot}).Validate(); err == nil {
		t.Error("Expected not without operand to fail")
	}
	if err := All().Validate(); err == nil {
		t.Error("Expected empty all to fail")
	}
	if err := In("a").Validate(); err == nil {
		t.Error("Expected in without values to fail")
	}
	if err := All(Equals("a", "b"), &Rule{Op: OpEquals}).Validate(); err == nil {
		t.Error("Expected nested error to surface")
	}
	if err := Any(Equals("a", "b")).Validate(); err != nil {
		t.Errorf("Expected valid rule, got %v", err)
	}
}
