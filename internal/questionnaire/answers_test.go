package questionnaire

import "testing"

func TestFilterDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a1b2c3", "123"},
		{"123", "123"},
		{"", ""},
		{"-12.5", "125"},
		{"+44 (0)1224 555", "4401224555"},
		{"١٢٣", ""},
	}
	for _, tt := range tests {
		if got := FilterDigits(tt.in); got != tt.want {
			t.Errorf("FilterDigits(%q): expected %q, got %q", tt.in, tt.want, got)
		}
		if again := FilterDigits(FilterDigits(tt.in)); again != FilterDigits(tt.in) {
			t.Errorf("FilterDigits not idempotent for %q", tt.in)
		}
	}
}

func TestAnswersWithDoesNotMutate(t *testing.T) {
	a := Answers{"surname": ""}
	b := a.With("surname", "Smith")

	if a.String("surname") != "" {
		t.Errorf("Expected original untouched, got %q", a.String("surname"))
	}
	if b.String("surname") != "Smith" {
		t.Errorf("Expected Smith, got %q", b.String("surname"))
	}
	b["city"] = "Aberdeen"
	if _, ok := a["city"]; ok {
		t.Error("Expected maps not to share storage")
	}
}

func TestAnswersIsEmpty(t *testing.T) {
	a := Answers{"s": "", "f": false, "t": "x", "n": nil}
	for _, k := range []string{"s", "n", "missing"} {
		if !a.IsEmpty(k) {
			t.Errorf("Expected %q empty", k)
		}
	}
	for _, k := range []string{"f", "t"} {
		if a.IsEmpty(k) {
			t.Errorf("Expected %q not empty", k)
		}
	}
	if a.IsEmpty("t") || (Answers{"ws": "  "}).IsEmpty("ws") {
		t.Error("Expected whitespace to count as a value")
	}
}

func TestAnswersBool(t *testing.T) {
	a := Answers{"a": true, "b": false, "c": "true", "d": "no"}
	if !a.Bool("a") || a.Bool("b") || !a.Bool("c") || a.Bool("d") || a.Bool("missing") {
		t.Errorf("Unexpected Bool results for %v", a)
	}
}

func TestInitialAnswers(t *testing.T) {
	a := InitialAnswers()
	if len(a) != len(Fields()) {
		t.Fatalf("Expected %d defaults, got %d", len(Fields()), len(a))
	}
	if a["work_involves_food"] != false {
		t.Errorf("Expected bool default false, got %#v", a["work_involves_food"])
	}
	if a["signature_base64"] != "" {
		t.Errorf("Expected image default empty string, got %#v", a["signature_base64"])
	}
}

func TestLookupField(t *testing.T) {
	f, ok := LookupField(" Asthma ")
	if !ok {
		t.Fatal("Expected asthma to be found case-insensitively")
	}
	if f.Kind != KindText || f.Section != "Medical history" {
		t.Errorf("Unexpected field %+v", f)
	}
	if _, ok := LookupField("q1_smoke"); ok {
		t.Error("Expected survey key not to be a column")
	}
	if KindImage.String() != "image" || FieldKind(99).String() != "unknown" {
		t.Error("Unexpected FieldKind strings")
	}
	sections := FieldSections()
	if sections[0] != "Background" || sections[len(sections)-1] != "Declaration" {
		t.Errorf("Unexpected section order %v", sections)
	}
}
