package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputType is the widget a step renders.
type InputType string

const (
	TypeText          InputType = "text"
	TypeNumber        InputType = "number"
	TypeDate          InputType = "date"
	TypeTextarea      InputType = "textarea"
	TypeSelect        InputType = "select"
	TypeRadio         InputType = "radio"
	TypeYesNo         InputType = "yesno"
	TypeCheckboxGroup InputType = "checkbox-group"
	TypeSignature     InputType = "signature"
	TypePhoto         InputType = "photo"
)

var validTypes = map[InputType]bool{
	TypeText: true, TypeNumber: true, TypeDate: true, TypeTextarea: true,
	TypeSelect: true, TypeRadio: true, TypeYesNo: true, TypeCheckboxGroup: true,
	TypeSignature: true, TypePhoto: true,
}

// YesNoOptions are the fixed choices of a yesno step.
var YesNoOptions = []string{"Yes", "No"}

// Step is one screen of the wizard.
type Step struct {
	ID          string    `yaml:"id"`
	Section     string    `yaml:"section"`
	Field       string    `yaml:"field,omitempty"`
	Fields      []string  `yaml:"fields,omitempty"`
	Labels      []string  `yaml:"labels,omitempty"`
	Type        InputType `yaml:"type"`
	Question    string    `yaml:"question"`
	Placeholder string    `yaml:"placeholder,omitempty"`
	Tooltip     string    `yaml:"tooltip,omitempty"`
	Options     []string  `yaml:"options,omitempty"`
	Required    bool      `yaml:"required,omitempty"`
	ShowIf      *Rule     `yaml:"show_if,omitempty"`
}

// Visible reports whether the step is shown for a.
func (s Step) Visible(a Answers) bool {
	return s.ShowIf.Eval(a)
}

// Keys returns the answer fields the step writes.
func (s Step) Keys() []string {
	if s.Type == TypeCheckboxGroup {
		return s.Fields
	}
	if s.Field == "" {
		return nil
	}
	return []string{s.Field}
}

// Choices returns the selectable options, including the implicit yes/no pair.
func (s Step) Choices() []string {
	if s.Type == TypeYesNo {
		return YesNoOptions
	}
	return s.Options
}

// AutoAdvances reports whether picking a value moves the wizard on by itself.
func (s Step) AutoAdvances() bool {
	switch s.Type {
	case TypeSelect, TypeRadio, TypeYesNo:
		return true
	}
	return false
}

// Multiline reports whether Enter belongs to the input rather than navigation.
func (s Step) Multiline() bool {
	return s.Type == TypeTextarea
}

func (s Step) validate() error {
	if s.ID == "" {
		return errors.New("missing id")
	}
	if !validTypes[s.Type] {
		return fmt.Errorf("unknown type %q", s.Type)
	}
	switch s.Type {
	case TypeCheckboxGroup:
		if len(s.Fields) == 0 {
			return errors.New("checkbox-group needs fields")
		}
		if len(s.Labels) != len(s.Fields) {
			return fmt.Errorf("checkbox-group has %d fields but %d labels", len(s.Fields), len(s.Labels))
		}
		if s.Required {
			return errors.New("checkbox-group cannot be required")
		}
	default:
		if s.Field == "" {
			return errors.New("missing field")
		}
	}
	if (s.Type == TypeSelect || s.Type == TypeRadio) && len(s.Options) == 0 {
		return fmt.Errorf("%s needs options", s.Type)
	}
	if err := s.ShowIf.Validate(); err != nil {
		return fmt.Errorf("show_if: %w", err)
	}
	return nil
}

// Catalog is the ordered step sequence. It is never modified after load.
type Catalog struct {
	Title string `yaml:"title"`
	Steps []Step `yaml:"steps"`
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Parse decodes and validates a YAML step catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// NewCatalog builds a catalog from steps declared in code.
func NewCatalog(steps ...Step) (*Catalog, error) {
	c := &Catalog{Steps: steps}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the embedded questionnaire, checked against the field catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		return nil, err
	}
	if err := c.CheckFields(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustDefault is Default for program start-up.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks every step and that ids are unique.
func (c *Catalog) Validate() error {
	if len(c.Steps) == 0 {
		return errors.New("catalog has no steps")
	}
	seen := make(map[string]bool, len(c.Steps))
	for i, s := range c.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.ID, err)
		}
		if seen[s.ID] {
			return fmt.Errorf("step %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// CheckFields verifies every step field and every rule field exists in the
// storage catalog with a compatible kind.
func (c *Catalog) CheckFields() error {
	var problems []string
	for _, s := range c.Steps {
		for _, key := range s.Keys() {
			f, ok := LookupField(key)
			if !ok {
				problems = append(problems, fmt.Sprintf("step %s: field %q has no column", s.ID, key))
				continue
			}
			if !compatible(s.Type, f.Kind) {
				problems = append(problems, fmt.Sprintf("step %s: field %q is %s, not usable by a %s step", s.ID, key, f.Kind, s.Type))
			}
		}
		for _, key := range s.ShowIf.Fields() {
			if _, ok := LookupField(key); !ok {
				problems = append(problems, fmt.Sprintf("step %s: show_if reads unknown field %q", s.ID, key))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog does not match field catalog:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// compatible reports whether a step of type t can write a column of kind k.
// Digit-only text columns such as telephone numbers take number steps too.
func compatible(t InputType, k FieldKind) bool {
	switch t {
	case TypeNumber:
		return k == KindInt || k == KindText
	case TypeCheckboxGroup:
		return k == KindBool
	case TypeSignature, TypePhoto:
		return k == KindImage
	default:
		return k == KindText
	}
}

// Defaults returns empty values for every field the steps write.
func (c *Catalog) Defaults() Answers {
	a := Answers{}
	for _, s := range c.Steps {
		for _, key := range s.Keys() {
			if s.Type == TypeCheckboxGroup {
				a[key] = false
			} else {
				a[key] = ""
			}
		}
	}
	return a
}

// Len returns the number of steps.
func (c *Catalog) Len() int { return len(c.Steps) }
