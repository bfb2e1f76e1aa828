package questionnaire

import (
	"fmt"
	"slices"
)

// Op is the tag of a visibility Rule.
type Op string

const (
	OpEquals    Op = "equals"
	OpNotEquals Op = "not_equals"
	OpIn        Op = "in"
	OpFilled    Op = "filled"
	OpChecked   Op = "checked"
	OpAll       Op = "all"
	OpAny       Op = "any"
	OpNot       Op = "not"
)

// Rule is a visibility predicate stored as plain data. Leaf rules read one
// field; all, any and not combine Operands.
type Rule struct {
	Op       Op       `yaml:"op"`
	Field    string   `yaml:"field,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	Values   []string `yaml:"values,omitempty"`
	Operands []Rule   `yaml:"operands,omitempty"`
}

func Equals(field, value string) *Rule {
	return &Rule{Op: OpEquals, Field: field, Value: value}
}

func NotEquals(field, value string) *Rule {
	return &Rule{Op: OpNotEquals, Field: field, Value: value}
}

func In(field string, values ...string) *Rule {
	return &Rule{Op: OpIn, Field: field, Values: values}
}

func Filled(field string) *Rule {
	return &Rule{Op: OpFilled, Field: field}
}

func Checked(field string) *Rule {
	return &Rule{Op: OpChecked, Field: field}
}

func All(rules ...*Rule) *Rule {
	return &Rule{Op: OpAll, Operands: deref(rules)}
}

func Any(rules ...*Rule) *Rule {
	return &Rule{Op: OpAny, Operands: deref(rules)}
}

func Not(rule *Rule) *Rule {
	return &Rule{Op: OpNot, Operands: []Rule{*rule}}
}

func deref(rules []*Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, *r)
	}
	return out
}

// Eval evaluates r against a. A nil rule is always true.
func (r *Rule) Eval(a Answers) bool {
	if r == nil {
		return true
	}
	switch r.Op {
	case OpEquals:
		return a.String(r.Field) == r.Value
	case OpNotEquals:
		return a.String(r.Field) != r.Value
	case OpIn:
		return slices.Contains(r.Values, a.String(r.Field))
	case OpFilled:
		return !a.IsEmpty(r.Field)
	case OpChecked:
		return a.Bool(r.Field)
	case OpAll:
		for i := range r.Operands {
			if !r.Operands[i].Eval(a) {
				return false
			}
		}
		return true
	case OpAny:
		for i := range r.Operands {
			if r.Operands[i].Eval(a) {
				return true
			}
		}
		return false
	case OpNot:
		return len(r.Operands) == 1 && !r.Operands[0].Eval(a)
	default:
		return false
	}
}

// Fields returns every field the rule reads.
func (r *Rule) Fields() []string {
	if r == nil {
		return nil
	}
	var out []string
	if r.Field != "" {
		out = append(out, r.Field)
	}
	for i := range r.Operands {
		out = append(out, r.Operands[i].Fields()...)
	}
	return out
}

// Validate checks the rule's shape.
func (r *Rule) Validate() error {
	if r == nil {
		return nil
	}
	switch r.Op {
	case OpEquals, OpNotEquals, OpFilled, OpChecked:
		if r.Field == "" {
			return fmt.Errorf("rule %q: missing field", r.Op)
		}
	case OpIn:
		if r.Field == "" || len(r.Values) == 0 {
			return fmt.Errorf("rule %q: needs field and values", r.Op)
		}
	case OpAll, OpAny:
		if len(r.Operands) == 0 {
			return fmt.Errorf("rule %q: no operands", r.Op)
		}
	case OpNot:
		if len(r.Operands) != 1 {
			return fmt.Errorf("rule %q: needs exactly one operand, got %d", r.Op, len(r.Operands))
		}
	default:
		return fmt.Errorf("unknown rule op %q", r.Op)
	}
	for i := range r.Operands {
		if err := r.Operands[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
