package questionnaire

import (
	"fmt"
	"strings"
)

// Answers maps field names to values. Values are strings (text, digit-only
// numbers, data URLs) or bools (checkbox fields).
//
// An Answers value is treated as immutable: With returns a modified copy and
// never touches the receiver.
type Answers map[string]any

// With returns a copy of a with field set to value.
func (a Answers) With(field string, value any) Answers {
	out := make(Answers, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[field] = value
	return out
}

// Clone returns a shallow copy. Values are strings or bools, so shallow is enough.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String returns the string form of field, or "" when unset.
func (a Answers) String(field string) string {
	switch v := a[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether field holds true.
func (a Answers) Bool(field string) bool {
	switch v := a[field].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true
		}
	}
	return false
}

// IsEmpty reports whether field has no value: missing, nil or the empty
// string. A false checkbox is a value.
func (a Answers) IsEmpty(field string) bool {
	v, ok := a[field]
	if !ok || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr {
		return s == ""
	}
	return false
}

// Equal reports whether a and b hold the same keys and values.
func (a Answers) Equal(b Answers) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || v != w {
			return false
		}
	}
	return true
}

// FilterDigits strips every non-digit character. Number steps store the
// result as-is: no sign, no decimals, no bound.
func FilterDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
