package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// Coerce converts a submitted value to the column kind of f. Empty text and
// empty numbers become nil (NULL). Checkbox columns take the truthiness of
// the value and are never NULL.
func Coerce(f questionnaire.Field, v any) (any, error) {
	switch f.Kind {
	case questionnaire.KindInt:
		return coerceInt(f.Name, v)
	case questionnaire.KindBool:
		return truthy(v), nil
	default:
		return coerceText(v), nil
	}
}

func coerceText(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func coerceInt(name string, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, fmt.Errorf("%w: %s: %v is not an integer", ErrInvalid, name, t)
		}
		return int64(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		return n, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalid, name, t)
		}
		return n, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("%w: %s: unsupported value %T", ErrInvalid, name, v)
}

// truthy follows loose truthiness, except that the strings "false" and "0"
// are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0":
			return false
		}
		return true
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	return true
}

// columnValues returns one coerced value per catalog field, in catalog
// order, and the submitted keys that are not catalog fields.
func columnValues(a questionnaire.Answers) ([]any, []string, error) {
	fields := questionnaire.Fields()
	out := make([]any, len(fields))
	for i, f := range fields {
		v, err := Coerce(f, a[f.Name])
		if err != nil {
			return nil, nil, err
		}
		out[i] = v
	}
	var unknown []string
	for k := range a {
		if _, ok := questionnaire.LookupField(k); !ok || k != strings.ToLower(strings.TrimSpace(k)) {
			unknown = append(unknown, k)
		}
	}
	return out, unknown, nil
}
