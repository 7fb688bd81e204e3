package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind uint8

const (
	kindString valueKind = iota
	kindNumber
	kindBool
)

// Value is a template variable: a string, a number or a boolean.
// The zero Value is the empty string.
type Value struct {
	kind valueKind
	str  string
	num  float64
	b    bool
}

// String returns a string Value.
func String(s string) Value { return Value{kind: kindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// Int returns a numeric Value from an integer.
func Int(i int64) Value { return Value{kind: kindNumber, num: float64(i)} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// String renders the value as it is substituted into templates. Numbers use
// the shortest decimal form, so 3 renders as "3" and 2.5 as "2.5".
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// MarshalJSON encodes the value as its native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON accepts a JSON string, number, boolean or null. Objects and
// arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty template variable")
	}
	switch data[0] {
	case 'n':
		*v = String("")
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decoding boolean variable: %w", err)
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding string variable: %w", err)
		}
		*v = String(s)
		return nil
	case '{', '[':
		return fmt.Errorf("template variables must be strings, numbers or booleans")
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decoding numeric variable: %w", err)
		}
		*v = Number(f)
		return nil
	}
}

// Variables maps placeholder names to values.
type Variables map[string]Value

// VariablesFromMap converts loosely typed data (for example a notification's
// Data map) into Variables. Kinds outside the closed set are stringified with
// fmt; nil values become empty strings.
func VariablesFromMap(m map[string]any) Variables {
	vars := make(Variables, len(m))
	for k, raw := range m {
		vars[k] = valueOf(raw)
	}
	return vars
}

func valueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return String("")
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}
