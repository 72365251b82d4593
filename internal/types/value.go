package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a row cell value: either a string or a number.
// The zero Value is the empty string.
type Value struct {
	str   string
	num   float64
	isNum bool
}

// String returns a string Value.
func String(s string) Value { return Value{str: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{num: n, isNum: true} }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.isNum }

// IsEmpty reports whether v is the empty string.
func (v Value) IsEmpty() bool { return !v.isNum && v.str == "" }

// Num returns the numeric content; ok is false for strings.
func (v Value) Num() (n float64, ok bool) { return v.num, v.isNum }

// Str returns the string content; ok is false for numbers.
func (v Value) Str() (s string, ok bool) { return v.str, !v.isNum }

// String renders v as text. Numbers use the shortest representation.
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.str); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case bytes.Equal(data, []byte("true")):
		*v = String("TRUE")
	case bytes.Equal(data, []byte("false")):
		*v = String("FALSE")
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("row value %s is neither a string nor a number", data)
		}
		*v = Number(n)
	}
	return nil
}
