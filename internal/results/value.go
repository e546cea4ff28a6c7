package results

import (
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface over the scalar types a result cell can hold.
type Value interface {
	value()
}

// Null marks a missing cell.
type Null struct{}

func (Null) value() {}

// String is a text cell.
type String string

func (String) value() {}

// Int is an integer cell.
type Int int64

func (Int) value() {}

// Float is a floating point cell.
type Float float64

func (Float) value() {}

// Bool is a boolean cell.
type Bool bool

func (Bool) value() {}

// IsNull reports whether v is missing: nil, Null, or a NaN Float.
func IsNull(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return true
	case Float:
		return math.IsNaN(float64(val))
	default:
		return false
	}
}

// Cell renders v for a delimited text file. Null and NaN become the empty string.
// Floats always carry a decimal point, exponent or NaN/Inf marker so that
// ParseCell returns a Float again.
func Cell(v Value) string {
	if IsNull(v) {
		return ""
	}
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return ""
	}
}

// ParseCell is the inverse of Cell.
func ParseCell(s string) Value {
	switch s {
	case "":
		return Null{}
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "NaN":
		return Float(math.NaN())
	case "Inf", "+Inf":
		return Float(math.Inf(1))
	case "-Inf":
		return Float(math.Inf(-1))
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	return String(s)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal compares two values, treating NaN as equal to NaN and all nulls as equal.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return a == b
}
