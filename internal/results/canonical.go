package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalCanonical encodes a row as deterministic JSON: keys sorted, no
// HTML escaping, null and NaN cells omitted. Strings are kept byte for
// byte; RowHash normalizes them before hashing.
// Floats are written with a decimal point or exponent so UnmarshalRow
// restores them as Float, never Int.
func MarshalCanonical(r Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	for _, k := range r.Keys() {
		v := r[k]
		if IsNull(v) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		keyBytes, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return marshalString(string(val))
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		f := float64(val)
		if math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite float %v", f)
		}
		return []byte(formatFloat(f)), nil
	case Bool:
		return []byte(strconv.FormatBool(bool(val))), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// UnmarshalRow decodes JSON produced by MarshalCanonical.
// Integer literals become Int, other numbers Float, JSON null becomes Null.
func UnmarshalRow(data []byte) (Row, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	row := make(Row, len(raw))
	for k, msg := range raw {
		v, err := unmarshalValue(msg)
		if err != nil {
			return nil, fmt.Errorf("unmarshal row key %q: %w", k, err)
		}
		row[k] = v
	}
	return row, nil
}

func unmarshalValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return Null{}, nil
	}

	lit := string(data)
	if !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return Float(f), nil
}
