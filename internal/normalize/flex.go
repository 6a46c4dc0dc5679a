// Package normalize coerces the heterogeneous payloads of the two external
// collaborators (itinerary generator, lodging search) into the internal
// record shapes. Numeric fields in those payloads arrive as numbers, strings,
// nulls or the literal word "None"; coercion falls back to nil, never to an
// error.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// nullWords are string values the upstream services use in place of an
// actual null.
func isNullWord(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null", "nil", "n/a", "-":
		return true
	}
	return false
}

// Int coerces a decoded JSON value to *int. Floats are truncated, numeric
// strings parsed; anything unconvertible (including "None") yields nil.
func Int(v interface{}) *int {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		n := int(t)
		return &n
	case int:
		n := t
		return &n
	case json.Number:
		if f, err := t.Float64(); err == nil {
			n := int(f)
			return &n
		}
		return nil
	case string:
		if isNullWord(t) {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			n := int(f)
			return &n
		}
		return nil
	case bool:
		return nil
	default:
		return nil
	}
}

// Float coerces a decoded JSON value to *float64 with the same fallback
// rules as Int.
func Float(v interface{}) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f := t
		return &f
	case int:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		if isNullWord(t) {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// String coerces a decoded JSON value to a plain string. Numbers are
// formatted, null-words collapse to "".
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if isNullWord(t) {
			return ""
		}
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// pick returns the first present key from a decoded JSON object, tolerating
// the field-name variants the collaborators have used over time.
func pick(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
