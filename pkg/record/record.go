// Package record resolves fields of loosely typed portal JSON, where the same
// datum shows up under different keys depending on the endpoint.
package record

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"orarictl/pkg/textutil"
)

// Record is a single decoded JSON object.
type Record map[string]any

// String renders scalars as text. Strings are returned as-is and numbers in
// their JSON spelling; anything else reports false.
func String(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	default:
		return "", false
	}
}

// Raw returns the textual value stored under key, or "".
func (r Record) Raw(key string) string {
	s, _ := String(r[key])
	return s
}

// First returns the first non-blank value among keys, trimmed and with
// HTML entities decoded.
func (r Record) First(keys ...string) (string, bool) {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = r.Raw(k)
	}
	return textutil.FirstNonEmpty(values...)
}

// FirstOr is First with a fallback for the missing case.
func (r Record) FirstOr(fallback string, keys ...string) string {
	if s, ok := r.First(keys...); ok {
		return s
	}
	return fallback
}

// Objects collects the JSON objects contained in v. Arrays keep their order;
// object values are visited in key order.
func Objects(v any) []Record {
	switch x := v.(type) {
	case []any:
		out := make([]Record, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	case map[string]any:
		out := make([]Record, 0, len(x))
		for _, k := range SortedKeys(x) {
			if m, ok := x[k].(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	default:
		return nil
	}
}

// Joined flattens a scalar or a list of names into "a, b". List items may be
// strings or objects carrying label/nome/name/value; duplicates are dropped.
func Joined(v any) (string, bool) {
	if s, ok := String(v); ok {
		if s, ok := textutil.FirstNonEmpty(s); ok {
			return s, true
		}
	}

	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return "", false
	}

	seen := make(map[string]bool)
	var pieces []string
	for _, item := range items {
		var piece string
		if s, ok := String(item); ok {
			piece, _ = textutil.FirstNonEmpty(s)
		} else if m, ok := item.(map[string]any); ok {
			piece, _ = Record(m).First("label", "nome", "name", "value")
		}
		if piece == "" || seen[piece] {
			continue
		}
		seen[piece] = true
		pieces = append(pieces, piece)
	}

	if len(pieces) == 0 {
		return "", false
	}
	return strings.Join(pieces, ", "), true
}

// IsBlank reports whether v carries no data: null, an empty array or object,
// or a whitespace-only string. Numbers and booleans are never blank.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// SortedKeys returns the keys of m in ascending order. Integer keys come
// first in numeric order, so "10" sorts after "9".
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil && a != b:
			return a < b
		case errA == nil && errB != nil:
			return true
		case errA != nil && errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
