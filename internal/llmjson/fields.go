package llmjson

import (
	"sort"
	"strconv"
	"strings"
)

// String reads m[key] as text. Scalars are formatted; anything else is "".
func String(m map[string]any, key string) string {
	return scalarString(m[key])
}

// Object reads m[key] as a nested object, or nil.
func Object(m map[string]any, key string) map[string]any {
	obj, _ := m[key].(map[string]any)
	return obj
}

// StringList reads an ordered list of titles. Items may be plain strings or
// objects carrying a "title" field; blank items are dropped.
func StringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := scalarString(item)
		if obj, ok := item.(map[string]any); ok {
			s = String(obj, "title")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StringMap reads a slot-id -> text mapping. An array is accepted too, keyed
// by 1-based position. Blank values are dropped. Never returns nil.
func StringMap(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]any:
		for k, raw := range t {
			if s := strings.TrimSpace(scalarString(raw)); s != "" {
				out[k] = s
			}
		}
	case []any:
		for i, raw := range t {
			if s := strings.TrimSpace(scalarString(raw)); s != "" {
				out[strconv.Itoa(i+1)] = s
			}
		}
	}
	return out
}

// SortedKeys orders slot ids numerically when both are integers and
// lexically otherwise, so "2" sorts before "10".
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
