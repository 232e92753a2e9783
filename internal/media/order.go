package media

import "coursegen/internal/llmjson"

// OrderedValues flattens a slot-keyed result into a list ordered by slot id.
func OrderedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, k := range llmjson.SortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
