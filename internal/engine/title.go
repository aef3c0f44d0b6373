package engine

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
)

const maxTitleLen = 60

// DeriveTitle builds the human-readable label shown in the resume UI. It is
// regenerated from the payload on every save and never hand-entered: the
// first usable text value (by sorted key, for stability) is taken, trimmed
// and truncated. Payloads with no text fall back to the module name.
func DeriveTitle(module string, data json.RawMessage) string {
	fallback := titleize(module) + " draft"

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fallback
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s, ok := fields[k].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		return truncate(s, maxTitleLen)
	}
	return fallback
}

func titleize(s string) string {
	if s == "" {
		return "Untitled"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
