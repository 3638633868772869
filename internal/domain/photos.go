package domain

import (
	"encoding/json"
	"strings"
)

// ParsePhotos decodes the stored photos column. It accepts a JSON array or the
// legacy comma-joined form; empty, null and malformed input yield an empty slice.
func ParsePhotos(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
			return []string{}
		}
		return compact(out)
	}
	return compact(strings.Split(raw, ","))
}

// EncodePhotos serializes photos for storage as a JSON array string.
func EncodePhotos(photos []string) string {
	b, err := json.Marshal(compact(photos))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// NonNil returns s, or an empty slice when s is nil.
func NonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
