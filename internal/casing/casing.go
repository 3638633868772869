// Package casing converts field names between the client's camelCase and the
// API's snake_case. Conversion is lexical and one level deep.
package casing

import (
	"encoding/json"
	"strings"
	"unicode"
)

// ToSnake inserts "_" before each upper-case letter and lower-cases it: catId -> cat_id.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel drops each "_" and upper-cases the letter after it: cat_id -> catId.
func ToCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KeysToSnake returns a copy of m with every top-level key converted. Values are untouched.
func KeysToSnake(m map[string]any) map[string]any {
	return convertKeys(m, ToSnake)
}

// KeysToCamel returns a copy of m with every top-level key converted. Values are untouched.
func KeysToCamel(m map[string]any) map[string]any {
	return convertKeys(m, ToCamel)
}

func convertKeys(m map[string]any, fn func(string) string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fn(k)] = v
	}
	return out
}

// MarshalSnake encodes v (a struct with camelCase json tags) as a snake_case object.
func MarshalSnake(v any) ([]byte, error) {
	m, err := toMap(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(KeysToSnake(m))
}

// UnmarshalSnake decodes a snake_case object into v (a struct with camelCase json tags).
func UnmarshalSnake(data []byte, v any) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	b, err := json.Marshal(KeysToCamel(m))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// MarshalSnakeList encodes a slice of structs as a JSON array of snake_case objects.
func MarshalSnakeList[T any](items []T) ([]byte, error) {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, err := toMap(it)
		if err != nil {
			return nil, err
		}
		out = append(out, KeysToSnake(m))
	}
	return json.Marshal(out)
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
