// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one study as decoded from the registry: a tree of
// map[string]any, []any and scalar JSON values.
type Record = map[string]any

// Lookup walks node along path. A string step indexes a map, an int step
// indexes a list. Any missing key, out-of-range index or type mismatch
// stops the walk and reports false.
func Lookup(node any, path ...any) (any, bool) {
	cur := node
	for _, step := range path {
		switch s := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = m[s]
			if !ok {
				return nil, false
			}
		case int:
			l, ok := cur.([]any)
			if !ok || s < 0 || s >= len(l) {
				return nil, false
			}
			cur = l[s]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// String returns the scalar at path rendered as text, or def when the path
// is missing, null, not a scalar, or blank.
func String(node any, def string, path ...any) string {
	v, ok := Lookup(node, path...)
	if !ok {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return def
	}
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// FirstString tries each candidate path in order and returns the first
// non-blank string. It is the compatibility shim for fields whose name
// differs between registry schema versions.
func FirstString(node any, def string, candidates ...[]any) string {
	for _, path := range candidates {
		if s := String(node, "", path...); s != "" {
			return s
		}
	}
	return def
}

// List returns the list at path, or nil when the path is missing or not a list.
func List(node any, path ...any) []any {
	v, ok := Lookup(node, path...)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// Strings returns the non-blank string elements of the list at path.
func Strings(node any, path ...any) []string {
	var out []string
	for _, item := range List(node, path...) {
		if s := String(item, ""); s != "" {
			out = append(out, s)
		}
	}
	return out
}
