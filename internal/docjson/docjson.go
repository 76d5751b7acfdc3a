package docjson

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Package docjson applies partial field updates to JSON-shaped documents.
// Field names are dot-separated paths ("responsibility.dinnerId",
// "attendance.u1"); the value replaces whatever sits at the path while every
// sibling (other keys at each level of the path) is preserved. Missing
// intermediate maps are created. This is the merge primitive behind every
// partial update in the repository, and the reason a write to one user's
// attendance record can never clobber another's.

// Apply sets each field path on a copy-in-place of doc and returns it. Paths
// are applied in sorted order so the result is deterministic when two paths
// overlap. A path that traverses a non-map value is an error; nothing is
// partially applied in that case because the caller discards the document on
// error.
func Apply(doc map[string]any, fields map[string]any) (map[string]any, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := set(doc, path, fields[path]); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func set(doc map[string]any, path string, value any) error {
	segs := strings.Split(path, ".")
	cur := doc
	for i, seg := range segs[:len(segs)-1] {
		if seg == "" {
			return fmt.Errorf("empty segment in field path %q", path)
		}
		next, ok := cur[seg]
		if !ok || next == nil {
			m := map[string]any{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("field path %q crosses non-map value at %q", path, strings.Join(segs[:i+1], "."))
		}
		cur = m
	}
	leaf := segs[len(segs)-1]
	if leaf == "" {
		return fmt.Errorf("empty segment in field path %q", path)
	}
	cur[leaf] = value
	return nil
}

// NormalizeValue round-trips a Go value through JSON so typed structs become
// plain maps before they are merged into a raw document.
func NormalizeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize field value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("normalize field value: %w", err)
	}
	return out, nil
}

// NormalizeFields applies NormalizeValue to every entry.
func NormalizeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}
