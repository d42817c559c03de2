package model

import (
	"fmt"
	"strings"
)

// TagsField is the top-level field holding a record's tags.
const TagsField = "tags"

// Record is a single event flowing through the pipeline, as decoded from JSON
// or from a protobuf Struct. Nested objects are map[string]interface{}.
type Record map[string]interface{}

// ParseFieldRef splits a field reference into its path. Both the bracket form
// "[source][ip]" and the dotted form "source.ip" are accepted; a bare name is a
// single-element path.
func ParseFieldRef(ref string) []string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "[") && strings.HasSuffix(ref, "]") {
		parts := strings.Split(ref[1:len(ref)-1], "][")
		return parts
	}
	return strings.Split(ref, ".")
}

// Get returns the value at ref. A JSON null is reported as absent. A literal
// top-level key equal to ref (e.g. "source.ip") takes precedence over the path.
func (r Record) Get(ref string) (interface{}, bool) {
	if v, ok := r[ref]; ok {
		return v, v != nil
	}
	var cur interface{} = map[string]interface{}(r)
	for _, key := range ParseFieldRef(ref) {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Set stores v at ref, creating intermediate objects as needed. It fails if a
// path element exists and is not an object.
func (r Record) Set(ref string, v interface{}) error {
	path := ParseFieldRef(ref)
	m := map[string]interface{}(r)
	for i, key := range path[:len(path)-1] {
		next, exists := m[key]
		if !exists || next == nil {
			child := make(map[string]interface{})
			m[key] = child
			m = child
			continue
		}
		child, ok := asMap(next)
		if !ok {
			return fmt.Errorf("cannot set '%s': '%s' is a %T, not an object", ref, strings.Join(path[:i+1], "."), next)
		}
		m = child
	}
	m[path[len(path)-1]] = v
	return nil
}

// Tags returns the record's tags.
func (r Record) Tags() []string {
	switch tags := r[TagsField].(type) {
	case []string:
		return append([]string(nil), tags...)
	case []interface{}:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{tags}
	default:
		return nil
	}
}

// HasTag reports whether tag is present.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// Tag appends tag unless it is already present.
// Existing entries are kept as they are, including ones that are not strings.
func (r Record) Tag(tag string) {
	if r.HasTag(tag) {
		return
	}
	switch tags := r[TagsField].(type) {
	case nil:
		r[TagsField] = []interface{}{tag}
	case []interface{}:
		r[TagsField] = append(tags, tag)
	case []string:
		out := make([]interface{}, 0, len(tags)+1)
		for _, t := range tags {
			out = append(out, t)
		}
		r[TagsField] = append(out, tag)
	default:
		r[TagsField] = []interface{}{tags, tag}
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}
