// Package envelope extracts typed payloads from backend response bodies.
//
// The backend nests payloads at different depths per endpoint. Each endpoint
// declares its shape once as a Descriptor; the decode functions walk the
// declared path and, on any mismatch, report it and return a safe default
// instead of an error.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Leaf is the JSON kind expected at the end of a descriptor's path.
type Leaf int

const (
	LeafAny Leaf = iota
	LeafArray
	LeafObject
	LeafMap
)

func (l Leaf) String() string {
	switch l {
	case LeafArray:
		return "array"
	case LeafObject:
		return "object"
	case LeafMap:
		return "map"
	default:
		return "any"
	}
}

// Descriptor declares where an endpoint's payload lives.
type Descriptor struct {
	// Name labels logs and metrics, e.g. "clusters.list".
	Name string
	// Path is the key path from the body root to the payload.
	Path []string
	// Leaf is the expected payload kind.
	Leaf Leaf
	// Lenient descends through one extra "data" wrapper when the payload at
	// Path is an object holding an object or array under "data".
	Lenient bool
	// Optional suppresses the mismatch report when the path is absent.
	Optional bool
}

// Depth builds the path of n nested "data" keys.
func Depth(n int) []string {
	p := make([]string, n)
	for i := range p {
		p[i] = "data"
	}
	return p
}

// At returns a copy of d pointing at a sibling key of its payload's parent,
// e.g. the "pagination" next to a paginated list.
func (d Descriptor) At(name string, leaf Leaf, key string) Descriptor {
	parent := d.Path
	if len(parent) > 0 {
		parent = parent[:len(parent)-1]
	}
	path := append(append([]string(nil), parent...), key)
	return Descriptor{Name: name, Path: path, Leaf: leaf, Optional: true}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s:%s)", d.Name, strings.Join(d.Path, "."), d.Leaf)
}

// Reporter receives shape mismatches.
type Reporter interface {
	Mismatch(d Descriptor, reason string)
}

// Discard ignores mismatches.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Mismatch(Descriptor, string) {}

// Extract walks d.Path through body and returns the raw payload. ok is false
// when any step does not match; the reason is passed to r.
func Extract(r Reporter, body []byte, d Descriptor) (json.RawMessage, bool) {
	if r == nil {
		r = Discard
	}
	cur := json.RawMessage(bytes.TrimSpace(body))
	for i, key := range d.Path {
		obj, ok := asObject(cur)
		if !ok {
			r.Mismatch(d, fmt.Sprintf("%s is not an object", pathPrefix(d.Path, i)))
			return nil, false
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			if !d.Optional {
				r.Mismatch(d, fmt.Sprintf("missing key %q", pathPrefix(d.Path, i+1)))
			}
			return nil, false
		}
		cur = bytes.TrimSpace(next)
	}

	if d.Lenient {
		cur = unwrapData(cur, d.Leaf)
	}

	if !leafMatches(cur, d.Leaf) {
		r.Mismatch(d, fmt.Sprintf("expected %s at %s, got %s", d.Leaf, pathPrefix(d.Path, len(d.Path)), kindOf(cur)))
		return nil, false
	}
	return cur, true
}

// List decodes an array payload. A mismatch yields an empty, non-nil slice.
func List[E any](r Reporter, body []byte, d Descriptor) ([]E, bool) {
	if d.Leaf == LeafAny {
		d.Leaf = LeafArray
	}
	raw, ok := Extract(r, body, d)
	if !ok {
		return []E{}, false
	}
	var out []E
	if err := json.Unmarshal(raw, &out); err != nil {
		report(r, d, "undecodable array: "+err.Error())
		return []E{}, false
	}
	if out == nil {
		out = []E{}
	}
	return out, true
}

// Object decodes an object payload. A mismatch yields the zero value.
func Object[T any](r Reporter, body []byte, d Descriptor) (T, bool) {
	var zero T
	if d.Leaf == LeafAny {
		d.Leaf = LeafObject
	}
	raw, ok := Extract(r, body, d)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		report(r, d, "undecodable object: "+err.Error())
		return zero, false
	}
	return out, true
}

// Map decodes an object payload keyed by string. A mismatch yields an empty,
// non-nil map.
func Map[V any](r Reporter, body []byte, d Descriptor) (map[string]V, bool) {
	if d.Leaf == LeafAny || d.Leaf == LeafObject {
		d.Leaf = LeafMap
	}
	raw, ok := Extract(r, body, d)
	if !ok {
		return map[string]V{}, false
	}
	var out map[string]V
	if err := json.Unmarshal(raw, &out); err != nil {
		report(r, d, "undecodable map: "+err.Error())
		return map[string]V{}, false
	}
	if out == nil {
		out = map[string]V{}
	}
	return out, true
}

func report(r Reporter, d Descriptor, reason string) {
	if r == nil {
		return
	}
	r.Mismatch(d, reason)
}

// unwrapData descends into a "data" member that holds the expected kind.
func unwrapData(cur json.RawMessage, leaf Leaf) json.RawMessage {
	obj, ok := asObject(cur)
	if !ok {
		return cur
	}
	inner, ok := obj["data"]
	if !ok {
		return cur
	}
	inner = bytes.TrimSpace(inner)
	switch leaf {
	case LeafArray:
		if isArray(inner) {
			return inner
		}
	case LeafObject, LeafMap:
		if _, ok := asObject(inner); ok {
			return inner
		}
	}
	return cur
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isArray(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func leafMatches(raw json.RawMessage, leaf Leaf) bool {
	switch leaf {
	case LeafArray:
		return isArray(raw)
	case LeafObject, LeafMap:
		return len(raw) > 0 && raw[0] == '{'
	default:
		return len(raw) > 0
	}
}

func kindOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func pathPrefix(path []string, n int) string {
	if n == 0 {
		return "body"
	}
	return strings.Join(path[:n], ".")
}
