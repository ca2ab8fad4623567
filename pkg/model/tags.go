package model

import (
	"bytes"
	"encoding/json"
)

// Tags is a string list that the backend stores as a JSON column. Depending on
// the endpoint it arrives as an array, as a string holding an encoded array, or
// as null. Malformed input decodes to an empty list.
type Tags []string

// UnmarshalJSON never fails; unusable input yields an empty list.
func (t *Tags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Tags{}
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(b, &list); err == nil && list != nil {
			*t = list
		}
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = ParseTags(s)
		}
	}
	return nil
}

// MarshalJSON emits an array, never null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// ParseTags decodes a JSON-encoded string array. Invalid JSON, a non-array
// document or null all yield an empty, non-nil list.
func ParseTags(s string) Tags {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil || list == nil {
		return Tags{}
	}
	return list
}
