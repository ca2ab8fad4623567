package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ID is a backend entity identifier. Some endpoints send it as a JSON number,
// others as a numeric string; both decode to the same value.
type ID int64

// UnmarshalJSON accepts 42, "42" and null. Anything else decodes to 0.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*id = 0
			return nil
		}
		v, _ := ParseID(s)
		*id = v
		return nil
	}
	v, _ := ParseID(json.Number(b))
	*id = v
	return nil
}

// MarshalJSON always emits a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(id), 10), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id == 0 }

// ParseID coerces a number or numeric string into an ID. Fractional values,
// empty strings and unsupported types report false.
func ParseID(v any) (ID, bool) {
	switch x := v.(type) {
	case ID:
		return x, true
	case int:
		return ID(x), true
	case int32:
		return ID(x), true
	case int64:
		return ID(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return ID(x), true
	case uint32:
		return ID(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return ID(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return ID(int64(x)), true
	case json.Number:
		return ParseID(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ID(n), true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return ParseID(f)
	default:
		return 0, false
	}
}

// SameID compares two identifiers by numeric value, so 42, "42" and ID(42)
// are all equal. Values that do not coerce are never equal to anything.
func SameID(a, b any) bool {
	x, ok := ParseID(a)
	if !ok {
		return false
	}
	y, ok := ParseID(b)
	return ok && x == y
}

// Identified is implemented by entities addressed by an ID.
type Identified interface {
	Identity() ID
}

// Find returns the first element whose identity equals id after numeric
// coercion, and its index. The index is -1 when nothing matches.
func Find[T Identified](items []T, id any) (T, int) {
	for i, item := range items {
		if SameID(item.Identity(), id) {
			return item, i
		}
	}
	var zero T
	return zero, -1
}
