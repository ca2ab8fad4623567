package model

import (
	"bytes"
	"encoding/json"
	"math"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Millicores is a CPU amount. It decodes from a JSON number of millicores or
// from a Kubernetes quantity string such as "250m" or "1.5".
type Millicores int64

// Bytes is a memory amount. It decodes from a JSON number of bytes or from a
// Kubernetes quantity string such as "512Mi".
type Bytes int64

func (m *Millicores) UnmarshalJSON(b []byte) error {
	v, ok := decodeQuantity(b, func(q resource.Quantity) int64 { return q.MilliValue() })
	if ok {
		*m = Millicores(v)
	} else {
		*m = 0
	}
	return nil
}

// Cores returns the amount in whole cores.
func (m Millicores) Cores() float64 { return float64(m) / 1000 }

func (s *Bytes) UnmarshalJSON(b []byte) error {
	v, ok := decodeQuantity(b, func(q resource.Quantity) int64 { return q.Value() })
	if ok {
		*s = Bytes(v)
	} else {
		*s = 0
	}
	return nil
}

// decodeQuantity reads a number verbatim and a string through
// resource.ParseQuantity, scaled by unit.
func decodeQuantity(b []byte, unit func(resource.Quantity) int64) (int64, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil || s == "" {
			return 0, false
		}
		q, err := resource.ParseQuantity(s)
		if err != nil {
			return 0, false
		}
		return unit(q), true
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, false
	}
	return int64(math.Round(f)), true
}
