package envelope

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) Mismatch(d Descriptor, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, d.Name+": "+reason)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

// wrap nests v under depth "data" keys inside a success envelope.
func wrap(t *testing.T, v any, depth int) []byte {
	t.Helper()
	var cur any = v
	for i := 1; i < depth; i++ {
		cur = map[string]any{"data": cur}
	}
	b, err := json.Marshal(map[string]any{"code": 0, "msg": "ok", "data": cur})
	require.NoError(t, err)
	return b
}

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestDecode_RoundTripAtEveryDepth(t *testing.T) {
	list := []item{{1, "a"}, {2, "b"}}
	obj := item{ID: 42, Name: "answer"}
	m := map[string]item{"1": {1, "a"}}

	for depth := 1; depth <= 3; depth++ {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			rec := &recorder{}

			gotList, ok := List[item](rec, wrap(t, list, depth), Descriptor{Name: "list", Path: Depth(depth), Leaf: LeafArray})
			require.True(t, ok)
			assert.Equal(t, list, gotList)

			gotObj, ok := Object[item](rec, wrap(t, obj, depth), Descriptor{Name: "obj", Path: Depth(depth), Leaf: LeafObject})
			require.True(t, ok)
			assert.Equal(t, obj, gotObj)

			gotMap, ok := Map[item](rec, wrap(t, m, depth), Descriptor{Name: "map", Path: Depth(depth), Leaf: LeafMap})
			require.True(t, ok)
			assert.Equal(t, m, gotMap)

			assert.Zero(t, rec.count(), "no mismatch expected")
		})
	}
}

func TestList_MalformedBodiesFallBackToEmpty(t *testing.T) {
	d := Descriptor{Name: "clusters.list", Path: Depth(2), Leaf: LeafArray}
	bodies := map[string]string{
		"missing data":          `{"code":0,"msg":"ok"}`,
		"data null":             `{"code":0,"data":null}`,
		"inner data missing":    `{"code":0,"data":{"count":0}}`,
		"data not an array":     `{"code":0,"data":{"data":{"id":1}}}`,
		"data is a string":      `{"code":0,"data":{"data":"oops"}}`,
		"outer data is array":   `{"code":0,"data":[1,2]}`,
		"not json":              `<html>gateway</html>`,
		"empty body":            ``,
		"elements wrong type":   `{"code":0,"data":{"data":["a","b"]}}`,
		"body is a bare number": `42`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			var got []item
			require.NotPanics(t, func() {
				got, _ = List[item](rec, []byte(body), d)
			})
			require.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, 1, rec.count(), "exactly one logged warning expected")
		})
	}
}

func TestObject_MismatchYieldsZeroValue(t *testing.T) {
	rec := &recorder{}
	got, ok := Object[item](rec, []byte(`{"code":0,"data":[1]}`), Descriptor{Name: "obj", Path: Depth(1), Leaf: LeafObject})
	assert.False(t, ok)
	assert.Equal(t, item{}, got)
	assert.Equal(t, 1, rec.count())
}

func TestMap_MismatchYieldsEmptyMap(t *testing.T) {
	got, ok := Map[item](nil, []byte(`{"code":0}`), Descriptor{Name: "map", Path: Depth(2), Leaf: LeafMap})
	assert.False(t, ok)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLenient_AcceptsBothHistoricalShapes(t *testing.T) {
	d := Descriptor{Name: "clusters.get", Path: Depth(1), Leaf: LeafObject, Lenient: true}
	want := item{ID: 7, Name: "prod"}

	for _, body := range []string{
		`{"code":0,"data":{"id":7,"name":"prod"}}`,
		`{"code":0,"data":{"data":{"id":7,"name":"prod"}}}`,
		`{"code":0,"data":{"data":{"id":7,"name":"prod"},"pagination":{"page":1}}}`,
	} {
		rec := &recorder{}
		got, ok := Object[item](rec, []byte(body), d)
		require.True(t, ok, body)
		assert.Equal(t, want, got, body)
		assert.Zero(t, rec.count())
	}
}

func TestLenient_ListUnwrapsCountedWrapper(t *testing.T) {
	d := Descriptor{Name: "statistics.top", Path: Depth(1), Leaf: LeafArray, Lenient: true}

	flat, ok := List[item](nil, []byte(`{"code":0,"data":[{"id":1}]}`), d)
	require.True(t, ok)
	assert.Len(t, flat, 1)

	nested, ok := List[item](nil, []byte(`{"code":0,"data":{"data":[{"id":1},{"id":2}],"count":2,"limit":50}}`), d)
	require.True(t, ok)
	assert.Len(t, nested, 2)
}

func TestLenient_KeepsObjectWhoseDataIsNotAWrapper(t *testing.T) {
	type page struct {
		Data  []item `json:"data"`
		Total int    `json:"total"`
	}
	d := Descriptor{Name: "history.query", Path: Depth(1), Leaf: LeafObject, Lenient: true}

	got, ok := Object[page](nil, []byte(`{"code":0,"data":{"data":[{"id":1}],"total":9}}`), d)
	require.True(t, ok)
	assert.Equal(t, 9, got.Total)
	assert.Len(t, got.Data, 1)
}

func TestAt_OptionalSibling(t *testing.T) {
	list := Descriptor{Name: "pods.problems", Path: []string{"data", "data"}, Leaf: LeafArray}
	pag := list.At("pods.problems.pagination", LeafObject, "pagination")
	assert.Equal(t, []string{"data", "pagination"}, pag.Path)
	assert.True(t, pag.Optional)

	type pagination struct {
		Page  int `json:"page"`
		Total int `json:"total"`
	}

	rec := &recorder{}
	got, ok := Object[pagination](rec, []byte(`{"code":0,"data":{"data":[],"pagination":{"page":2,"total":30}}}`), pag)
	require.True(t, ok)
	assert.Equal(t, pagination{Page: 2, Total: 30}, got)

	_, ok = Object[pagination](rec, []byte(`{"code":0,"data":{"data":[]}}`), pag)
	assert.False(t, ok)
	assert.Zero(t, rec.count(), "absent optional siblings are not mismatches")
}

func TestDescriptor_String(t *testing.T) {
	d := Descriptor{Name: "clusters.list", Path: Depth(2), Leaf: LeafArray}
	assert.Equal(t, "clusters.list(data.data:array)", d.String())
}
