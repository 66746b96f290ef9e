package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

func TestSliceDecoder(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("SliceDecoder_Decode", func(t *testing.T) {
		ret := r.DecodeNode("db.ports", node.NewArrayNode(leaves("1", "2", "3")), TypeOf[[]int]())
		require.True(t, ret.HasResults())
		assert.Equal(t, []int{1, 2, 3}, ret.Results())
	})

	t.Run("SliceDecoder_Decode_Holes", func(t *testing.T) {
		n := node.NewArrayNode([]node.ConfigNode{node.NewLeafNode("a"), nil, node.NewLeafNode("c")})
		ret := r.DecodeNode("db.hosts", n, TypeOf[[]string]())
		require.True(t, ret.HasResults())
		assert.Equal(t, []string{"a", "c"}, ret.Results())
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, "Missing array index: 1 for path: db.hosts", ret.Errors()[0].Description())
	})

	t.Run("SliceDecoder_Decode_BadElement", func(t *testing.T) {
		ret := r.DecodeNode("db.ports", node.NewArrayNode(leaves("1", "x")), TypeOf[[]int]())
		require.True(t, ret.HasResults())
		assert.Equal(t, []int{1}, ret.Results())
		assert.Equal(t, "Unable to parse a number on Path: db.ports[1], from node: LeafNode{value='x'} attempting to decode Integer",
			ret.Errors()[0].Description())
	})

	t.Run("SliceDecoder_Decode_Map", func(t *testing.T) {
		ret := r.DecodeNode("db.ports", node.NewMapNode(map[string]node.ConfigNode{}), TypeOf[[]int]())
		assert.False(t, ret.HasResults())
		assert.IsType(t, entity.DecodingExpectedArrayNodeTypeError{}, ret.Errors()[0])
	})

	t.Run("SliceDecoder_Decode_Nested", func(t *testing.T) {
		n := node.NewArrayNode([]node.ConfigNode{
			node.NewArrayNode(leaves("a", "b")),
			node.NewArrayNode(leaves("c")),
		})
		ret := r.DecodeNode("matrix", n, TypeOf[[][]string]())
		require.True(t, ret.HasResults())
		assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, ret.Results())
	})
}

func TestArrayDecoder(t *testing.T) {
	r := newTestRegistry(t)

	ret := r.DecodeNode("rgb", node.NewArrayNode(leaves("1", "2", "3")), TypeOf[[3]uint]())
	require.True(t, ret.HasResults())
	assert.False(t, ret.HasErrors())
	assert.Equal(t, [3]uint{1, 2, 3}, ret.Results())

	ret = r.DecodeNode("rgb", node.NewArrayNode(leaves("1", "2", "3", "4")), TypeOf[[3]uint]())
	require.True(t, ret.HasResults())
	assert.Equal(t, [3]uint{1, 2, 3}, ret.Results())
	require.Len(t, ret.Errors(), 1)
	assert.Equal(t, entity.LevelWarn, ret.Errors()[0].Level())
	assert.Equal(t, "Expected an array of size: 3 on path: rgb, received size: 4", ret.Errors()[0].Description())
}

func TestSetDecoder(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("SetDecoder_Decode", func(t *testing.T) {
		ret := r.DecodeNode("tags", node.NewArrayNode(leaves("a", "b", "a")), TypeOf[map[string]struct{}]())
		require.True(t, ret.HasResults())
		assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, ret.Results())
	})

	t.Run("SetDecoder_Decode_Bool", func(t *testing.T) {
		ret := r.DecodeNode("ports", node.NewLeafNode("80,443"), TypeOf[map[int]bool]())
		require.True(t, ret.HasResults())
		assert.Equal(t, map[int]bool{80: true, 443: true}, ret.Results())
	})

	t.Run("SetDecoder_Decode_BoolMap", func(t *testing.T) {
		n := node.NewMapNode(map[string]node.ConfigNode{"a": node.NewLeafNode("true"), "b": node.NewLeafNode("false")})
		ret := r.DecodeNode("flags", n, TypeOf[map[string]bool]())
		require.True(t, ret.HasResults())
		assert.Equal(t, map[string]bool{"a": true, "b": false}, ret.Results())
	})
}

func TestMapDecoder(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("MapDecoder_Decode", func(t *testing.T) {
		n := node.NewMapNode(map[string]node.ConfigNode{
			"web": node.NewLeafNode("80"),
			"api": node.NewLeafNode("8080"),
		})
		ret := r.DecodeNode("ports", n, TypeOf[map[string]int]())
		require.True(t, ret.HasResults())
		assert.Equal(t, map[string]int{"web": 80, "api": 8080}, ret.Results())
	})

	t.Run("MapDecoder_Decode_IntKeys", func(t *testing.T) {
		n := node.NewMapNode(map[string]node.ConfigNode{"1": node.NewLeafNode("a"), "x": node.NewLeafNode("b")})
		ret := r.DecodeNode("names", n, TypeOf[map[int]string]())
		require.True(t, ret.HasResults())
		assert.Equal(t, map[int]string{1: "a"}, ret.Results())
		assert.True(t, ret.HasErrorsAtLevel(entity.LevelError))
	})

	t.Run("MapDecoder_Decode_NotMap", func(t *testing.T) {
		ret := r.DecodeNode("ports", node.NewArrayNode(leaves("1")), TypeOf[map[string]int]())
		assert.False(t, ret.HasResults())
		assert.Equal(t, "Expected a map on path: ports, received node type, received: ArrayNode{values=[LeafNode{value='1'}]} attempting to decode Map",
			ret.Errors()[0].Description())
	})
}

func TestInterfaceDecoder(t *testing.T) {
	r := newTestRegistry(t)
	n := node.NewMapNode(map[string]node.ConfigNode{
		"name":  node.NewLeafNode("demo"),
		"hosts": node.NewArrayNode(leaves("a", "b")),
		"empty": node.NewEmptyLeafNode(),
	})
	ret := r.DecodeNode("app", n, TypeOf[any]())
	require.True(t, ret.HasResults())
	assert.Equal(t, map[string]any{
		"name":  "demo",
		"hosts": []any{"a", "b"},
		"empty": nil,
	}, ret.Results())
}
