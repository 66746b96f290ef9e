package decoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

func TestFloatDecoder(t *testing.T) {
	d := FloatDecoder{}
	r := newTestRegistry(t, d)

	t.Run("FloatDecoder_Name", func(t *testing.T) {
		assert.Equal(t, "Float", d.Name())
		assert.Equal(t, Medium, d.Priority())
	})

	t.Run("FloatDecoder_Matches", func(t *testing.T) {
		assert.True(t, d.Matches(TypeOf[float32]()))
		assert.False(t, d.Matches(TypeOf[float64]()))
		assert.False(t, d.Matches(TypeOf[string]()))
		assert.False(t, d.Matches(TypeOf[int]()))
		assert.False(t, d.Matches(TypeOf[[]float32]()))
	})

	t.Run("FloatDecoder_Decode", func(t *testing.T) {
		ret := d.Decode("db.timeout", node.NewLeafNode("124.5"), TypeOf[float32](), r)
		require.True(t, ret.HasResults())
		assert.False(t, ret.HasErrors())
		assert.Equal(t, float32(124.5), ret.Results())
	})

	t.Run("FloatDecoder_Decode_Integer", func(t *testing.T) {
		ret := d.Decode("db.timeout", node.NewLeafNode("124"), TypeOf[float32](), r)
		require.True(t, ret.HasResults())
		assert.Equal(t, float32(124), ret.Results())
	})

	t.Run("FloatDecoder_Decode_NotANumber", func(t *testing.T) {
		ret := d.Decode("db.timeout", node.NewLeafNode("12s4"), TypeOf[float32](), r)
		assert.False(t, ret.HasResults())
		assert.Nil(t, ret.Results())
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, entity.LevelError, ret.Errors()[0].Level())
		assert.Equal(t, "Unable to parse a number on Path: db.timeout, from node: LeafNode{value='12s4'} attempting to decode Float",
			ret.Errors()[0].Description())
	})

	t.Run("FloatDecoder_Decode_Overflow", func(t *testing.T) {
		huge := "1" + strings.Repeat("0", 42)
		ret := d.Decode("db.timeout", node.NewLeafNode(huge), TypeOf[float32](), r)
		assert.False(t, ret.HasResults())
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, "Unable to decode a number on path: db.timeout, from node: LeafNode{value='"+huge+"'} attempting to decode Float",
			ret.Errors()[0].Description())
	})
}

func TestDoubleDecoder(t *testing.T) {
	d := DoubleDecoder{}
	r := newTestRegistry(t, d)

	assert.Equal(t, "Double", d.Name())
	ret := d.Decode("db.ratio", node.NewLeafNode("-0.25"), TypeOf[float64](), r)
	require.True(t, ret.HasResults())
	assert.Equal(t, -0.25, ret.Results())

	ret = d.Decode("db.ratio", node.NewLeafNode("1.2.3"), TypeOf[float64](), r)
	assert.False(t, ret.HasResults())
	assert.IsType(t, entity.DecodingNumberParsingError{}, ret.Errors()[0])
}

func TestIntegerDecoders(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("IntegerDecoder_Decode", func(t *testing.T) {
		ret := r.DecodeNode("db.port", node.NewLeafNode("+3306"), TypeOf[int]())
		require.True(t, ret.HasResults())
		assert.Equal(t, 3306, ret.Results())
	})

	t.Run("ShortDecoder_Decode_Overflow", func(t *testing.T) {
		ret := r.DecodeNode("db.port", node.NewLeafNode("70000"), TypeOf[int16]())
		assert.False(t, ret.HasResults())
		assert.IsType(t, entity.DecodingNumberFormatError{}, ret.Errors()[0])
	})

	t.Run("LongDecoder_Decode", func(t *testing.T) {
		ret := r.DecodeNode("db.id", node.NewLeafNode("-9223372036854775808"), TypeOf[int64]())
		require.True(t, ret.HasResults())
		assert.Equal(t, int64(-9223372036854775808), ret.Results())
	})

	t.Run("Uint64Decoder_Decode_Negative", func(t *testing.T) {
		ret := r.DecodeNode("db.id", node.NewLeafNode("-1"), TypeOf[uint64]())
		assert.False(t, ret.HasResults())
		assert.IsType(t, entity.DecodingNumberFormatError{}, ret.Errors()[0])
	})

	t.Run("IntegerDecoder_Decode_Real", func(t *testing.T) {
		ret := r.DecodeNode("db.port", node.NewLeafNode("1.5"), TypeOf[int]())
		assert.False(t, ret.HasResults())
		assert.Equal(t, "Unable to parse a number on Path: db.port, from node: LeafNode{value='1.5'} attempting to decode Integer",
			ret.Errors()[0].Description())
	})
}

func TestNumberPreCheck(t *testing.T) {
	for _, s := range []string{"1", "-1", "+10", "007"} {
		assert.True(t, isInteger(s), s)
	}
	for _, s := range []string{"", "-", "1.0", "1e3", " 1", "0x10"} {
		assert.False(t, isInteger(s), s)
	}
	for _, s := range []string{"1", "1.", ".5", "-0.5", "+3.25"} {
		assert.True(t, isReal(s), s)
	}
	for _, s := range []string{"", ".", "-.", "1.2.3", "12s4", "1e3"} {
		assert.False(t, isReal(s), s)
	}
}
