package decoder

import (
	"net"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

func TestLeafDecoders(t *testing.T) {
	r := newTestRegistry(t)
	decode := func(value string, typ any) entity.Validated[any] {
		return r.DecodeNode("app.value", node.NewLeafNode(value), reflectTypeOf(typ))
	}

	t.Run("BoolDecoder_Decode", func(t *testing.T) {
		for value, want := range map[string]bool{"true": true, "YES": true, "on": true, "1": true, "false": false, "nope": false} {
			ret := decode(value, false)
			require.True(t, ret.HasResults(), value)
			assert.Equal(t, want, ret.Results(), value)
		}
	})

	t.Run("CharDecoder_Decode", func(t *testing.T) {
		ret := decode("中", Char(0))
		require.True(t, ret.HasResults())
		assert.Equal(t, Char('中'), ret.Results())

		ret = decode("ab", Char(0))
		assert.False(t, ret.HasResults())
		assert.Equal(t, "Expected a char on path: app.value, decoding node: LeafNode{value='ab'} received the wrong size",
			ret.Errors()[0].Description())
	})

	t.Run("StringDecoder_Decode", func(t *testing.T) {
		ret := decode("hello", "")
		require.True(t, ret.HasResults())
		assert.Equal(t, "hello", ret.Results())
	})

	t.Run("DurationDecoder_Decode", func(t *testing.T) {
		ret := decode("1500ms", time.Duration(0))
		require.True(t, ret.HasResults())
		assert.Equal(t, 1500*time.Millisecond, ret.Results())

		ret = decode("250", time.Duration(0))
		require.True(t, ret.HasResults())
		assert.Equal(t, 250*time.Millisecond, ret.Results())

		for _, overflow := range []string{"9223372036854775807", "-9223372036854775807", "9223372036855"} {
			ret = decode(overflow, time.Duration(0))
			assert.False(t, ret.HasResults(), overflow)
			assert.IsType(t, entity.DecodingNumberFormatError{}, ret.Errors()[0], overflow)
		}
		ret = decode("9223372036854", time.Duration(0))
		require.True(t, ret.HasResults())
		assert.Equal(t, time.Duration(9223372036854)*time.Millisecond, ret.Results())

		ret = decode("soon", time.Duration(0))
		assert.False(t, ret.HasResults())
		assert.Equal(t, "Unable to decode a Duration on path: app.value, from node: LeafNode{value='soon'}",
			ret.Errors()[0].Description())
	})

	t.Run("TimeDecoder_Decode", func(t *testing.T) {
		ret := decode("2024-01-02T03:04:05Z", time.Time{})
		require.True(t, ret.HasResults())
		assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(ret.Results().(time.Time)))

		ret = decode("2024-01-02", time.Time{})
		require.True(t, ret.HasResults())

		ret = NewTimeDecoder("02/01/2006").Decode("app.value", node.NewLeafNode("2024-01-02"), reflectTypeOf(time.Time{}), r)
		assert.False(t, ret.HasResults())
	})

	t.Run("PathDecoder_Decode", func(t *testing.T) {
		ret := decode("/var/log/../lib//app", FilePath(""))
		require.True(t, ret.HasResults())
		assert.Equal(t, FilePath("/var/lib/app"), ret.Results())
	})

	t.Run("URLDecoder_Decode", func(t *testing.T) {
		ret := decode("https://example.com:8443/api?x=1", &url.URL{})
		require.True(t, ret.HasResults())
		u := ret.Results().(*url.URL)
		assert.Equal(t, "example.com:8443", u.Host)

		ret = decode("https://example.com", url.URL{})
		require.True(t, ret.HasResults())
		assert.Equal(t, "https", ret.Results().(url.URL).Scheme)

		ret = decode("://bad", url.URL{})
		assert.False(t, ret.HasResults())
	})

	t.Run("TextUnmarshalerDecoder_Decode", func(t *testing.T) {
		ret := decode("10.0.0.1", net.IP{})
		require.True(t, ret.HasResults())
		assert.Equal(t, "10.0.0.1", ret.Results().(net.IP).String())

		ret = decode("not-an-ip", net.IP{})
		assert.False(t, ret.HasResults())
		assert.Equal(t, entity.LevelError, ret.Errors()[0].Level())
	})

	t.Run("LeafDecoder_NoValue", func(t *testing.T) {
		ret := r.DecodeNode("app.value", node.NewEmptyLeafNode(), TypeOf[string]())
		assert.False(t, ret.HasResults())
		assert.Equal(t, entity.LevelMissingValue, ret.Errors()[0].Level())
	})
}

type port int

func TestRegistry(t *testing.T) {
	t.Run("NewRegistry_Errors", func(t *testing.T) {
		_, err := NewRegistry(nil, nil, nil)
		assert.ErrorIs(t, err, ErrNoDecoders)
		_, err = NewRegistry(DefaultDecoders(), nil, nil)
		assert.ErrorIs(t, err, ErrNoNodeService)
		_, err = NewRegistry(DefaultDecoders(), node.NewManager(), nil)
		assert.ErrorIs(t, err, ErrNoLexer)
	})

	t.Run("Registry_DecodeNode_NoDecoder", func(t *testing.T) {
		r := newTestRegistry(t, StringDecoder{})
		ret := r.DecodeNode("db.port", node.NewLeafNode("1"), TypeOf[int]())
		assert.False(t, ret.HasResults())
		assert.Equal(t, "No decoders found for type: int", ret.Errors()[0].Description())
	})

	t.Run("Registry_DecodeNode_Priority", func(t *testing.T) {
		// Duration 与 Long 都匹配 int64 kind，Duration 优先级更高
		r := newTestRegistry(t)
		ret := r.DecodeNode("db.timeout", node.NewLeafNode("2s"), TypeOf[time.Duration]())
		require.True(t, ret.HasResults())
		assert.Equal(t, 2*time.Second, ret.Results())
	})

	t.Run("Registry_DecodeNode_NamedType", func(t *testing.T) {
		r := newTestRegistry(t)
		ret := r.DecodeNode("db.port", node.NewLeafNode("3306"), TypeOf[port]())
		require.True(t, ret.HasResults())
		assert.Equal(t, port(3306), ret.Results())
	})

	t.Run("Registry_AddDecoders", func(t *testing.T) {
		r := newTestRegistry(t, StringDecoder{})
		r.AddDecoders(IntegerDecoder{})
		assert.Len(t, r.GetDecoders(), 2)
		ret := r.DecodeNode("db.port", node.NewLeafNode("1"), TypeOf[int]())
		assert.True(t, ret.HasResults())
	})

	t.Run("Registry_GetNextNode", func(t *testing.T) {
		r := newTestRegistry(t)
		n := node.NewMapNode(map[string]node.ConfigNode{
			"hosts": node.NewArrayNode([]node.ConfigNode{node.NewLeafNode("a")}),
		})
		ret := r.GetNextNode("hosts[0]", "hosts[0]", n)
		require.True(t, ret.HasResults())
		v, _ := ret.Results().Value()
		assert.Equal(t, "a", v)

		ret = r.GetNextNode("port", "port", n)
		assert.False(t, ret.HasResults())
	})
}

func reflectTypeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}
