package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

func fakeEnv(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func process(t *testing.T, p PostProcessor, value string) entity.Validated[node.ConfigNode] {
	t.Helper()
	ret := p.Process("db.host", node.NewLeafNode(value))
	require.True(t, ret.HasResults())
	return ret
}

func leafValue(n node.ConfigNode) string {
	v, _ := n.Value()
	return v
}

func TestTransformerPostProcessor_Process(t *testing.T) {
	env := fakeEnv(map[string]string{"DB_HOST": "10.0.0.1", "REDIS_PORT": "6380"})
	p := NewTransformerPostProcessor(
		NewEnvironmentVariablesTransformer(env),
		NewCustomMapTransformer(map[string]string{"region": "cn-north"}),
		NewPrefixedEnvTransformer("redis", env),
	)

	t.Run("TransformerPostProcessor_Process_Named", func(t *testing.T) {
		ret := process(t, p, "${env:DB_HOST}")
		assert.False(t, ret.HasErrors())
		assert.Equal(t, "10.0.0.1", leafValue(ret.Results()))
	})

	t.Run("TransformerPostProcessor_Process_Embedded", func(t *testing.T) {
		ret := process(t, p, "tcp://${env:DB_HOST}:${redis:port}/${map:region}")
		assert.False(t, ret.HasErrors())
		assert.Equal(t, "tcp://10.0.0.1:6380/cn-north", leafValue(ret.Results()))
	})

	t.Run("TransformerPostProcessor_Process_Unnamed", func(t *testing.T) {
		ret := process(t, p, "${region}")
		assert.Equal(t, "cn-north", leafValue(ret.Results()))
	})

	t.Run("TransformerPostProcessor_Process_Default", func(t *testing.T) {
		ret := process(t, p, "0.0.0.0:${env:PORT|8080}")
		assert.False(t, ret.HasErrors())
		assert.Equal(t, "0.0.0.0:8080", leafValue(ret.Results()))
	})

	t.Run("TransformerPostProcessor_Process_Missing", func(t *testing.T) {
		ret := process(t, p, "${env:PORT}")
		assert.Equal(t, "${env:PORT}", leafValue(ret.Results()))
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, entity.LevelWarn, ret.Errors()[0].Level())
		assert.Equal(t, "Environment Variables not found for: PORT, on path: db.host during post process",
			ret.Errors()[0].Description())
	})

	t.Run("TransformerPostProcessor_Process_NoTransformerHasKey", func(t *testing.T) {
		ret := process(t, p, "${nothing}")
		require.Len(t, ret.Errors(), 1)
		assert.IsType(t, entity.NoKeyFoundForTransformerError{}, ret.Errors()[0])
	})

	t.Run("TransformerPostProcessor_Process_Unknown", func(t *testing.T) {
		ret := process(t, p, "${vault:secret}")
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, "Unable to find matching transform for vault: on path: db.host during post process",
			ret.Errors()[0].Description())
	})

	t.Run("TransformerPostProcessor_Process_NotClosed", func(t *testing.T) {
		ret := process(t, p, "${env:DB_HOST}-${env:PORT")
		assert.Equal(t, "10.0.0.1-${env:PORT", leafValue(ret.Results()))
		require.Len(t, ret.Errors(), 1)
		assert.Equal(t, entity.LevelError, ret.Errors()[0].Level())
	})

	t.Run("TransformerPostProcessor_Process_NonLeaf", func(t *testing.T) {
		n := node.NewMapNode(map[string]node.ConfigNode{})
		ret := p.Process("db", n)
		assert.Same(t, n, ret.Results())
	})
}

func TestNodeTransformer(t *testing.T) {
	m := node.NewManager()
	_, err := m.AddNode(node.Container{ID: "a", Node: node.NewMapNode(map[string]node.ConfigNode{
		"app": node.NewMapNode(map[string]node.ConfigNode{
			"name": node.NewLeafNode("demo"),
			"url":  node.NewLeafNode("http://${node:app.name}.local"),
		}),
	})})
	require.NoError(t, err)

	p := NewTransformerPostProcessor(NewNodeTransformer(m, lexer.NewPathLexer()))
	ret := m.PostProcess(AsProcessors([]PostProcessor{p}))
	require.True(t, ret.HasResults())
	assert.False(t, ret.HasErrors())

	root, _ := m.Root()
	app, _ := root.Key("app")
	url, _ := app.Key("url")
	assert.Equal(t, "http://demo.local", leafValue(url))

	missing := NewNodeTransformer(m, lexer.NewPathLexer()).Process("app.url", "app.port")
	assert.False(t, missing.HasResults())
	assert.Equal(t, "Node not found for: app.port, on path: app.url during post process", missing.Errors()[0].Description())
}
