package loader

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("../testdata/conf/" + name)
	require.NoError(t, err)
	return b
}

// leaf 按路径取叶子节点的值
func leaf(t *testing.T, n node.ConfigNode, path string) string {
	t.Helper()
	tokens := lexer.NewPathLexer().Scan(path)
	require.True(t, tokens.HasResults(), path)

	cur := n
	for _, token := range tokens.Results() {
		var ok bool
		switch tk := token.(type) {
		case lexer.ObjectToken:
			cur, ok = cur.Key(tk.Name)
		case lexer.ArrayToken:
			cur, ok = cur.Index(tk.Index)
		}
		require.True(t, ok, path)
	}
	v, ok := cur.Value()
	require.True(t, ok, path)
	return v
}

func TestJSONLoader_Load(t *testing.T) {
	lex := lexer.NewPathLexer()

	t.Run("JSONLoader_Load", func(t *testing.T) {
		ret, err := JSONLoader{}.Load(lex, "abc.json", readFixture(t, "abc.json"))
		require.NoError(t, err)
		require.True(t, ret.HasResults())
		n := ret.Results()
		assert.Equal(t, "hello", leaf(t, n, "A"))
		assert.Equal(t, "3306", leaf(t, n, "database.port"))
		assert.Equal(t, "12345678901234567890", leaf(t, n, "database.id"))
		assert.Equal(t, "b", leaf(t, n, "hosts[1]"))
		assert.Equal(t, "true", leaf(t, n, "enabled"))
		assert.Equal(t, "0.75", leaf(t, n, "ratio"))

		optional, ok := n.Key("optional")
		require.True(t, ok)
		_, ok = optional.Value()
		assert.False(t, ok)
	})

	t.Run("JSONLoader_Load_Exponent", func(t *testing.T) {
		ret, err := JSONLoader{}.Load(lex, "inline", []byte(`{"rate": 1e-3, "big": 2.5E10, "neg": -1.5e+2, "id": 9007199254740993}`))
		require.NoError(t, err)
		n := ret.Results()
		assert.Equal(t, "0.001", leaf(t, n, "rate"))
		assert.Equal(t, "25000000000", leaf(t, n, "big"))
		assert.Equal(t, "-150", leaf(t, n, "neg"))
		assert.Equal(t, "9007199254740993", leaf(t, n, "id"))
	})

	t.Run("JSONLoader_Load_Empty", func(t *testing.T) {
		ret, err := JSONLoader{}.Load(lex, "empty", []byte{})
		assert.NoError(t, err)
		assert.Equal(t, 0, ret.Results().Size())
	})

	t.Run("JSONLoader_Load_Error", func(t *testing.T) {
		_, err := JSONLoader{}.Load(lex, "abc.toml", readFixture(t, "abc.toml"))
		assert.Error(t, err)
	})
}

func TestJSONCLoader_Load(t *testing.T) {
	ret, err := JSONCLoader{}.Load(lexer.NewPathLexer(), "abc.jsonc", readFixture(t, "abc.jsonc"))
	require.NoError(t, err)
	n := ret.Results()
	assert.Equal(t, "root", leaf(t, n, "database.user"))
	assert.Equal(t, "c", leaf(t, n, "hosts[2]"))
}

func TestYAMLLoader_Load(t *testing.T) {
	lex := lexer.NewPathLexer()

	t.Run("YAMLLoader_Load_Success", func(t *testing.T) {
		ret, err := YAMLLoader{}.Load(lex, "abc.yaml", readFixture(t, "abc.yaml"))
		require.NoError(t, err)
		n := ret.Results()
		assert.Equal(t, "hello", leaf(t, n, "A"))
		assert.Equal(t, "1500ms", leaf(t, n, "database.timeout"))
		assert.Equal(t, "api", leaf(t, n, "servers[1].name"))
		assert.Equal(t, "8080", leaf(t, n, "servers[1].port"))
	})

	t.Run("YAMLLoader_Load_Failure", func(t *testing.T) {
		_, err := YAMLLoader{}.Load(lex, "bad", []byte("a: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("YAMLLoader_Load_NotMapping", func(t *testing.T) {
		_, err := YAMLLoader{}.Load(lex, "bad", []byte("- a\n- b\n"))
		assert.Error(t, err)
	})
}

func TestTOMLLoader_Load(t *testing.T) {
	lex := lexer.NewPathLexer()

	t.Run("TOMLLoader_Load", func(t *testing.T) {
		ret, err := TOMLLoader{}.Load(lex, "abc.toml", readFixture(t, "abc.toml"))
		require.NoError(t, err)
		n := ret.Results()
		assert.Equal(t, "hello", leaf(t, n, "A"))
		assert.Equal(t, "3306", leaf(t, n, "database.port"))
		assert.Equal(t, "2024-01-02T03:04:05Z", leaf(t, n, "database.created"))
	})

	t.Run("TOMLLoader_Load_Error", func(t *testing.T) {
		_, err := TOMLLoader{}.Load(lex, "abc.json", readFixture(t, "abc.json"))
		assert.Error(t, err)
	})
}

func TestPropertiesLoader_Load(t *testing.T) {
	ret, err := PropertiesLoader{}.Load(lexer.NewPathLexer(), "abc.properties", readFixture(t, "abc.properties"))
	require.NoError(t, err)
	assert.False(t, ret.HasErrors())

	n := ret.Results()
	assert.Equal(t, "hello", leaf(t, n, "A"))
	assert.Equal(t, "root", leaf(t, n, "database.user"))
	assert.Equal(t, "3306", leaf(t, n, "database.port"))
	assert.Equal(t, "c", leaf(t, n, "hosts[2]"))
	assert.Equal(t, "first second", leaf(t, n, "message"))
}

func TestParseProperties(t *testing.T) {
	t.Run("ParseProperties_Escapes", func(t *testing.T) {
		m, err := ParseProperties("a\\:b = c\nname = \\u4e2d\\t!\npath = C:\\\\tmp\\\\\n")
		require.NoError(t, err)
		assert.Equal(t, "c", m["a:b"])
		assert.Equal(t, "中\t!", m["name"])
		assert.Equal(t, "C:\\tmp\\", m["path"])
	})

	t.Run("ParseProperties_Comments", func(t *testing.T) {
		m, err := ParseProperties("# a\n! b\n\nkey\n")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"key": ""}, m)
	})

	t.Run("ParseProperties_BadUnicode", func(t *testing.T) {
		_, err := ParseProperties("a = \\u12")
		assert.Error(t, err)
	})
}

func TestDotEnvLoader_Load(t *testing.T) {
	ret, err := NewDotEnvLoader().Load(lexer.NewPathLexer(), "abc.env", readFixture(t, "abc.env"))
	require.NoError(t, err)
	n := ret.Results()
	assert.Equal(t, "hello", leaf(t, n, "a"))
	assert.Equal(t, "root", leaf(t, n, "database.user"))
	assert.Equal(t, "debug", leaf(t, n, "log_level"))
}

func TestEnvKeyToPath(t *testing.T) {
	assert.Equal(t, "db.host", EnvKeyToPath("DB__HOST", "__", "."))
	assert.Equal(t, "db.host", EnvKeyToPath("DB____HOST", "__", "."))
	assert.Equal(t, "db_primary.host", EnvKeyToPath("DB_PRIMARY__HOST", "", ""))
	assert.Equal(t, "", EnvKeyToPath("__", "__", "."))
}

func TestMapLoader_Load(t *testing.T) {
	data, err := EncodeMap(map[string]string{"db.host": "localhost", "db.hosts[0]": "a"})
	require.NoError(t, err)

	ret, err := MapLoader{}.Load(lexer.NewPathLexer(), "mapConfig", data)
	require.NoError(t, err)
	assert.Equal(t, "localhost", leaf(t, ret.Results(), "db.host"))
	assert.Equal(t, "a", leaf(t, ret.Results(), "db.hosts[0]"))

	_, err = MapLoader{}.Load(lexer.NewPathLexer(), "mapConfig", []byte("[1]"))
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	loaders := Defaults()
	for format, want := range map[string]string{
		"json":       "JSONLoader",
		"YML":        "YAMLLoader",
		"toml":       "TOMLLoader",
		"properties": "PropertiesLoader",
		"dotenv":     "DotEnvLoader",
		"mapConfig":  "MapConfigLoader",
		"jsonc":      "JSONCLoader",
	} {
		l, ok := Find(loaders, format)
		require.True(t, ok, format)
		assert.Equal(t, want, l.Name())
	}
	_, ok := Find(loaders, "xml")
	assert.False(t, ok)
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"conf/app.yml":   FormatYAML,
		"conf/app.JSON":  FormatJSON,
		".env":           FormatDotEnv,
		"app.properties": FormatProperties,
		"app.jsonc":      FormatJSONC,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFromPath("conf/app")
	assert.Error(t, err)
	_, err = FormatFromPath("conf/app.xml")
	assert.Error(t, err)

	f, ok := FormatFromContentType("application/json; charset=utf-8")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, f)
}
