package gestalt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("FileSource_Load_Success", func(t *testing.T) {
		source := NewFileSource("testdata/conf/abc.yaml")
		b, m, err := source.Load(ctx)
		require.NoError(t, err)
		assert.Contains(t, string(b), "host: localhost")
		assert.Equal(t, "yaml", m.Format)
		assert.Equal(t, "testdata/conf/abc.yaml", m.Source)
		assert.NotEmpty(t, source.ID())
	})

	t.Run("FileSource_Load_DetectFormat", func(t *testing.T) {
		for path, want := range map[string]string{
			"testdata/conf/abc.json":       "json",
			"testdata/conf/abc.jsonc":      "jsonc",
			"testdata/conf/abc.toml":       "toml",
			"testdata/conf/abc.properties": "properties",
			"testdata/conf/abc.env":        "env",
		} {
			_, m, err := NewFileSource(path).Load(ctx)
			require.NoError(t, err, path)
			assert.Equal(t, want, m.Format, path)
		}
	})

	t.Run("FileSource_Load_FS", func(t *testing.T) {
		fsys := fstest.MapFS{
			"app": &fstest.MapFile{Data: []byte("port: 8080")},
		}
		source := NewFileSource("app",
			WithFileSourceFS(fsys),
			WithFileSourceFormat("yml"),
			WithFileSourceName("embedded"),
		)
		b, m, err := source.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "port: 8080", string(b))
		assert.Equal(t, Metadata{Format: "yaml", Source: "embedded"}, m)
	})

	t.Run("FileSource_Load_Missing", func(t *testing.T) {
		_, _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Load(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("FileSource_Load_UnknownExtension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.conf")
		require.NoError(t, os.WriteFile(path, []byte("a=b"), 0o600))
		_, _, err := NewFileSource(path).Load(ctx)
		assert.ErrorContains(t, err, "unsupported file extension")
	})

	t.Run("FileSource_Load_EmptyPath", func(t *testing.T) {
		_, _, err := NewFileSource("  ").Load(ctx)
		assert.EqualError(t, err, "FileSource: path is empty")
	})
}
