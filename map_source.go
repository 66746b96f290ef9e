package gestalt

import (
	"context"
	"fmt"
	"maps"

	"github.com/lifei6671/go-gestalt/loader"
)

// MapSource 以内存中的扁平键值对作为配置源，key 使用路径语法：
//
//	NewMapSource(map[string]string{
//	    "db.host":     "localhost",
//	    "db.hosts[0]": "a",
//	})
type MapSource struct {
	id     string
	name   string
	values map[string]string
}

var _ Source = (*MapSource)(nil)

// NewMapSource 复制一份 values，之后对原 map 的修改不会影响该 Source。
func NewMapSource(values map[string]string) *MapSource {
	return &MapSource{
		id:     newSourceID(),
		name:   "mapConfig",
		values: maps.Clone(values),
	}
}

func (m *MapSource) ID() string { return m.id }

func (m *MapSource) Load(_ context.Context) ([]byte, Metadata, error) {
	data, err := loader.EncodeMap(m.values)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("MapSource: %w", err)
	}
	return data, Metadata{Format: loader.FormatMap, Source: m.name}, nil
}
