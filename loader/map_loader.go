package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/parser"
)

// MapLoader 加载已经是扁平 (path, value) 形式的配置，格式名为 "mapConfig"。
//
// payload 约定为 JSON object，例如 {"db.host":"localhost","db.hosts[0]":"a"}。
// MapSource 与 EnvSource 都生成这种格式。
type MapLoader struct{}

var _ Loader = MapLoader{}

func NewMapLoader() MapLoader {
	return MapLoader{}
}

func (MapLoader) Name() string { return "MapConfigLoader" }

func (MapLoader) Accepts(format string) bool { return format == FormatMap }

// Load 实现 Loader 接口。
func (MapLoader) Load(lex lexer.SentenceLexer, source string, data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyMap(), nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("mapConfig decode failed: %w", err)
	}
	return parser.Analyze(lex, source, parser.SortedPairs(flat)), nil
}

// EncodeMap 将扁平 map 编码为 MapLoader 可识别的 payload。
func EncodeMap(m map[string]string) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("mapConfig encode failed: %w", err)
	}
	return data, nil
}
