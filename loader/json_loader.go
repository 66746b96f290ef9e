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

// JSONLoader 实现 JSON 配置解析。
// 数字使用 json.Number 保留原始文本，避免大整数经过 float64 丢失精度。
type JSONLoader struct{}

var _ Loader = JSONLoader{}

func NewJSONLoader() JSONLoader {
	return JSONLoader{}
}

func (JSONLoader) Name() string { return "JSONLoader" }

func (JSONLoader) Accepts(format string) bool { return format == FormatJSON }

// Load 实现 Loader 接口。
func (JSONLoader) Load(_ lexer.SentenceLexer, _ string, data []byte) (entity.Validated[node.ConfigNode], error) {
	return loadJSON(data)
}

func loadJSON(data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyMap(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("json decode failed: %w", err)
	}
	return entity.Valid(parser.FromValue(out)), nil
}
