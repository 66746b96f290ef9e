package loader

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/parser"
)

// YAMLLoader 支持解析 .yaml 和 .yml 文件。
// 嵌套 map 可能解码为 map[any]any，parser.FromValue 会统一转为字符串 key。
type YAMLLoader struct{}

var _ Loader = YAMLLoader{}

func NewYAMLLoader() YAMLLoader {
	return YAMLLoader{}
}

func (YAMLLoader) Name() string { return "YAMLLoader" }

func (YAMLLoader) Accepts(format string) bool { return format == FormatYAML }

// Load 实现 Loader 接口。
func (YAMLLoader) Load(_ lexer.SentenceLexer, _ string, data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyMap(), nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("yaml decode failed: %w", err)
	}
	if raw == nil {
		return emptyMap(), nil
	}

	switch raw.(type) {
	case map[string]any, map[any]any:
		return entity.Valid(parser.FromValue(raw)), nil
	default:
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("yaml decode failed: top level must be a mapping, got %T", raw)
	}
}
