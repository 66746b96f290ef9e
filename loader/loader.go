// Package loader 将不同格式的配置字节解析为 node 树。
//
// 每个 Loader 负责一种或多种格式（json、yaml、toml...），
// 由 Gestalt 根据 source 的 Metadata.Format 选择。
package loader

import (
	"errors"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

// ErrEmptyPayload 表示 payload 中没有任何配置，调用方可以选择忽略。
var ErrEmptyPayload = errors.New("empty payload")

// Loader 将原始字节转换为 node 树。
type Loader interface {
	Name() string
	Accepts(format string) bool
	// Load 解析 data。source 是 source 的逻辑名称，仅用于错误信息。
	// 语法错误以 error 返回；结构性问题以 ValidationError 返回。
	Load(lex lexer.SentenceLexer, source string, data []byte) (entity.Validated[node.ConfigNode], error)
}

// Defaults 返回所有内置 Loader。
func Defaults() []Loader {
	return []Loader{
		NewJSONLoader(),
		NewJSONCLoader(),
		NewYAMLLoader(),
		NewTOMLLoader(),
		NewPropertiesLoader(),
		NewDotEnvLoader(),
		NewMapLoader(),
	}
}

// Find 返回第一个接受 format 的 Loader。
func Find(loaders []Loader, format string) (Loader, bool) {
	format = NormalizeFormat(format)
	for _, l := range loaders {
		if l.Accepts(format) {
			return l, true
		}
	}
	return nil, false
}

func emptyMap() entity.Validated[node.ConfigNode] {
	return entity.Valid[node.ConfigNode](node.NewMapNode(map[string]node.ConfigNode{}))
}
