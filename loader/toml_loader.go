package loader

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/parser"
)

// TOMLLoader 实现对 TOML 配置的解析。
// go-toml v2 解析结果天然为 map[string]any；日期时间会被解析为 time.Time。
type TOMLLoader struct{}

var _ Loader = TOMLLoader{}

func NewTOMLLoader() TOMLLoader {
	return TOMLLoader{}
}

func (TOMLLoader) Name() string { return "TOMLLoader" }

func (TOMLLoader) Accepts(format string) bool { return format == FormatTOML }

// Load 实现 Loader 接口。
func (TOMLLoader) Load(_ lexer.SentenceLexer, _ string, data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(data) == 0 {
		return emptyMap(), nil
	}

	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("toml decode failed: %w", err)
	}
	return entity.Valid(parser.FromMap(out)), nil
}
