package loader

import (
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

// JSONCLoader 解析带注释和尾逗号的 JSON（tsconfig、VS Code settings 风格）。
type JSONCLoader struct{}

var _ Loader = JSONCLoader{}

func NewJSONCLoader() JSONCLoader {
	return JSONCLoader{}
}

func (JSONCLoader) Name() string { return "JSONCLoader" }

func (JSONCLoader) Accepts(format string) bool { return format == FormatJSONC }

// Load 先用 jsonc.ToJSON 去掉注释，再按 JSON 解析。
func (JSONCLoader) Load(_ lexer.SentenceLexer, _ string, data []byte) (entity.Validated[node.ConfigNode], error) {
	ret, err := loadJSON(jsonc.ToJSON(data))
	if err != nil {
		return ret, fmt.Errorf("jsonc: %w", err)
	}
	return ret, nil
}
