package loader

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/parser"
)

// DotEnvLoader 解析 .env 文件。
//
// key 按 separator（默认 "__"）拆分为层级，并转为小写：
//
//	DB__HOST=127.0.0.1   => db.host
//	HTTP__PORT=8080      => http.port
//	LOG_LEVEL=debug      => log_level
type DotEnvLoader struct {
	separator string
}

var _ Loader = DotEnvLoader{}

func NewDotEnvLoader() DotEnvLoader {
	return DotEnvLoader{separator: "__"}
}

// WithSeparator 返回一个使用自定义层级分隔符的副本。
func (l DotEnvLoader) WithSeparator(sep string) DotEnvLoader {
	if strings.TrimSpace(sep) != "" {
		l.separator = sep
	}
	return l
}

func (DotEnvLoader) Name() string { return "DotEnvLoader" }

func (DotEnvLoader) Accepts(format string) bool { return format == FormatDotEnv }

// Load 实现 Loader 接口。
func (l DotEnvLoader) Load(lex lexer.SentenceLexer, source string, data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(data) == 0 {
		return emptyMap(), nil
	}

	env, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("dotenv decode failed: %w", err)
	}

	flat := make(map[string]string, len(env))
	for k, v := range env {
		if path := EnvKeyToPath(k, l.separator, lex.Delimiter()); path != "" {
			flat[path] = v
		}
	}
	return parser.Analyze(lex, source, parser.SortedPairs(flat)), nil
}

// EnvKeyToPath 将环境变量风格的 key 转为配置路径。
// 空段会被丢弃，例如 "DB____HOST" 与 "DB__HOST" 等价。
func EnvKeyToPath(key, separator, delimiter string) string {
	if separator == "" {
		separator = "__"
	}
	if delimiter == "" {
		delimiter = "."
	}

	parts := strings.Split(strings.TrimSpace(key), separator)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			segments = append(segments, p)
		}
	}
	return strings.Join(segments, delimiter)
}
