package gestalt

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/loader"
)

// EnvSource 是一个基于环境变量的配置源实现，满足两个典型诉求：
//
//  1. 把环境变量当作一份“覆盖层”配置（覆盖文件中的配置项）
//  2. 通过命名约定，把扁平的环境变量映射到层级结构中（如 DB__HOST => db.host）
//
// 值保持字符串原样，类型转换交给 decoder 完成。
// 输出为 mapConfig 格式的扁平键值对，由 MapLoader 编译为节点树。
type EnvSource struct {
	id string

	// prefix 用于筛选环境变量，为空表示不过滤。
	prefix string

	// stripPrefix 表示在生成配置 key 时是否移除 prefix。
	//   MYAPP_DB__HOST, prefix = "MYAPP_"
	//   stripPrefix = true  => db.host
	//   stripPrefix = false => myapp_db.host
	stripPrefix bool

	// separator 用于把 key 拆成层级路径，默认 "__"，单个下划线保留在 key 内。
	separator string

	// delimiter 生成路径时使用的分隔符，需要与 lexer 保持一致。
	delimiter string

	name string

	// environ 用于获取环境变量列表，默认是 os.Environ。
	environ func() []string

	// lexer 过滤无法解析为路径的变量名，例如导出的 bash 函数 BASH_FUNC_x%%
	lexer lexer.SentenceLexer
}

var _ Source = (*EnvSource)(nil)

// EnvSourceOption 是 EnvSource 的配置 Option。
type EnvSourceOption func(*EnvSource)

// WithEnvSourcePrefix 设置环境变量前缀。
func WithEnvSourcePrefix(prefix string) EnvSourceOption {
	return func(es *EnvSource) {
		es.prefix = prefix
	}
}

// WithEnvSourceStripPrefix 控制是否在构建配置 key 时移除前缀。
func WithEnvSourceStripPrefix(strip bool) EnvSourceOption {
	return func(es *EnvSource) {
		es.stripPrefix = strip
	}
}

// WithEnvSourceSeparator 设置层级分隔符，默认 "__"。
//
//	MYAPP_DB__HOST   => db.host
//	MYAPP_HTTP__PORT => http.port
func WithEnvSourceSeparator(sep string) EnvSourceOption {
	return func(es *EnvSource) {
		if strings.TrimSpace(sep) == "" {
			return
		}
		es.separator = sep
	}
}

// WithEnvSourceDelimiter 设置生成路径时的分隔符，使用自定义 lexer 时需要同步修改。
func WithEnvSourceDelimiter(delimiter string) EnvSourceOption {
	return func(es *EnvSource) {
		if delimiter != "" {
			es.delimiter = delimiter
		}
	}
}

// WithEnvSourceName 设置该 Source 的逻辑名称，用于 Metadata.Source。
func WithEnvSourceName(name string) EnvSourceOption {
	return func(es *EnvSource) {
		if strings.TrimSpace(name) == "" {
			return
		}
		es.name = name
	}
}

// WithEnvSourceEnviron 注入一个自定义的环境变量获取函数，主要用于单元测试。
func WithEnvSourceEnviron(fn func() []string) EnvSourceOption {
	return func(es *EnvSource) {
		if fn != nil {
			es.environ = fn
		}
	}
}

// NewEnvSource 创建一个基于环境变量的配置源。
//
//	src := NewEnvSource(
//	    WithEnvSourcePrefix("MYAPP_"),
//	    WithEnvSourceStripPrefix(true),
//	)
func NewEnvSource(opts ...EnvSourceOption) *EnvSource {
	es := &EnvSource{
		id:        newSourceID(),
		separator: "__",
		delimiter: ".",
		name:      "env",
		environ:   os.Environ,
	}
	for _, opt := range opts {
		opt(es)
	}
	es.lexer = lexer.NewPathLexer(lexer.WithDelimiter(es.delimiter))
	return es
}

func (es *EnvSource) ID() string { return es.id }

// Load 实现 Source 接口。
func (es *EnvSource) Load(_ context.Context) ([]byte, Metadata, error) {
	flat := make(map[string]string)

	for _, kv := range es.environ() {
		key, val, ok := splitEnvPair(kv)
		if !ok {
			continue
		}
		if es.prefix != "" && !strings.HasPrefix(key, es.prefix) {
			continue
		}
		if es.prefix != "" && es.stripPrefix {
			key = strings.TrimPrefix(key, es.prefix)
		}

		path := loader.EnvKeyToPath(key, es.separator, es.delimiter)
		if path == "" || !es.lexer.Scan(path).HasResults() {
			continue
		}
		flat[path] = val
	}

	data, err := loader.EncodeMap(flat)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("EnvSource: %w", err)
	}
	return data, Metadata{Format: loader.FormatMap, Source: es.name}, nil
}

// splitEnvPair 将 "KEY=VALUE" 拆为 key 和 value，VALUE 可以包含 '='。
func splitEnvPair(kv string) (key, value string, ok bool) {
	idx := strings.Index(kv, "=")
	if idx <= 0 {
		return "", "", false
	}
	return kv[:idx], kv[idx+1:], true
}
