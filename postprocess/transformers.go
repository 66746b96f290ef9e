package postprocess

import (
	"os"
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

// LookupFunc 查找 key 对应的值，签名与 os.LookupEnv 一致。
type LookupFunc func(key string) (string, bool)

// EnvironmentVariablesTransformer 从环境变量读取值，名称 "env"。
type EnvironmentVariablesTransformer struct {
	lookup LookupFunc
}

var _ Transformer = (*EnvironmentVariablesTransformer)(nil)

// NewEnvironmentVariablesTransformer lookup 为 nil 时使用 os.LookupEnv。
func NewEnvironmentVariablesTransformer(lookup LookupFunc) *EnvironmentVariablesTransformer {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvironmentVariablesTransformer{lookup: lookup}
}

func (t *EnvironmentVariablesTransformer) Name() string { return "env" }

func (t *EnvironmentVariablesTransformer) Process(path, key string) entity.Validated[string] {
	if v, ok := t.lookup(key); ok {
		return entity.Valid(v)
	}
	return entity.Invalid[string](entity.NoEnvironmentVariableFoundError{Path: path, Key: key})
}

// PrefixedEnvTransformer 以名称为前缀读取环境变量：
//
//	${redis:PORT|6379} => REDIS_PORT
//	${gin:host}        => GIN_HOST
type PrefixedEnvTransformer struct {
	prefix string
	lookup LookupFunc
}

var _ Transformer = (*PrefixedEnvTransformer)(nil)

func NewPrefixedEnvTransformer(prefix string, lookup LookupFunc) *PrefixedEnvTransformer {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &PrefixedEnvTransformer{prefix: strings.TrimSpace(prefix), lookup: lookup}
}

func (t *PrefixedEnvTransformer) Name() string { return t.prefix }

func (t *PrefixedEnvTransformer) Process(path, key string) entity.Validated[string] {
	envName := strings.ToUpper(t.prefix) + "_" + strings.ToUpper(key)
	if v, ok := t.lookup(envName); ok {
		return entity.Valid(v)
	}
	return entity.Invalid[string](entity.NoEnvironmentVariableFoundError{Path: path, Key: envName})
}

// CustomMapTransformer 从调用方提供的 map 读取值，名称 "map"。
type CustomMapTransformer struct {
	values map[string]string
}

var _ Transformer = (*CustomMapTransformer)(nil)

func NewCustomMapTransformer(values map[string]string) *CustomMapTransformer {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &CustomMapTransformer{values: cp}
}

func (t *CustomMapTransformer) Name() string { return "map" }

func (t *CustomMapTransformer) Process(path, key string) entity.Validated[string] {
	if v, ok := t.values[key]; ok {
		return entity.Valid(v)
	}
	return entity.Invalid[string](entity.NoCustomPropertyFoundError{Path: path, Key: key})
}

// NodeTransformer 引用树中另一个叶子节点的值，名称 "node"。
// 引用的是后处理之前的值，因此被引用节点中的占位符不会被展开。
type NodeTransformer struct {
	nodes node.Service
	lexer lexer.SentenceLexer
}

var _ Transformer = (*NodeTransformer)(nil)

func NewNodeTransformer(nodes node.Service, lex lexer.SentenceLexer) *NodeTransformer {
	return &NodeTransformer{nodes: nodes, lexer: lex}
}

func (t *NodeTransformer) Name() string { return "node" }

func (t *NodeTransformer) Process(path, key string) entity.Validated[string] {
	notFound := entity.Invalid[string](entity.NoNodeFoundForTransformError{Path: path, Key: key})

	tokens := t.lexer.Scan(key)
	if !tokens.HasResults() {
		return notFound
	}
	ret := t.nodes.NavigateToNode(key, tokens.Results())
	if !ret.HasResults() {
		return notFound
	}
	v, ok := ret.Results().Value()
	if !ok {
		return notFound
	}
	return entity.Valid(v)
}
