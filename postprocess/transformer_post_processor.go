package postprocess

import (
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// TransformerPostProcessor 替换叶子节点中的占位符。
//
// 占位符格式：
//
//	${<transformer>:<key>[|default]}
//	${<key>[|default]}              依次尝试所有 transformer
//
// 示例：
//
//	"${env:DB_HOST}"
//	"0.0.0.0:${env:PORT|8080}"
//	"${map:region}-${node:app.name}"
//
// 找不到值且没有默认值时，占位符原样保留并返回 WARN。
type TransformerPostProcessor struct {
	transformers []Transformer
	byName       map[string]Transformer
}

var _ PostProcessor = (*TransformerPostProcessor)(nil)

func NewTransformerPostProcessor(transformers ...Transformer) *TransformerPostProcessor {
	p := &TransformerPostProcessor{byName: make(map[string]Transformer, len(transformers))}
	for _, t := range transformers {
		if t == nil {
			continue
		}
		p.transformers = append(p.transformers, t)
		p.byName[t.Name()] = t
	}
	return p
}

// Process 实现 PostProcessor。
func (p *TransformerPostProcessor) Process(path string, n node.ConfigNode) entity.Validated[node.ConfigNode] {
	if n == nil || n.Type() != node.Leaf {
		return entity.Valid(n)
	}
	value, ok := n.Value()
	if !ok || !strings.Contains(value, "${") {
		return entity.Valid(n)
	}

	expanded, errs := p.expand(path, value)
	if expanded == value {
		return entity.Of(n, true, errs)
	}
	return entity.Of[node.ConfigNode](node.NewLeafNode(expanded), true, errs)
}

// expand 扫描整个字符串并替换所有占位符。
func (p *TransformerPostProcessor) expand(path, input string) (string, []entity.ValidationError) {
	var (
		res   strings.Builder
		errs  []entity.ValidationError
		start int
	)

	for {
		idx := strings.Index(input[start:], "${")
		if idx == -1 {
			res.WriteString(input[start:])
			return res.String(), errs
		}

		// 写入前面的普通内容
		res.WriteString(input[start : start+idx])

		begin := start + idx + 2
		end := strings.Index(input[begin:], "}")
		if end == -1 {
			errs = append(errs, entity.PlaceholderNotClosedError{Path: path, Value: input})
			res.WriteString(input[start+idx:])
			return res.String(), errs
		}

		raw := input[begin : begin+end]
		replaced, ok, perrs := p.expandSingle(path, raw)
		errs = append(errs, perrs...)
		if ok {
			res.WriteString(replaced)
		} else {
			res.WriteString("${" + raw + "}")
		}
		start = begin + end + 1
	}
}

// expandSingle 解析 **单个** 占位符，raw 不含 ${ 和 }。
func (p *TransformerPostProcessor) expandSingle(path, raw string) (string, bool, []entity.ValidationError) {
	expr, def, hasDefault := strings.Cut(raw, "|")
	expr = strings.TrimSpace(expr)
	def = strings.TrimSpace(def)

	name, key, named := strings.Cut(expr, ":")
	if !named {
		key = expr
	}
	name = strings.TrimSpace(name)
	key = strings.TrimSpace(key)

	var errs []entity.ValidationError
	if named {
		t, ok := p.byName[name]
		if !ok {
			errs = append(errs, entity.UnknownTransformerError{Path: path, Transformer: name})
		} else {
			ret := t.Process(path, key)
			if ret.HasResults() {
				return ret.Results(), true, ret.Errors()
			}
			errs = append(errs, ret.Errors()...)
		}
	} else {
		for _, t := range p.transformers {
			if ret := t.Process(path, key); ret.HasResults() {
				return ret.Results(), true, ret.Errors()
			}
		}
		errs = append(errs, entity.NoKeyFoundForTransformerError{Path: path, Key: key})
	}

	if hasDefault {
		return def, true, nil
	}
	return "", false, errs
}
