// Package parser 负责把 source 解码出来的数据编译为 node 树。
//
// 两种输入：
//   - 扁平的 (path, value) 键值对，例如 properties、env、内存 map，路径经 lexer 拆分
//   - 已经是层级结构的 map[string]any，例如 JSON/YAML/TOML
package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

// Pair 扁平配置中的一项。
type Pair struct {
	Path  string
	Value string
}

// SortedPairs 将 map 转为按 path 排序的 Pair 列表，保证编译结果稳定。
func SortedPairs(m map[string]string) []Pair {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Path: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Path < pairs[j].Path })
	return pairs
}

// builder 是编译过程中可变的中间树
type builder struct {
	leaf     *string
	children map[string]*builder
	items    map[int]*builder
}

func (b *builder) isLeaf() bool  { return b.leaf != nil }
func (b *builder) isMap() bool   { return b.children != nil }
func (b *builder) isArray() bool { return b.items != nil }
func (b *builder) isEmpty() bool { return !b.isLeaf() && !b.isMap() && !b.isArray() }

// Analyze 将扁平的 (path, value) 列表编译为一棵 node 树。
// 出错的 pair 会被跳过并记录错误，其余 pair 仍然生效。
func Analyze(lex lexer.SentenceLexer, source string, pairs []Pair) entity.Validated[node.ConfigNode] {
	root := &builder{children: make(map[string]*builder)}
	var errs []entity.ValidationError

	for _, p := range pairs {
		scanned := lex.Scan(p.Path)
		if !scanned.HasResults() {
			errs = append(errs, scanned.Errors()...)
			continue
		}
		if err := insert(root, scanned.Results(), p.Value); err != nil {
			errs = append(errs, entity.MismatchedPathLengthError{Path: lex.Normalize(p.Path), Source: source})
		}
	}

	return entity.Of(build(root), true, errs)
}

func insert(root *builder, tokens []lexer.Token, value string) error {
	cur := root
	for i, token := range tokens {
		last := i == len(tokens)-1

		var next *builder
		switch t := token.(type) {
		case lexer.ObjectToken:
			if cur.isLeaf() || cur.isArray() {
				return fmt.Errorf("mismatched path")
			}
			if cur.children == nil {
				cur.children = make(map[string]*builder)
			}
			next = cur.children[t.Name]
			if next == nil {
				next = &builder{}
				cur.children[t.Name] = next
			}
		case lexer.ArrayToken:
			if cur.isLeaf() || cur.isMap() {
				return fmt.Errorf("mismatched path")
			}
			if cur.items == nil {
				cur.items = make(map[int]*builder)
			}
			next = cur.items[t.Index]
			if next == nil {
				next = &builder{}
				cur.items[t.Index] = next
			}
		default:
			return fmt.Errorf("unsupported token %s", token)
		}

		if last {
			if !next.isEmpty() && !next.isLeaf() {
				return fmt.Errorf("mismatched path")
			}
			v := value
			next.leaf = &v
			return nil
		}
		if next.isLeaf() {
			return fmt.Errorf("mismatched path")
		}
		cur = next
	}
	return nil
}

func build(b *builder) node.ConfigNode {
	switch {
	case b.isLeaf():
		return node.NewLeafNode(*b.leaf)
	case b.isArray():
		size := 0
		for i := range b.items {
			if i+1 > size {
				size = i + 1
			}
		}
		values := make([]node.ConfigNode, size)
		for i, item := range b.items {
			values[i] = build(item)
		}
		return node.NewArrayNode(values)
	default:
		values := make(map[string]node.ConfigNode, len(b.children))
		for k, child := range b.children {
			values[k] = build(child)
		}
		return node.NewMapNode(values)
	}
}

// FromMap 将解码后的层级数据转换为 node 树。
// 数字使用最短的十进制表示，time.Time 使用 RFC3339Nano，null 转为空叶子节点。
func FromMap(m map[string]any) node.ConfigNode {
	return FromValue(m)
}

// FromValue 转换任意解码值。
func FromValue(v any) node.ConfigNode {
	switch vv := v.(type) {
	case nil:
		return node.NewEmptyLeafNode()
	case map[string]any:
		values := make(map[string]node.ConfigNode, len(vv))
		for k, child := range vv {
			values[k] = FromValue(child)
		}
		return node.NewMapNode(values)
	case map[any]any:
		values := make(map[string]node.ConfigNode, len(vv))
		for k, child := range vv {
			values[fmt.Sprint(k)] = FromValue(child)
		}
		return node.NewMapNode(values)
	case map[string]string:
		values := make(map[string]node.ConfigNode, len(vv))
		for k, child := range vv {
			values[k] = node.NewLeafNode(child)
		}
		return node.NewMapNode(values)
	case []any:
		values := make([]node.ConfigNode, len(vv))
		for i, child := range vv {
			values[i] = FromValue(child)
		}
		return node.NewArrayNode(values)
	case []map[string]any:
		values := make([]node.ConfigNode, len(vv))
		for i, child := range vv {
			values[i] = FromValue(child)
		}
		return node.NewArrayNode(values)
	case []string:
		values := make([]node.ConfigNode, len(vv))
		for i, child := range vv {
			values[i] = node.NewLeafNode(child)
		}
		return node.NewArrayNode(values)
	default:
		return node.NewLeafNode(scalarString(v))
	}
}

// numberString 整数保留原始文本以免丢失精度，其余统一为不带指数的十进制，
// 例如 1e-3 => 0.001。
func numberString(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func scalarString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case json.Number:
		return numberString(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case uint64:
		return strconv.FormatUint(vv, 10)
	case time.Time:
		return vv.Format(time.RFC3339Nano)
	case time.Duration:
		return vv.String()
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprint(v)
	}
}
