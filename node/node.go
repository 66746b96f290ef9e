// Package node 定义配置节点树以及节点的合并、导航、后处理逻辑。
//
// 所有 source 的内容最终都会被转换为一棵 ConfigNode 树：
//   - LeafNode  叶子节点，保存原始字符串值
//   - MapNode   对象节点，key -> 子节点
//   - ArrayNode 数组节点，下标 -> 子节点，允许存在空洞
package node

import (
	"sort"
	"strconv"
	"strings"
)

// Type 节点类型
type Type int

const (
	Leaf Type = iota
	Map
	Array
)

func (t Type) String() string {
	switch t {
	case Leaf:
		return "leaf"
	case Map:
		return "map"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// ConfigNode 是配置树中的一个节点。
type ConfigNode interface {
	Type() Type
	// Value 返回叶子节点的值，非叶子节点始终返回 false
	Value() (string, bool)
	// Index 返回数组节点中指定下标的子节点
	Index(i int) (ConfigNode, bool)
	// Key 返回 map 节点中指定 key 的子节点
	Key(key string) (ConfigNode, bool)
	Size() int
	String() string
}

var (
	_ ConfigNode = (*LeafNode)(nil)
	_ ConfigNode = (*MapNode)(nil)
	_ ConfigNode = (*ArrayNode)(nil)
)

// LeafNode 叶子节点
type LeafNode struct {
	value   string
	present bool
}

func NewLeafNode(value string) *LeafNode {
	return &LeafNode{value: value, present: true}
}

// NewEmptyLeafNode 创建一个没有值的叶子节点，例如 JSON 中的 null。
func NewEmptyLeafNode() *LeafNode {
	return &LeafNode{}
}

func (n *LeafNode) Type() Type { return Leaf }

func (n *LeafNode) Value() (string, bool) {
	if n == nil {
		return "", false
	}
	return n.value, n.present
}

func (n *LeafNode) Index(int) (ConfigNode, bool) { return nil, false }

func (n *LeafNode) Key(string) (ConfigNode, bool) { return nil, false }

func (n *LeafNode) Size() int {
	if n == nil || !n.present {
		return 0
	}
	return 1
}

func (n *LeafNode) String() string {
	if n == nil || !n.present {
		return "LeafNode{value=null}"
	}
	return "LeafNode{value='" + n.value + "'}"
}

// MapNode 对象节点
type MapNode struct {
	values map[string]ConfigNode
}

func NewMapNode(values map[string]ConfigNode) *MapNode {
	if values == nil {
		values = make(map[string]ConfigNode)
	}
	return &MapNode{values: values}
}

func (n *MapNode) Type() Type { return Map }

func (n *MapNode) Value() (string, bool) { return "", false }

func (n *MapNode) Index(int) (ConfigNode, bool) { return nil, false }

func (n *MapNode) Key(key string) (ConfigNode, bool) {
	v, ok := n.values[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (n *MapNode) Size() int { return len(n.values) }

// Entries 返回底层 map，调用方不应修改。
func (n *MapNode) Entries() map[string]ConfigNode {
	return n.values
}

// Keys 按字典序返回所有 key。
func (n *MapNode) Keys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n *MapNode) String() string {
	var b strings.Builder
	b.WriteString("MapNode{mapNode={")
	for i, k := range n.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(toString(n.values[k]))
	}
	b.WriteString("}}")
	return b.String()
}

// ArrayNode 数组节点，values 中允许出现 nil 表示缺失的下标。
type ArrayNode struct {
	values []ConfigNode
}

func NewArrayNode(values []ConfigNode) *ArrayNode {
	return &ArrayNode{values: values}
}

func (n *ArrayNode) Type() Type { return Array }

func (n *ArrayNode) Value() (string, bool) { return "", false }

func (n *ArrayNode) Index(i int) (ConfigNode, bool) {
	if i < 0 || i >= len(n.values) || n.values[i] == nil {
		return nil, false
	}
	return n.values[i], true
}

func (n *ArrayNode) Key(string) (ConfigNode, bool) { return nil, false }

func (n *ArrayNode) Size() int { return len(n.values) }

func (n *ArrayNode) String() string {
	parts := make([]string, len(n.values))
	for i, v := range n.values {
		parts[i] = toString(v)
	}
	return "ArrayNode{values=[" + strings.Join(parts, ", ") + "]}"
}

func toString(n ConfigNode) string {
	if n == nil {
		return "null"
	}
	return n.String()
}

// TypeName 返回节点实现的名称，用于错误描述。
func TypeName(n ConfigNode) string {
	switch n.(type) {
	case nil:
		return "null"
	case *LeafNode:
		return "LeafNode"
	case *MapNode:
		return "MapNode"
	case *ArrayNode:
		return "ArrayNode"
	default:
		return "unknown"
	}
}

// PathForKey 拼接对象路径：("db", "port") => "db.port"
func PathForKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// PathForIndex 拼接数组路径：("hosts", 1) => "hosts[1]"
func PathForIndex(path string, index int) string {
	return path + "[" + strconv.Itoa(index) + "]"
}
