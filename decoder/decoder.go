// Package decoder 将 node 树中的节点解码为具体的 Go 类型。
//
// 每个 Decoder 声明自己能处理的类型（Matches），Registry 在解码时选择优先级最高的匹配项。
// 叶子类型（数字、bool、string、时间...）只处理 LeafNode；
// 复合类型（slice、map、struct...）通过 Service 递归解码子节点。
package decoder

import (
	"reflect"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// Priority 决定多个 Decoder 同时匹配时的选择顺序。
type Priority int

const (
	Lowest Priority = iota
	Low
	Medium
	High
	VeryHigh
)

func (p Priority) String() string {
	switch p {
	case Lowest:
		return "LOWEST"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case VeryHigh:
		return "VERY_HIGH"
	default:
		return "UNKNOWN"
	}
}

// Decoder 将一个节点解码为 typ 类型的值。
// Decoder 必须是无状态的，可以在多个 goroutine 中并发使用。
type Decoder interface {
	Priority() Priority
	Name() string
	Matches(typ reflect.Type) bool
	Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any]
}

// Service 是 Registry 提供给 Decoder 的能力，复合类型用它递归解码。
type Service interface {
	DecodeNode(path string, n node.ConfigNode, typ reflect.Type) entity.Validated[any]
	GetNextNode(path, key string, n node.ConfigNode) entity.Validated[node.ConfigNode]
}

// TypeOf 返回 T 的 reflect.Type，对接口类型同样有效。
//
//	decoder.TypeOf[int]()         // int
//	decoder.TypeOf[any]()         // interface {}
//	decoder.TypeOf[[]string]()    // []string
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// DecodeLeaf 校验节点是一个有值的叶子，然后把值交给 fn。
// 自定义叶子类型的 Decoder 可以直接复用它。
func DecodeLeaf(path string, n node.ConfigNode, name string, fn func(value string) entity.Validated[any]) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	if n.Type() != node.Leaf {
		return entity.Invalid[any](entity.DecodingExpectedLeafNodeTypeError{Path: path, Node: n, Decoder: name})
	}
	value, ok := n.Value()
	if !ok {
		return entity.Invalid[any](entity.LeafNodesHaveNoValuesError{Path: path})
	}
	return fn(value)
}

func isKind(typ reflect.Type, kind reflect.Kind) bool {
	return typ != nil && typ.Kind() == kind
}

// assign 把解码结果写入 dst，必要时做同 kind 的类型转换（例如 int -> Port）。
func assign(dst reflect.Value, v any) bool {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return true
	}
	rv := reflect.ValueOf(v)
	if converted, ok := convert(rv, dst.Type()); ok {
		dst.Set(converted)
		return true
	}
	return false
}

func convert(rv reflect.Value, typ reflect.Type) (reflect.Value, bool) {
	switch {
	case rv.Type() == typ:
		return rv, true
	case rv.Type().AssignableTo(typ):
		v := reflect.New(typ).Elem()
		v.Set(rv)
		return v, true
	case rv.Kind() == typ.Kind() && rv.Type().ConvertibleTo(typ):
		return rv.Convert(typ), true
	default:
		return reflect.Value{}, false
	}
}

func typeName(typ reflect.Type) string {
	if typ == nil {
		return "nil"
	}
	return typ.String()
}
