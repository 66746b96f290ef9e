package decoder

import (
	"reflect"
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// elements 返回数组节点的所有下标，逗号分隔的叶子被视为一个数组，例如 "a, b, c"。
func elements(path string, n node.ConfigNode, name string) ([]node.ConfigNode, entity.ValidationError) {
	switch n.Type() {
	case node.Array:
		values := make([]node.ConfigNode, n.Size())
		for i := range values {
			values[i], _ = n.Index(i)
		}
		return values, nil
	case node.Leaf:
		value, ok := n.Value()
		if !ok {
			return nil, entity.LeafNodesHaveNoValuesError{Path: path}
		}
		if strings.TrimSpace(value) == "" {
			return []node.ConfigNode{}, nil
		}
		parts := strings.Split(value, ",")
		values := make([]node.ConfigNode, len(parts))
		for i, p := range parts {
			values[i] = node.NewLeafNode(strings.TrimSpace(p))
		}
		return values, nil
	default:
		return nil, entity.DecodingExpectedArrayNodeTypeError{Path: path, Node: n, Decoder: name}
	}
}

// decodeElements 依次解码每个元素，f 接收成功解码的下标和值。
func decodeElements(path string, values []node.ConfigNode, elem reflect.Type, svc Service, f func(i int, v any) bool) []entity.ValidationError {
	var errs []entity.ValidationError
	for i, child := range values {
		if child == nil {
			errs = append(errs, entity.ArrayMissingIndexError{Index: i, Path: path})
			continue
		}
		ret := svc.DecodeNode(node.PathForIndex(path, i), child, elem)
		errs = append(errs, ret.Errors()...)
		if !ret.HasResults() {
			continue
		}
		if !f(i, ret.Results()) {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: node.PathForIndex(path, i), Type: typeName(elem), Area: "decoding array"})
		}
	}
	return errs
}

// SliceDecoder 解码 []T。
type SliceDecoder struct{}

func (SliceDecoder) Priority() Priority            { return Lowest }
func (SliceDecoder) Name() string                  { return "Slice" }
func (SliceDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Slice) }

func (d SliceDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	values, verr := elements(path, n, d.Name())
	if verr != nil {
		return entity.Invalid[any](verr)
	}

	out := reflect.MakeSlice(typ, 0, len(values))
	errs := decodeElements(path, values, typ.Elem(), svc, func(_ int, v any) bool {
		elem := reflect.New(typ.Elem()).Elem()
		if !assign(elem, v) {
			return false
		}
		out = reflect.Append(out, elem)
		return true
	})
	return entity.Of(out.Interface(), true, errs)
}

// ArrayDecoder 解码定长数组 [N]T，元素个数不一致时给出 WARN 并尽量填充。
type ArrayDecoder struct{}

func (ArrayDecoder) Priority() Priority            { return Lowest }
func (ArrayDecoder) Name() string                  { return "Array" }
func (ArrayDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Array) }

func (d ArrayDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	values, verr := elements(path, n, d.Name())
	if verr != nil {
		return entity.Invalid[any](verr)
	}

	var errs []entity.ValidationError
	if len(values) != typ.Len() {
		errs = append(errs, entity.DecodingArrayWrongSizeError{Path: path, Expected: typ.Len(), Received: len(values)})
		if len(values) > typ.Len() {
			values = values[:typ.Len()]
		}
	}

	out := reflect.New(typ).Elem()
	errs = append(errs, decodeElements(path, values, typ.Elem(), svc, func(i int, v any) bool {
		return assign(out.Index(i), v)
	})...)
	return entity.Of(out.Interface(), true, errs)
}

// SetDecoder 将数组解码为 map[T]struct{} 或 map[T]bool。
// map[T]bool 遇到 map 节点时按普通 map 解码。
type SetDecoder struct{}

func (SetDecoder) Priority() Priority { return Low }
func (SetDecoder) Name() string       { return "Set" }

func (SetDecoder) Matches(typ reflect.Type) bool {
	if !isKind(typ, reflect.Map) {
		return false
	}
	elem := typ.Elem()
	return (elem.Kind() == reflect.Struct && elem.NumField() == 0) || elem.Kind() == reflect.Bool
}

func (d SetDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	if n.Type() == node.Map && typ.Elem().Kind() == reflect.Bool {
		return MapDecoder{}.Decode(path, n, typ, svc)
	}
	values, verr := elements(path, n, d.Name())
	if verr != nil {
		return entity.Invalid[any](verr)
	}

	present := reflect.New(typ.Elem()).Elem()
	if present.Kind() == reflect.Bool {
		present.SetBool(true)
	}

	out := reflect.MakeMapWithSize(typ, len(values))
	errs := decodeElements(path, values, typ.Key(), svc, func(_ int, v any) bool {
		key := reflect.New(typ.Key()).Elem()
		if !assign(key, v) {
			return false
		}
		out.SetMapIndex(key, present)
		return true
	})
	return entity.Of(out.Interface(), true, errs)
}
