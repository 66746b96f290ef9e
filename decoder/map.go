package decoder

import (
	"reflect"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// MapDecoder 解码 map[K]V，key 按叶子值解码为 K。
type MapDecoder struct{}

func (MapDecoder) Priority() Priority            { return Lowest }
func (MapDecoder) Name() string                  { return "Map" }
func (MapDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Map) }

func (d MapDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	m, ok := n.(*node.MapNode)
	if !ok {
		return entity.Invalid[any](entity.DecodingExpectedMapNodeTypeError{Path: path, Node: n, Decoder: d.Name()})
	}

	var errs []entity.ValidationError
	out := reflect.MakeMapWithSize(typ, m.Size())
	for _, k := range m.Keys() {
		nextPath := node.PathForKey(path, k)

		keyRet := svc.DecodeNode(nextPath, node.NewLeafNode(k), typ.Key())
		errs = append(errs, keyRet.Errors()...)
		if !keyRet.HasResults() {
			continue
		}
		key := reflect.New(typ.Key()).Elem()
		if !assign(key, keyRet.Results()) {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: nextPath, Type: typeName(typ.Key()), Area: "decoding map key"})
			continue
		}

		child, _ := m.Key(k)
		ret := svc.DecodeNode(nextPath, child, typ.Elem())
		errs = append(errs, ret.Errors()...)
		if !ret.HasResults() {
			continue
		}
		value := reflect.New(typ.Elem()).Elem()
		if !assign(value, ret.Results()) {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: nextPath, Type: typeName(typ.Elem()), Area: "decoding map"})
			continue
		}
		out.SetMapIndex(key, value)
	}
	return entity.Of(out.Interface(), true, errs)
}

// InterfaceDecoder 解码 any：叶子为 string，map 节点为 map[string]any，数组为 []any。
type InterfaceDecoder struct{}

func (InterfaceDecoder) Priority() Priority { return Lowest }
func (InterfaceDecoder) Name() string       { return "Interface" }

func (InterfaceDecoder) Matches(typ reflect.Type) bool {
	return isKind(typ, reflect.Interface) && typ.NumMethod() == 0
}

func (d InterfaceDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	return entity.Valid(toAny(n))
}

func toAny(n node.ConfigNode) any {
	switch v := n.(type) {
	case *node.MapNode:
		out := make(map[string]any, v.Size())
		for k, child := range v.Entries() {
			if child != nil {
				out[k] = toAny(child)
			}
		}
		return out
	case *node.ArrayNode:
		out := make([]any, v.Size())
		for i := range out {
			if child, ok := v.Index(i); ok {
				out[i] = toAny(child)
			}
		}
		return out
	default:
		if value, ok := n.Value(); ok {
			return value
		}
		return nil
	}
}
