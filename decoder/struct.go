package decoder

import (
	"reflect"
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// TagName 结构体字段使用的 tag。
//
//	type DB struct {
//	    Host    string        `config:"host"`
//	    Port    int           `config:"port,default=3306"`
//	    Timeout time.Duration `config:",default=1s"`
//	    Replica *string       // 缺失时为 nil
//	    Secret  string        `config:"-"`
//	}
const TagName = "config"

type fieldTag struct {
	name       string
	skip       bool
	optional   bool
	def        string
	hasDefault bool
}

// parseTag 解析 `config:"name,optional,default=v"`，default 必须放在最后，其值可以包含逗号。
func parseTag(f reflect.StructField) fieldTag {
	raw, ok := f.Tag.Lookup(TagName)
	if !ok {
		return fieldTag{}
	}
	if raw == "-" {
		return fieldTag{skip: true}
	}

	parts := strings.Split(raw, ",")
	tag := fieldTag{name: strings.TrimSpace(parts[0])}
	for i := 1; i < len(parts); i++ {
		opt := strings.TrimSpace(parts[i])
		switch {
		case opt == "optional":
			tag.optional = true
		case strings.HasPrefix(opt, "default="):
			rest := strings.TrimLeft(strings.Join(parts[i:], ","), " ")
			tag.def = strings.TrimPrefix(rest, "default=")
			tag.hasDefault = true
			return tag
		}
	}
	return tag
}

// StructDecoder 将 map 节点按字段绑定到结构体。
//
// 字段名优先取 tag，其次是字段名本身；精确匹配失败时再做大小写不敏感匹配。
// 匿名嵌入且没有 tag 的结构体会被展开到当前层级。
type StructDecoder struct{}

func (StructDecoder) Priority() Priority            { return Lowest }
func (StructDecoder) Name() string                  { return "Struct" }
func (StructDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Struct) }

func (d StructDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	if n == nil {
		return entity.Invalid[any](entity.NilNodeForPathError{Path: path})
	}
	m, ok := n.(*node.MapNode)
	if !ok {
		return entity.Invalid[any](entity.DecodingExpectedMapNodeTypeError{Path: path, Node: n, Decoder: d.Name()})
	}

	out := reflect.New(typ).Elem()
	errs := decodeFields(path, m, out, svc)
	return entity.Of(out.Interface(), true, errs)
}

func decodeFields(path string, m *node.MapNode, v reflect.Value, svc Service) []entity.ValidationError {
	var errs []entity.ValidationError
	typ := v.Type()

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := parseTag(f)
		if tag.skip {
			continue
		}
		// 与 encoding/json 一致，未导出的嵌入结构体中的导出字段同样会被提升
		if f.Anonymous && tag.name == "" && f.Type.Kind() == reflect.Struct {
			errs = append(errs, decodeFields(path, m, v.Field(i), svc)...)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := tag.name
		if name == "" {
			name = f.Name
		}
		key, child := lookupField(path, name, m, svc)
		nextPath := node.PathForKey(path, key)

		// 有 default 时，没有值的叶子（例如 yaml 中的 `port:`）按缺失处理
		if tag.hasDefault && child != nil && child.Type() == node.Leaf {
			if _, ok := child.Value(); !ok {
				child = nil
			}
		}

		// 字段存在时只使用配置的值，解码失败不会回退到 default
		if child != nil {
			ret := svc.DecodeNode(nextPath, child, f.Type)
			errs = append(errs, ret.Errors()...)
			if ret.HasResults() && !assign(v.Field(i), ret.Results()) {
				errs = append(errs, entity.NoResultsFoundForNodeError{Path: nextPath, Type: typeName(f.Type), Area: "struct decoding"})
			}
			continue
		}

		switch {
		case tag.hasDefault:
			ret := svc.DecodeNode(nextPath, node.NewLeafNode(tag.def), f.Type)
			errs = append(errs, ret.Errors()...)
			if ret.HasResults() {
				assign(v.Field(i), ret.Results())
			}
		case tag.optional || f.Type.Kind() == reflect.Pointer:
			errs = append(errs, entity.MissingValueError{Path: nextPath, Field: f.Name})
		default:
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: nextPath, Type: typeName(f.Type), Area: "struct decoding"})
		}
	}
	return errs
}

// lookupField 先通过 Service 精确查找，再在当前 map 中做大小写不敏感匹配。
func lookupField(path, name string, m *node.MapNode, svc Service) (string, node.ConfigNode) {
	if ret := svc.GetNextNode(node.PathForKey(path, name), name, m); ret.HasResults() {
		return name, ret.Results()
	}
	for _, k := range m.Keys() {
		if strings.EqualFold(k, name) {
			child, _ := m.Key(k)
			return k, child
		}
	}
	return name, nil
}

// PointerDecoder 解码 *T：先解码 T，再返回指向它的指针。
type PointerDecoder struct{}

func (PointerDecoder) Priority() Priority            { return Low }
func (PointerDecoder) Name() string                  { return "Pointer" }
func (PointerDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Pointer) }

func (d PointerDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, svc Service) entity.Validated[any] {
	ret := svc.DecodeNode(path, n, typ.Elem())
	if !ret.HasResults() {
		return ret
	}
	p := reflect.New(typ.Elem())
	if !assign(p.Elem(), ret.Results()) {
		return entity.Invalid[any](append(ret.Errors(), entity.NoResultsFoundForNodeError{
			Path: path, Type: typeName(typ), Area: "pointer decoding",
		})...)
	}
	return entity.Of(p.Interface(), true, ret.Errors())
}
