package decoder

import (
	"encoding"
	"math"
	"net/url"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// Char 是单个字符。rune 与 int32 在反射中无法区分，需要按字符解码时使用该类型。
type Char rune

// FilePath 是文件系统路径，解码时会做 filepath.Clean。
type FilePath string

var (
	charType            = reflect.TypeOf(Char(0))
	filePathType        = reflect.TypeOf(FilePath(""))
	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	urlType             = reflect.TypeOf(url.URL{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// BoolDecoder 解码 bool。
// true/yes/on/1 （不区分大小写）为 true，其他任何值都是 false。
type BoolDecoder struct{}

func (BoolDecoder) Priority() Priority            { return Medium }
func (BoolDecoder) Name() string                  { return "Boolean" }
func (BoolDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Bool) }

func (d BoolDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "on", "1":
			return entity.Valid[any](true)
		default:
			return entity.Valid[any](false)
		}
	})
}

// ByteDecoder 解码单个字节（uint8）。
// 值必须恰好是一个字符，结果为该字符 UTF-8 编码的第一个字节。
type ByteDecoder struct{}

func (ByteDecoder) Priority() Priority            { return Medium }
func (ByteDecoder) Name() string                  { return "Byte" }
func (ByteDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Uint8) }

func (d ByteDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		if utf8.RuneCountInString(value) != 1 {
			return entity.Invalid[any](entity.DecodingByteTooLongError{Path: path, Node: n})
		}
		return entity.Valid[any](value[0])
	})
}

// CharDecoder 解码单个字符到 Char。
type CharDecoder struct{}

func (CharDecoder) Priority() Priority            { return High }
func (CharDecoder) Name() string                  { return "Char" }
func (CharDecoder) Matches(typ reflect.Type) bool { return typ == charType }

func (d CharDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		if utf8.RuneCountInString(value) != 1 {
			return entity.Invalid[any](entity.DecodingCharWrongSizeError{Path: path, Node: n})
		}
		r, _ := utf8.DecodeRuneInString(value)
		return entity.Valid[any](Char(r))
	})
}

// StringDecoder 原样返回叶子的值。
type StringDecoder struct{}

func (StringDecoder) Priority() Priority            { return Medium }
func (StringDecoder) Name() string                  { return "String" }
func (StringDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.String) }

func (d StringDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		return entity.Valid[any](value)
	})
}

// DurationDecoder 解码 time.Duration。
// 支持 time.ParseDuration 的格式；纯整数按毫秒处理。
type DurationDecoder struct{}

func (DurationDecoder) Priority() Priority            { return High }
func (DurationDecoder) Name() string                  { return "Duration" }
func (DurationDecoder) Matches(typ reflect.Type) bool { return typ == durationType }

func (d DurationDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		value = strings.TrimSpace(value)
		if isInteger(value) {
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil || ms > math.MaxInt64/int64(time.Millisecond) || ms < math.MinInt64/int64(time.Millisecond) {
				return entity.Invalid[any](entity.DecodingNumberFormatError{Path: path, Node: n, Decoder: d.Name()})
			}
			return entity.Valid[any](time.Duration(ms) * time.Millisecond)
		}
		v, err := time.ParseDuration(value)
		if err != nil {
			return entity.Invalid[any](entity.ErrorDecodingError{Path: path, Node: n, Decoder: d.Name()})
		}
		return entity.Valid[any](v)
	})
}

// TimeDecoder 解码 time.Time。
// 未指定 Layout 时依次尝试 RFC3339Nano、"2006-01-02T15:04:05"、"2006-01-02"。
type TimeDecoder struct {
	Layout string
}

func NewTimeDecoder(layout string) TimeDecoder {
	return TimeDecoder{Layout: layout}
}

func (TimeDecoder) Priority() Priority            { return High }
func (TimeDecoder) Name() string                  { return "Time" }
func (TimeDecoder) Matches(typ reflect.Type) bool { return typ == timeType }

func (d TimeDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}
	if d.Layout != "" {
		layouts = []string{d.Layout}
	}
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		for _, layout := range layouts {
			if v, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
				return entity.Valid[any](v)
			}
		}
		return entity.Invalid[any](entity.ErrorDecodingError{Path: path, Node: n, Decoder: d.Name()})
	})
}

// PathDecoder 解码 FilePath。
type PathDecoder struct{}

func (PathDecoder) Priority() Priority            { return High }
func (PathDecoder) Name() string                  { return "Path" }
func (PathDecoder) Matches(typ reflect.Type) bool { return typ == filePathType }

func (d PathDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		if strings.TrimSpace(value) == "" {
			return entity.Invalid[any](entity.ErrorDecodingError{Path: path, Node: n, Decoder: d.Name()})
		}
		return entity.Valid[any](FilePath(filepath.Clean(value)))
	})
}

// URLDecoder 解码 url.URL 和 *url.URL。
type URLDecoder struct{}

func (URLDecoder) Priority() Priority { return High }
func (URLDecoder) Name() string       { return "URL" }

func (URLDecoder) Matches(typ reflect.Type) bool {
	return typ == urlType || typ == reflect.PointerTo(urlType)
}

func (d URLDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		u, err := url.Parse(strings.TrimSpace(value))
		if err != nil {
			return entity.Invalid[any](entity.ErrorDecodingError{Path: path, Node: n, Decoder: d.Name()})
		}
		if typ == urlType {
			return entity.Valid[any](*u)
		}
		return entity.Valid[any](u)
	})
}

// TextUnmarshalerDecoder 解码任何 *T 实现了 encoding.TextUnmarshaler 的类型 T，
// 例如 net.IP、zerolog.Level 或自定义枚举。
type TextUnmarshalerDecoder struct{}

func (TextUnmarshalerDecoder) Priority() Priority { return High }
func (TextUnmarshalerDecoder) Name() string       { return "TextUnmarshaler" }

func (TextUnmarshalerDecoder) Matches(typ reflect.Type) bool {
	return typ != nil && typ.Kind() != reflect.Pointer && typ.Kind() != reflect.Interface &&
		reflect.PointerTo(typ).Implements(textUnmarshalerType)
}

func (d TextUnmarshalerDecoder) Decode(path string, n node.ConfigNode, typ reflect.Type, _ Service) entity.Validated[any] {
	return DecodeLeaf(path, n, d.Name(), func(value string) entity.Validated[any] {
		v := reflect.New(typ)
		u, ok := v.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return entity.Invalid[any](entity.NoDecodersFoundError{Type: typeName(typ)})
		}
		if err := u.UnmarshalText([]byte(value)); err != nil {
			return entity.Invalid[any](entity.ErrorDecodingError{Path: path, Node: n, Decoder: d.Name()})
		}
		return entity.Valid(v.Elem().Interface())
	})
}
