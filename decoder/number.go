package decoder

import (
	"reflect"
	"strconv"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// isInteger 可选的正负号后跟至少一位数字
func isInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isReal 可选的正负号，数字，最多一个小数点
func isReal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		case c >= '0' && c <= '9':
			digits++
		default:
			return false
		}
	}
	return digits > 0
}

func decodeSigned(path string, n node.ConfigNode, name string, bits int, wrap func(int64) any) entity.Validated[any] {
	return DecodeLeaf(path, n, name, func(value string) entity.Validated[any] {
		if !isInteger(value) {
			return entity.Invalid[any](entity.DecodingNumberParsingError{Path: path, Node: n, Decoder: name})
		}
		v, err := strconv.ParseInt(value, 10, bits)
		if err != nil {
			return entity.Invalid[any](entity.DecodingNumberFormatError{Path: path, Node: n, Decoder: name})
		}
		return entity.Valid(wrap(v))
	})
}

func decodeUnsigned(path string, n node.ConfigNode, name string, bits int, wrap func(uint64) any) entity.Validated[any] {
	return DecodeLeaf(path, n, name, func(value string) entity.Validated[any] {
		if !isInteger(value) {
			return entity.Invalid[any](entity.DecodingNumberParsingError{Path: path, Node: n, Decoder: name})
		}
		v, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return entity.Invalid[any](entity.DecodingNumberFormatError{Path: path, Node: n, Decoder: name})
		}
		return entity.Valid(wrap(v))
	})
}

func decodeFloat(path string, n node.ConfigNode, name string, bits int, wrap func(float64) any) entity.Validated[any] {
	return DecodeLeaf(path, n, name, func(value string) entity.Validated[any] {
		if !isReal(value) {
			return entity.Invalid[any](entity.DecodingNumberParsingError{Path: path, Node: n, Decoder: name})
		}
		v, err := strconv.ParseFloat(value, bits)
		if err != nil {
			return entity.Invalid[any](entity.DecodingNumberFormatError{Path: path, Node: n, Decoder: name})
		}
		return entity.Valid(wrap(v))
	})
}

// IntegerDecoder 解码 int
type IntegerDecoder struct{}

func (IntegerDecoder) Priority() Priority            { return Medium }
func (IntegerDecoder) Name() string                  { return "Integer" }
func (IntegerDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Int) }

func (d IntegerDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeSigned(path, n, d.Name(), strconv.IntSize, func(v int64) any { return int(v) })
}

// Int8Decoder 解码 int8
type Int8Decoder struct{}

func (Int8Decoder) Priority() Priority            { return Medium }
func (Int8Decoder) Name() string                  { return "Int8" }
func (Int8Decoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Int8) }

func (d Int8Decoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeSigned(path, n, d.Name(), 8, func(v int64) any { return int8(v) })
}

// ShortDecoder 解码 int16
type ShortDecoder struct{}

func (ShortDecoder) Priority() Priority            { return Medium }
func (ShortDecoder) Name() string                  { return "Short" }
func (ShortDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Int16) }

func (d ShortDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeSigned(path, n, d.Name(), 16, func(v int64) any { return int16(v) })
}

// Int32Decoder 解码 int32（也就是 rune，需要单个字符时使用 Char）
type Int32Decoder struct{}

func (Int32Decoder) Priority() Priority            { return Medium }
func (Int32Decoder) Name() string                  { return "Int32" }
func (Int32Decoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Int32) }

func (d Int32Decoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeSigned(path, n, d.Name(), 32, func(v int64) any { return int32(v) })
}

// LongDecoder 解码 int64
type LongDecoder struct{}

func (LongDecoder) Priority() Priority            { return Medium }
func (LongDecoder) Name() string                  { return "Long" }
func (LongDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Int64) }

func (d LongDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeSigned(path, n, d.Name(), 64, func(v int64) any { return v })
}

// UintDecoder 解码 uint
type UintDecoder struct{}

func (UintDecoder) Priority() Priority            { return Medium }
func (UintDecoder) Name() string                  { return "Uint" }
func (UintDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Uint) }

func (d UintDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeUnsigned(path, n, d.Name(), strconv.IntSize, func(v uint64) any { return uint(v) })
}

// Uint16Decoder 解码 uint16
type Uint16Decoder struct{}

func (Uint16Decoder) Priority() Priority            { return Medium }
func (Uint16Decoder) Name() string                  { return "Uint16" }
func (Uint16Decoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Uint16) }

func (d Uint16Decoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeUnsigned(path, n, d.Name(), 16, func(v uint64) any { return uint16(v) })
}

// Uint32Decoder 解码 uint32
type Uint32Decoder struct{}

func (Uint32Decoder) Priority() Priority            { return Medium }
func (Uint32Decoder) Name() string                  { return "Uint32" }
func (Uint32Decoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Uint32) }

func (d Uint32Decoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeUnsigned(path, n, d.Name(), 32, func(v uint64) any { return uint32(v) })
}

// Uint64Decoder 解码 uint64
type Uint64Decoder struct{}

func (Uint64Decoder) Priority() Priority            { return Medium }
func (Uint64Decoder) Name() string                  { return "Uint64" }
func (Uint64Decoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Uint64) }

func (d Uint64Decoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeUnsigned(path, n, d.Name(), 64, func(v uint64) any { return v })
}

// FloatDecoder 解码 float32
type FloatDecoder struct{}

func (FloatDecoder) Priority() Priority            { return Medium }
func (FloatDecoder) Name() string                  { return "Float" }
func (FloatDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Float32) }

func (d FloatDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeFloat(path, n, d.Name(), 32, func(v float64) any { return float32(v) })
}

// DoubleDecoder 解码 float64
type DoubleDecoder struct{}

func (DoubleDecoder) Priority() Priority            { return Medium }
func (DoubleDecoder) Name() string                  { return "Double" }
func (DoubleDecoder) Matches(typ reflect.Type) bool { return isKind(typ, reflect.Float64) }

func (d DoubleDecoder) Decode(path string, n node.ConfigNode, _ reflect.Type, _ Service) entity.Validated[any] {
	return decodeFloat(path, n, d.Name(), 64, func(v float64) any { return v })
}
