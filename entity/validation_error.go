package entity

import (
	"fmt"
)

// ValidationError 是加载、合并、解码配置过程中产生的结构化错误。
// 与直接返回 error 不同，ValidationError 带有级别，调用方可以决定忽略 WARN。
type ValidationError interface {
	error
	Level() Level
	Description() string
}

func nodeString(n fmt.Stringer) string {
	if n == nil {
		return "null"
	}
	return n.String()
}

// ==== 解码相关 ====

// DecodingNumberFormatError 字符串通过了数字预检，但转换失败（例如溢出）。
type DecodingNumberFormatError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e DecodingNumberFormatError) Level() Level { return LevelError }
func (e DecodingNumberFormatError) Description() string {
	return fmt.Sprintf("Unable to decode a number on path: %s, from node: %s attempting to decode %s",
		e.Path, nodeString(e.Node), e.Decoder)
}
func (e DecodingNumberFormatError) Error() string { return e.Description() }

// DecodingNumberParsingError 字符串没有通过数字预检。
type DecodingNumberParsingError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e DecodingNumberParsingError) Level() Level { return LevelError }
func (e DecodingNumberParsingError) Description() string {
	return fmt.Sprintf("Unable to parse a number on Path: %s, from node: %s attempting to decode %s",
		e.Path, nodeString(e.Node), e.Decoder)
}
func (e DecodingNumberParsingError) Error() string { return e.Description() }

// DecodingByteTooLongError 期望单个字节，但字符串长度不是 1。
type DecodingByteTooLongError struct {
	Path string
	Node fmt.Stringer
}

func (e DecodingByteTooLongError) Level() Level { return LevelWarn }
func (e DecodingByteTooLongError) Description() string {
	return fmt.Sprintf("Expected a Byte on path: %s, decoding node: %s received the wrong size",
		e.Path, nodeString(e.Node))
}
func (e DecodingByteTooLongError) Error() string { return e.Description() }

// DecodingCharWrongSizeError 期望单个字符（rune），但字符串不是一个字符。
type DecodingCharWrongSizeError struct {
	Path string
	Node fmt.Stringer
}

func (e DecodingCharWrongSizeError) Level() Level { return LevelWarn }
func (e DecodingCharWrongSizeError) Description() string {
	return fmt.Sprintf("Expected a char on path: %s, decoding node: %s received the wrong size",
		e.Path, nodeString(e.Node))
}
func (e DecodingCharWrongSizeError) Error() string { return e.Description() }

// ErrorDecodingError 通用的解码失败，例如时间格式不匹配。
type ErrorDecodingError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e ErrorDecodingError) Level() Level { return LevelError }
func (e ErrorDecodingError) Description() string {
	return fmt.Sprintf("Unable to decode a %s on path: %s, from node: %s", e.Decoder, e.Path, nodeString(e.Node))
}
func (e ErrorDecodingError) Error() string { return e.Description() }

// DecodingExpectedLeafNodeTypeError 期望叶子节点，实际收到了 map/array。
type DecodingExpectedLeafNodeTypeError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e DecodingExpectedLeafNodeTypeError) Level() Level { return LevelError }
func (e DecodingExpectedLeafNodeTypeError) Description() string {
	return fmt.Sprintf("Expected a leaf on path: %s, received node type, received: %s attempting to decode %s",
		e.Path, nodeString(e.Node), e.Decoder)
}
func (e DecodingExpectedLeafNodeTypeError) Error() string { return e.Description() }

// DecodingExpectedArrayNodeTypeError 期望数组节点。
type DecodingExpectedArrayNodeTypeError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e DecodingExpectedArrayNodeTypeError) Level() Level { return LevelError }
func (e DecodingExpectedArrayNodeTypeError) Description() string {
	return fmt.Sprintf("Expected a Array on path: %s, received node type, received: %s attempting to decode %s",
		e.Path, nodeString(e.Node), e.Decoder)
}
func (e DecodingExpectedArrayNodeTypeError) Error() string { return e.Description() }

// DecodingExpectedMapNodeTypeError 期望 map 节点。
type DecodingExpectedMapNodeTypeError struct {
	Path    string
	Node    fmt.Stringer
	Decoder string
}

func (e DecodingExpectedMapNodeTypeError) Level() Level { return LevelError }
func (e DecodingExpectedMapNodeTypeError) Description() string {
	return fmt.Sprintf("Expected a map on path: %s, received node type, received: %s attempting to decode %s",
		e.Path, nodeString(e.Node), e.Decoder)
}
func (e DecodingExpectedMapNodeTypeError) Error() string { return e.Description() }

// DecodingArrayMissingValueError 数组中某个下标没有值。
type DecodingArrayMissingValueError struct {
	Path    string
	Decoder string
}

func (e DecodingArrayMissingValueError) Level() Level { return LevelError }
func (e DecodingArrayMissingValueError) Description() string {
	return fmt.Sprintf("Array on path: %s, has a missing value attempting to decode %s", e.Path, e.Decoder)
}
func (e DecodingArrayMissingValueError) Error() string { return e.Description() }

// DecodingArrayWrongSizeError 定长数组与配置中的元素个数不一致。
type DecodingArrayWrongSizeError struct {
	Path     string
	Expected int
	Received int
}

func (e DecodingArrayWrongSizeError) Level() Level { return LevelWarn }
func (e DecodingArrayWrongSizeError) Description() string {
	return fmt.Sprintf("Expected an array of size: %d on path: %s, received size: %d",
		e.Expected, e.Path, e.Received)
}
func (e DecodingArrayWrongSizeError) Error() string { return e.Description() }

// NoDecodersFoundError 没有任何 Decoder 能处理目标类型。
type NoDecodersFoundError struct {
	Type string
}

func (e NoDecodersFoundError) Level() Level { return LevelError }
func (e NoDecodersFoundError) Description() string {
	return fmt.Sprintf("No decoders found for type: %s", e.Type)
}
func (e NoDecodersFoundError) Error() string { return e.Description() }

// NoResultsFoundForNodeError 在某个阶段（导航、合并、解码）找不到节点。
type NoResultsFoundForNodeError struct {
	Path string
	Type string
	Area string
}

func (e NoResultsFoundForNodeError) Level() Level { return LevelError }
func (e NoResultsFoundForNodeError) Description() string {
	return fmt.Sprintf("Unable to find node matching path: %s, for class: %s, during %s", e.Path, e.Type, e.Area)
}
func (e NoResultsFoundForNodeError) Error() string { return e.Description() }

// MissingValueError 可选字段在配置中不存在。
type MissingValueError struct {
	Path  string
	Field string
}

func (e MissingValueError) Level() Level { return LevelMissingValue }
func (e MissingValueError) Description() string {
	return fmt.Sprintf("Missing optional value for field: %s on path: %s", e.Field, e.Path)
}
func (e MissingValueError) Error() string { return e.Description() }

// ==== 节点树相关 ====

// LeafNodesHaveNoValuesError 叶子节点没有值，例如 JSON/YAML 中的 null。
type LeafNodesHaveNoValuesError struct {
	Path string
}

func (e LeafNodesHaveNoValuesError) Level() Level { return LevelMissingValue }
func (e LeafNodesHaveNoValuesError) Description() string {
	return fmt.Sprintf("Leaf nodes are empty for path: %s", e.Path)
}
func (e LeafNodesHaveNoValuesError) Error() string { return e.Description() }

// LeafNodesIsNilError 叶子节点为 nil。
type LeafNodesIsNilError struct {
	Path string
}

func (e LeafNodesIsNilError) Level() Level { return LevelError }
func (e LeafNodesIsNilError) Description() string {
	return fmt.Sprintf("Leaf nodes are null for path: %s", e.Path)
}
func (e LeafNodesIsNilError) Error() string { return e.Description() }

// EmptyNodeNameError map 节点中出现空 key。
type EmptyNodeNameError struct {
	Path string
}

func (e EmptyNodeNameError) Level() Level { return LevelError }
func (e EmptyNodeNameError) Description() string {
	return fmt.Sprintf("Empty node name provided for path: %s", e.Path)
}
func (e EmptyNodeNameError) Error() string { return e.Description() }

// EmptyNodeValueError map 节点中某个 key 的值为 nil。
type EmptyNodeValueError struct {
	Path string
	Key  string
}

func (e EmptyNodeValueError) Level() Level { return LevelError }
func (e EmptyNodeValueError) Description() string {
	return fmt.Sprintf("Empty node value provided for path: %s.%s", e.Path, e.Key)
}
func (e EmptyNodeValueError) Error() string { return e.Description() }

// ArrayMissingIndexError 数组存在空洞，例如只配置了 hosts[0] 和 hosts[2]。
type ArrayMissingIndexError struct {
	Index int
	Path  string
}

func (e ArrayMissingIndexError) Level() Level { return LevelWarn }
func (e ArrayMissingIndexError) Description() string {
	return fmt.Sprintf("Missing array index: %d for path: %s", e.Index, e.Path)
}
func (e ArrayMissingIndexError) Error() string { return e.Description() }

// UnableToMergeDifferentNodesError 同一路径上节点类型不一致，无法合并。
type UnableToMergeDifferentNodesError struct {
	Path     string
	Original string
	Incoming string
}

func (e UnableToMergeDifferentNodesError) Level() Level { return LevelError }
func (e UnableToMergeDifferentNodesError) Description() string {
	return fmt.Sprintf("Unable to merge different nodes on path: %s, of type: %s and type: %s",
		e.Path, e.Original, e.Incoming)
}
func (e UnableToMergeDifferentNodesError) Error() string { return e.Description() }

// UnknownNodeTypeError 未知的节点实现。
type UnknownNodeTypeError struct {
	Path string
	Type string
}

func (e UnknownNodeTypeError) Level() Level { return LevelError }
func (e UnknownNodeTypeError) Description() string {
	return fmt.Sprintf("Unknown node type: %s on Path: %s", e.Type, e.Path)
}
func (e UnknownNodeTypeError) Error() string { return e.Description() }

// NilNodeForPathError 导航时当前节点为 nil。
type NilNodeForPathError struct {
	Path string
}

func (e NilNodeForPathError) Level() Level { return LevelError }
func (e NilNodeForPathError) Description() string {
	return fmt.Sprintf("Null or empty node for path: %s", e.Path)
}
func (e NilNodeForPathError) Error() string { return e.Description() }

// NilTokenForPathError 导航时 token 为 nil。
type NilTokenForPathError struct {
	Path string
}

func (e NilTokenForPathError) Level() Level { return LevelError }
func (e NilTokenForPathError) Description() string {
	return fmt.Sprintf("Null or empty token for path: %s", e.Path)
}
func (e NilTokenForPathError) Error() string { return e.Description() }

// MismatchedObjectNodeForPathError token 与节点类型不匹配，例如用下标访问 map。
type MismatchedObjectNodeForPathError struct {
	Path     string
	Expected string
	Received string
}

func (e MismatchedObjectNodeForPathError) Level() Level { return LevelError }
func (e MismatchedObjectNodeForPathError) Description() string {
	return fmt.Sprintf("Mismatched node type on path: %s, expected: %s received: %s",
		e.Path, e.Expected, e.Received)
}
func (e MismatchedObjectNodeForPathError) Error() string { return e.Description() }

// UnsupportedTokenTypeError 不支持的 token 类型。
type UnsupportedTokenTypeError struct {
	Path  string
	Token fmt.Stringer
}

func (e UnsupportedTokenTypeError) Level() Level { return LevelError }
func (e UnsupportedTokenTypeError) Description() string {
	return fmt.Sprintf("Unsupported token: %s on path: %s", nodeString(e.Token), e.Path)
}
func (e UnsupportedTokenTypeError) Error() string { return e.Description() }

// ==== 词法/语法分析相关 ====

// FailedToTokenizeElementError 路径中的某一段无法解析为 token。
type FailedToTokenizeElementError struct {
	Element string
	Path    string
}

func (e FailedToTokenizeElementError) Level() Level { return LevelError }
func (e FailedToTokenizeElementError) Description() string {
	return fmt.Sprintf("Unable to tokenize element %s for path: %s", e.Element, e.Path)
}
func (e FailedToTokenizeElementError) Error() string { return e.Description() }

// ArrayIndexTooLargeError 路径中的数组下标超过了 lexer 允许的上限。
type ArrayIndexTooLargeError struct {
	Path  string
	Index int
	Max   int
}

func (e ArrayIndexTooLargeError) Level() Level { return LevelError }
func (e ArrayIndexTooLargeError) Description() string {
	return fmt.Sprintf("Array index %d exceeds the maximum %d for path: %s", e.Index, e.Max, e.Path)
}
func (e ArrayIndexTooLargeError) Error() string { return e.Description() }

// EmptyPathError 空路径。
type EmptyPathError struct{}

func (e EmptyPathError) Level() Level        { return LevelError }
func (e EmptyPathError) Description() string { return "Empty path provided" }
func (e EmptyPathError) Error() string       { return e.Description() }

// MismatchedPathLengthError 同一个 key 既是叶子又是对象，例如 a=1 与 a.b=2。
type MismatchedPathLengthError struct {
	Path   string
	Source string
}

func (e MismatchedPathLengthError) Level() Level { return LevelError }
func (e MismatchedPathLengthError) Description() string {
	return fmt.Sprintf("Mismatched path lengths received for path: %s, from source: %s, "+
		"this could be because a node is both a leaf and an object", e.Path, e.Source)
}
func (e MismatchedPathLengthError) Error() string { return e.Description() }

// ==== 后处理相关 ====

// NoEnvironmentVariableFoundError 占位符引用的环境变量不存在。
type NoEnvironmentVariableFoundError struct {
	Path string
	Key  string
}

func (e NoEnvironmentVariableFoundError) Level() Level { return LevelWarn }
func (e NoEnvironmentVariableFoundError) Description() string {
	return fmt.Sprintf("Environment Variables not found for: %s, on path: %s during post process", e.Key, e.Path)
}
func (e NoEnvironmentVariableFoundError) Error() string { return e.Description() }

// NoCustomPropertyFoundError 自定义 map 中没有指定 key。
type NoCustomPropertyFoundError struct {
	Path string
	Key  string
}

func (e NoCustomPropertyFoundError) Level() Level { return LevelWarn }
func (e NoCustomPropertyFoundError) Description() string {
	return fmt.Sprintf("Custom map not found for: %s, on path: %s during post process", e.Key, e.Path)
}
func (e NoCustomPropertyFoundError) Error() string { return e.Description() }

// NoNodeFoundForTransformError node 转换器引用的路径不存在或不是叶子。
type NoNodeFoundForTransformError struct {
	Path string
	Key  string
}

func (e NoNodeFoundForTransformError) Level() Level { return LevelWarn }
func (e NoNodeFoundForTransformError) Description() string {
	return fmt.Sprintf("Node not found for: %s, on path: %s during post process", e.Key, e.Path)
}
func (e NoNodeFoundForTransformError) Error() string { return e.Description() }

// NoKeyFoundForTransformerError 所有转换器都找不到该 key。
type NoKeyFoundForTransformerError struct {
	Path string
	Key  string
}

func (e NoKeyFoundForTransformerError) Level() Level { return LevelWarn }
func (e NoKeyFoundForTransformerError) Description() string {
	return fmt.Sprintf("Unable to find a transformer with key: %s, on path: %s during post process", e.Key, e.Path)
}
func (e NoKeyFoundForTransformerError) Error() string { return e.Description() }

// UnknownTransformerError 占位符中指定的转换器未注册。
type UnknownTransformerError struct {
	Path        string
	Transformer string
}

func (e UnknownTransformerError) Level() Level { return LevelWarn }
func (e UnknownTransformerError) Description() string {
	return fmt.Sprintf("Unable to find matching transform for %s: on path: %s during post process",
		e.Transformer, e.Path)
}
func (e UnknownTransformerError) Error() string { return e.Description() }

// PlaceholderNotClosedError "${" 没有匹配的 "}"。
type PlaceholderNotClosedError struct {
	Path  string
	Value string
}

func (e PlaceholderNotClosedError) Level() Level { return LevelError }
func (e PlaceholderNotClosedError) Description() string {
	return fmt.Sprintf("Placeholder not closed: %q, on path: %s during post process", e.Value, e.Path)
}
func (e PlaceholderNotClosedError) Error() string { return e.Description() }
