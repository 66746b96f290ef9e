// Package lexer 将配置路径拆分为 token 序列。
//
// 例如 "db.hosts[1].port" 会被拆分为：
//
//	ObjectToken{db} ObjectToken{hosts} ArrayToken{1} ObjectToken{port}
package lexer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
)

// Token 路径中的一个片段。
type Token interface {
	String() string
	token()
}

// ObjectToken 表示对象的 key。
type ObjectToken struct {
	Name string
}

func (ObjectToken) token() {}

func (t ObjectToken) String() string {
	return "ObjectToken{name='" + t.Name + "'}"
}

// ArrayToken 表示数组下标。
type ArrayToken struct {
	Index int
}

func (ArrayToken) token() {}

func (t ArrayToken) String() string {
	return "ArrayToken{index=" + strconv.Itoa(t.Index) + "}"
}

// SentenceLexer 把一个完整路径（sentence）拆成 token。
type SentenceLexer interface {
	Name() string
	// Delimiter 返回路径分隔符，例如 "."
	Delimiter() string
	// Normalize 对路径做规范化（例如转小写），Scan 前会自动调用
	Normalize(sentence string) string
	Scan(sentence string) entity.Validated[[]Token]
}

var _ SentenceLexer = (*PathLexer)(nil)

// 单个路径元素：name 后面可以跟任意个 [n]
var elementPattern = regexp.MustCompile(`^([\w\-$/:@#]+)((?:\[\d+\])*)$`)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// DefaultMaxArrayIndex 路径中允许的最大数组下标。
// 编译时数组按最大下标分配，下标不设上限时一个 key 就可能耗尽内存。
const DefaultMaxArrayIndex = 10000

// PathLexer 是 SentenceLexer 的默认实现。
type PathLexer struct {
	delimiter string
	lowerCase bool
	maxIndex  int
}

// PathLexerOption PathLexer 的可选参数
type PathLexerOption func(*PathLexer)

// WithDelimiter 自定义分隔符，默认 "."。
func WithDelimiter(delimiter string) PathLexerOption {
	return func(l *PathLexer) {
		if delimiter != "" {
			l.delimiter = delimiter
		}
	}
}

// WithLowerCase 扫描前将路径转为小写，使 key 大小写不敏感。
func WithLowerCase(lower bool) PathLexerOption {
	return func(l *PathLexer) {
		l.lowerCase = lower
	}
}

// WithMaxArrayIndex 设置允许的最大数组下标，默认 DefaultMaxArrayIndex。
func WithMaxArrayIndex(n int) PathLexerOption {
	return func(l *PathLexer) {
		if n >= 0 {
			l.maxIndex = n
		}
	}
}

func NewPathLexer(opts ...PathLexerOption) *PathLexer {
	l := &PathLexer{delimiter: ".", maxIndex: DefaultMaxArrayIndex}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *PathLexer) Name() string { return "PathLexer" }

func (l *PathLexer) Delimiter() string { return l.delimiter }

func (l *PathLexer) Normalize(sentence string) string {
	sentence = strings.TrimSpace(sentence)
	if l.lowerCase {
		return strings.ToLower(sentence)
	}
	return sentence
}

// Scan 实现 SentenceLexer。
func (l *PathLexer) Scan(sentence string) entity.Validated[[]Token] {
	sentence = l.Normalize(sentence)
	if sentence == "" {
		return entity.Invalid[[]Token](entity.EmptyPathError{})
	}

	elements := strings.Split(sentence, l.delimiter)
	tokens := make([]Token, 0, len(elements))
	for _, element := range elements {
		elementTokens, ok := tokenizeElement(element)
		if !ok {
			return entity.Invalid[[]Token](entity.FailedToTokenizeElementError{Element: element, Path: sentence})
		}
		for _, t := range elementTokens {
			if at, isArray := t.(ArrayToken); isArray && at.Index > l.maxIndex {
				return entity.Invalid[[]Token](entity.ArrayIndexTooLargeError{Path: sentence, Index: at.Index, Max: l.maxIndex})
			}
		}
		tokens = append(tokens, elementTokens...)
	}
	return entity.Valid(tokens)
}

func tokenizeElement(element string) ([]Token, bool) {
	m := elementPattern.FindStringSubmatch(element)
	if m == nil {
		return nil, false
	}
	tokens := []Token{ObjectToken{Name: m[1]}}
	if m[2] == "" {
		return tokens, true
	}
	for _, idx := range indexPattern.FindAllStringSubmatch(m[2], -1) {
		i, err := strconv.Atoi(idx[1])
		if err != nil {
			return nil, false
		}
		tokens = append(tokens, ArrayToken{Index: i})
	}
	return tokens, true
}
