package loader

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/parser"
)

// PropertiesLoader 解析 Java Properties 格式。
// 格式示例：
//
//	# Comment
//	app.name = MyApp
//	db.hosts[0]: a
//	path /tmp/test
//
// 特性：
//   - 支持 # 和 ! 注释
//   - 支持 "=", ":" 或空白作为 key/value 分隔符
//   - 支持反斜杠续行与 \uXXXX Unicode 转义
//   - key 按 lexer 规则拆分为层级路径
type PropertiesLoader struct{}

var _ Loader = PropertiesLoader{}

func NewPropertiesLoader() PropertiesLoader {
	return PropertiesLoader{}
}

func (PropertiesLoader) Name() string { return "PropertiesLoader" }

func (PropertiesLoader) Accepts(format string) bool { return format == FormatProperties }

// Load 实现 Loader 接口。
func (PropertiesLoader) Load(lex lexer.SentenceLexer, source string, data []byte) (entity.Validated[node.ConfigNode], error) {
	if len(data) == 0 {
		return emptyMap(), nil
	}

	m, err := ParseProperties(string(data))
	if err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("properties decode failed: %w", err)
	}
	return parser.Analyze(lex, source, parser.SortedPairs(m)), nil
}

// ParseProperties 按 java.util.Properties 的规则解析字符串为 map[string]string。
// 重复的 key 以最后一次出现为准。
func ParseProperties(input string) (map[string]string, error) {
	lines := splitLogicalLines(input)
	props := make(map[string]string)

	for _, line := range lines {
		// 去除前后空白
		trim := strings.TrimSpace(line)

		if trim == "" {
			continue
		}
		if strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, "!") {
			continue
		}

		key, val, ok := splitKeyValue(trim)
		if !ok {
			continue
		}

		uk, err := unescape(key)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", key, err)
		}

		uv, err := unescape(val)
		if err != nil {
			return nil, fmt.Errorf("invalid value for key %q: %w", uk, err)
		}

		props[uk] = uv
	}

	return props, nil
}

// splitLogicalLines 处理续行：行尾有奇数个反斜杠时续接下一行，
// 下一行的前导空白会被丢弃。
func splitLogicalLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))

	var buf strings.Builder
	continuation := false

	for _, r := range raw {
		line := strings.TrimRight(r, "\r")
		if continuation {
			line = strings.TrimLeftFunc(line, unicode.IsSpace)
		} else {
			buf.Reset()
			line = strings.TrimSpace(line)
		}

		continuation = trailingBackslashes(line)%2 == 1
		if continuation {
			line = line[:len(line)-1]
		}
		buf.WriteString(line)

		if !continuation {
			lines = append(lines, buf.String())
		}
	}

	if continuation {
		lines = append(lines, buf.String())
	}
	return lines
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// splitKeyValue 拆分 key [=|:|whitespace] value。
// key 中被反斜杠转义的分隔符不参与拆分，例如 "a\:b = c" 的 key 为 "a\:b"。
func splitKeyValue(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '=' || c == ':':
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		case unicode.IsSpace(rune(c)):
			rest := strings.TrimLeftFunc(s[i:], unicode.IsSpace)
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = rest[1:]
			}
			return s[:i], strings.TrimSpace(rest), true
		}
	}

	// 整行都是 key，没有 value
	return s, "", true
}

// unescape 负责处理 Java Properties 的转义：
//
//	\n  \t  \r  \\
//	\uXXXX  (unicode)
func unescape(s string) (string, error) {
	var out strings.Builder
	runes := []rune(s)
	n := len(runes)

	for i := 0; i < n; i++ {
		c := runes[i]

		if c != '\\' {
			out.WriteRune(c)
			continue
		}

		// 碰到反斜杠
		i++
		if i >= n {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		c2 := runes[i]
		switch c2 {
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 'f':
			out.WriteByte('\f')
		case '\\':
			out.WriteByte('\\')
		case 'u': // unicode 转义
			if i+4 >= n {
				return "", fmt.Errorf("invalid unicode escape \\uXXXX")
			}
			hex := string(runes[i+1 : i+5])
			i += 4
			val, err := strconv.ParseInt(hex, 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape: %v", err)
			}
			out.WriteRune(rune(val))
		default:
			out.WriteRune(c2)
		}
	}

	return out.String(), nil
}
