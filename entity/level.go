package entity

// Level 表示校验错误的级别。
// WARN 级别的错误可以恢复，ERROR 级别通常意味着本次加载或解码失败。
type Level int

const (
	// LevelError 无法恢复的错误
	LevelError Level = iota
	// LevelWarn 可以恢复的警告
	LevelWarn
	// LevelMissingValue 可选值缺失，默认按警告处理
	LevelMissingValue
	// LevelDebug 仅用于排查问题
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelMissingValue:
		return "MISSING_VALUE"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}
