package gestalt

import (
	"errors"
	"strings"

	"github.com/lifei6671/go-gestalt/entity"
)

var (
	// ErrNoSources 没有配置任何 Source
	ErrNoSources = errors.New("gestalt: no sources provided")
	// ErrConfigNotLoaded 在 LoadConfigs 成功之前读取配置
	ErrConfigNotLoaded = errors.New("gestalt: configs not loaded, call LoadConfigs first")
	// ErrNoLoader 没有 Loader 能处理 Source 返回的格式
	ErrNoLoader = errors.New("gestalt: no loader found for format")
)

// GestaltError 汇总一次加载或解码过程中的校验错误。
//
//	Failed getting config path: db.port, for type: int
//	 - level: ERROR, message: Unable to parse a number on Path: db.port, ...
type GestaltError struct {
	Message string
	Errors  []entity.ValidationError
}

func newGestaltError(message string, errs []entity.ValidationError) *GestaltError {
	return &GestaltError{Message: message, Errors: errs}
}

func (e *GestaltError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, err := range e.Errors {
		b.WriteString("\n - level: ")
		b.WriteString(err.Level().String())
		b.WriteString(", message: ")
		b.WriteString(err.Description())
	}
	return b.String()
}

// HasLevel 是否包含指定级别的错误。
func (e *GestaltError) HasLevel(level entity.Level) bool {
	return entity.HasLevel(e.Errors, level)
}
