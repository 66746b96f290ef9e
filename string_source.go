package gestalt

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifei6671/go-gestalt/loader"
)

// StringSource 以一段内联文本作为配置源，format 必须显式指定。
//
//	NewStringSource("db:\n  port: 3306", "yaml")
type StringSource struct {
	id      string
	content string
	format  string
}

var _ Source = (*StringSource)(nil)

func NewStringSource(content, format string) *StringSource {
	return &StringSource{
		id:      newSourceID(),
		content: content,
		format:  loader.NormalizeFormat(format),
	}
}

func (s *StringSource) ID() string { return s.id }

func (s *StringSource) Load(_ context.Context) ([]byte, Metadata, error) {
	if strings.TrimSpace(s.format) == "" {
		return nil, Metadata{}, fmt.Errorf("StringSource: format is empty")
	}
	return []byte(s.content), Metadata{Format: s.format, Source: "string"}, nil
}
