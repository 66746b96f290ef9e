package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// 内置格式名
const (
	FormatJSON       = "json"
	FormatJSONC      = "jsonc"
	FormatYAML       = "yaml"
	FormatTOML       = "toml"
	FormatProperties = "properties"
	FormatDotEnv     = "env"
	FormatMap        = "mapConfig"
)

// NormalizeFormat 将用户传入的 format 统一为内部使用的标准格式名。
//  1. 去掉前后空格，并转为小写
//  2. 将别名（yml、props、dotenv）归一
func NormalizeFormat(format string) string {
	f := strings.TrimSpace(format)
	if f == FormatMap {
		return f
	}
	f = strings.ToLower(f)
	switch f {
	case "yml":
		return FormatYAML
	case "props":
		return FormatProperties
	case "dotenv":
		return FormatDotEnv
	case "mapconfig":
		return FormatMap
	default:
		return f
	}
}

// FormatFromPath 根据文件扩展名推断格式。
// ".env" 这类没有主名的文件同样按扩展名处理。
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(path)))
	if ext == "" {
		return "", fmt.Errorf("cannot detect format from path %q: missing file extension", path)
	}

	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".properties", ".props":
		return FormatProperties, nil
	case ".env":
		return FormatDotEnv, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q in path %q", ext, path)
	}
}

// FormatFromContentType 根据 HTTP Content-Type 推断格式。
func FormatFromContentType(ct string) (string, bool) {
	ct = strings.ToLower(ct)
	if i := strings.Index(ct, ";"); i >= 0 {
		// 去掉 charset 等参数
		ct = ct[:i]
	}

	switch strings.TrimSpace(ct) {
	case "application/json":
		return FormatJSON, true
	case "application/x-yaml", "application/yaml", "text/yaml", "text/x-yaml":
		return FormatYAML, true
	case "application/toml", "text/x-toml":
		return FormatTOML, true
	case "text/x-java-properties":
		return FormatProperties, true
	default:
		return "", false
	}
}
