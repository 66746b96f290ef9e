package gestalt

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lifei6671/go-gestalt/loader"
)

// FileSource 是基于本地文件或任意 fs.FS 的配置源实现。
//
// FileSource 不关心文件内容如何解析，只负责：
//  1. 打开文件并读取到内存（[]byte）
//  2. 根据文件扩展名推断配置格式
//
// FileSource 创建后字段不再修改，可以在多个 goroutine 中并发调用 Load()。
type FileSource struct {
	id string

	// path 是在 fs.FS 中的相对路径（或直接是操作系统路径）。
	path string

	// format 为空时在 Load() 时根据文件扩展名自动推断。
	format string

	// fsys 为 nil 时使用 os.ReadFile 直接从本地文件系统读取。
	fsys fs.FS

	// name 用于 Metadata.Source，默认使用 path。
	name string
}

var _ Source = (*FileSource)(nil)

// FileSourceOption 用于在 NewFileSource 中配置 FileSource 的可选参数。
type FileSourceOption func(*FileSource)

// WithFileSourceFormat 指定文件的配置格式。
// 当文件没有后缀或者后缀不可信时，可以显式指定。
func WithFileSourceFormat(format string) FileSourceOption {
	return func(fs *FileSource) {
		if format == "" {
			return
		}
		fs.format = loader.NormalizeFormat(format)
	}
}

// WithFileSourceFS 指定文件系统实现，例如 os.DirFS("config")、embed.FS、fstest.MapFS。
func WithFileSourceFS(fsys fs.FS) FileSourceOption {
	return func(fs *FileSource) {
		fs.fsys = fsys
	}
}

// WithFileSourceName 指定该 Source 的展示名称，用于 Metadata.Source。
func WithFileSourceName(name string) FileSourceOption {
	return func(fs *FileSource) {
		if strings.TrimSpace(name) == "" {
			return
		}
		fs.name = name
	}
}

// NewFileSource 创建一个基于文件的配置源。
//
//	src := NewFileSource("config/app.yaml")
//	src := NewFileSource("app.yaml", WithFileSourceFS(os.DirFS("config")))
//	src := NewFileSource("config/app", WithFileSourceFormat("yaml"))
func NewFileSource(path string, opts ...FileSourceOption) *FileSource {
	source := &FileSource{
		id:   newSourceID(),
		path: strings.TrimSpace(path),
	}
	for _, opt := range opts {
		opt(source)
	}
	if source.name == "" {
		source.name = source.path
	}
	return source
}

func (f *FileSource) ID() string { return f.id }

// Path 返回文件路径。
func (f *FileSource) Path() string { return f.path }

// Load 实现 Source 接口。
func (f *FileSource) Load(_ context.Context) ([]byte, Metadata, error) {
	if f.path == "" {
		return nil, Metadata{}, fmt.Errorf("FileSource: path is empty")
	}

	data, err := f.readFile()
	if err != nil {
		return nil, Metadata{}, err
	}

	format := f.format
	if format == "" {
		format, err = loader.FormatFromPath(f.path)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("FileSource: %w", err)
		}
	}

	return data, Metadata{Format: format, Source: f.name}, nil
}

func (f *FileSource) readFile() ([]byte, error) {
	if f.fsys == nil {
		b, err := os.ReadFile(filepath.Clean(f.path))
		if err != nil {
			return nil, fmt.Errorf("FileSource: read file %q failed: %w", f.path, err)
		}
		return b, nil
	}

	file, err := f.fsys.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("FileSource: open file %q from fs.FS failed: %w", f.path, err)
	}
	defer file.Close()

	b, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("FileSource: read file %q from fs.FS failed: %w", f.path, err)
	}
	return b, nil
}
