package gestalt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileChangeReloadStrategy 监听 FileSource 对应的文件，文件变化后通知监听器。
//
// 监听的是文件所在的目录，因此编辑器的原子保存（写临时文件再 rename）
// 以及 Kubernetes ConfigMap 的 ..data 软链切换都能被感知。
// 短时间内的多次事件会被合并为一次通知。
type FileChangeReloadStrategy struct {
	strategyBase

	source   *FileSource
	debounce time.Duration
}

var _ ReloadStrategy = (*FileChangeReloadStrategy)(nil)

// FileChangeOption 用于配置 FileChangeReloadStrategy。
type FileChangeOption func(*FileChangeReloadStrategy)

// WithFileChangeDebounce 设置事件合并窗口，默认 100ms。
func WithFileChangeDebounce(d time.Duration) FileChangeOption {
	return func(s *FileChangeReloadStrategy) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func WithFileChangeLogger(logger zerolog.Logger) FileChangeOption {
	return func(s *FileChangeReloadStrategy) {
		s.setLogger(logger)
	}
}

// NewFileChangeReloadStrategy 只支持本地文件系统上的 FileSource。
func NewFileChangeReloadStrategy(src *FileSource, opts ...FileChangeOption) (*FileChangeReloadStrategy, error) {
	if src == nil {
		return nil, fmt.Errorf("FileChangeReloadStrategy: source is nil")
	}
	if src.fsys != nil {
		return nil, fmt.Errorf("FileChangeReloadStrategy: source %q is backed by fs.FS and cannot be watched", src.name)
	}
	s := &FileChangeReloadStrategy{
		strategyBase: newStrategyBase(),
		source:       src,
		debounce:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FileChangeReloadStrategy) Source() Source { return s.source }

// Start 开始监听，阻塞直到 ctx 取消。
func (s *FileChangeReloadStrategy) Start(ctx context.Context) error {
	target, err := filepath.Abs(s.source.path)
	if err != nil {
		return fmt.Errorf("FileChangeReloadStrategy: resolve path %q failed: %w", s.source.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("FileChangeReloadStrategy: create watcher failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("FileChangeReloadStrategy: watch %q failed: %w", filepath.Dir(target), err)
	}

	realPath, _ := filepath.EvalSymlinks(target)
	s.logger.Debug().
		Str("event", "gestalt.reload.file.started").
		Str("path", target).
		Msg("watching config file for changes")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(ev, target, &realPath) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			s.logger.Debug().
				Str("event", "gestalt.reload.file.changed").
				Str("path", target).
				Msg("config file changed")
			s.notify(s.source)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().
				Err(err).
				Str("event", "gestalt.reload.file.error").
				Msg("config watcher error")
		}
	}
}

// relevant 判断事件是否影响目标文件：目标文件本身被写入或创建，
// 或者目标路径经过软链解析后指向了新的文件。
func (s *FileChangeReloadStrategy) relevant(ev fsnotify.Event, target string, realPath *string) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Clean(ev.Name) == target && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
		return true
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil || resolved == *realPath {
		return false
	}
	*realPath = resolved
	return true
}
