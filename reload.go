package gestalt

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// ReloadListener 在某个 Source 发生变化时被 ReloadStrategy 调用。
type ReloadListener interface {
	Reload(src Source)
}

// CoreReloadListener 在配置树重新加载完成后被调用。
type CoreReloadListener interface {
	Reload()
}

// ReloadStrategy 监听一个 Source 的变化并通知监听器。
// Start 是阻塞的，ctx 取消后返回 nil；只有初始化失败时才返回错误。
type ReloadStrategy interface {
	Source() Source
	RegisterListener(l ReloadListener)
	RemoveListener(l ReloadListener)
	Start(ctx context.Context) error
}

// listenerSet 并发安全的监听器列表，按 == 判断是否为同一个监听器。
type listenerSet[T comparable] struct {
	mu    sync.RWMutex
	items []T
}

func (s *listenerSet[T]) add(l T) {
	s.mu.Lock()
	s.items = append(s.items, l)
	s.mu.Unlock()
}

func (s *listenerSet[T]) remove(l T) {
	s.mu.Lock()
	s.items = slices.DeleteFunc(s.items, func(item T) bool { return item == l })
	s.mu.Unlock()
}

func (s *listenerSet[T]) snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// strategyBase 嵌入到各个 ReloadStrategy 中，提供 RegisterListener / RemoveListener。
// 没有显式设置 logger 时，由 Gestalt 在启动前注入自己的 logger。
type strategyBase struct {
	set       listenerSet[ReloadListener]
	logger    zerolog.Logger
	hasLogger bool
}

func newStrategyBase() strategyBase {
	return strategyBase{logger: zerolog.Nop()}
}

func (r *strategyBase) setLogger(logger zerolog.Logger) {
	r.logger = logger
	r.hasLogger = true
}

func (r *strategyBase) useLogger(logger zerolog.Logger) {
	if !r.hasLogger {
		r.logger = logger
	}
}

func (r *strategyBase) RegisterListener(l ReloadListener) {
	if l != nil {
		r.set.add(l)
	}
}

func (r *strategyBase) RemoveListener(l ReloadListener) {
	r.set.remove(l)
}

func (r *strategyBase) notify(src Source) {
	for _, l := range r.set.snapshot() {
		l.Reload(src)
	}
}
