package gestalt

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdReloadStrategy watch EtcdSource 的 key，PUT/DELETE 事件都会触发通知。
type EtcdReloadStrategy struct {
	strategyBase

	source *EtcdSource
}

var _ ReloadStrategy = (*EtcdReloadStrategy)(nil)

func NewEtcdReloadStrategy(src *EtcdSource) *EtcdReloadStrategy {
	return &EtcdReloadStrategy{strategyBase: newStrategyBase(), source: src}
}

func (s *EtcdReloadStrategy) Source() Source { return s.source }

// Start 开始监听 etcd key 的变化，阻塞直到 ctx 取消或 watch 出错。
func (s *EtcdReloadStrategy) Start(ctx context.Context) error {
	if s.source == nil || s.source.cli == nil {
		return fmt.Errorf("EtcdReloadStrategy: client is nil")
	}
	if s.source.key == "" {
		return fmt.Errorf("EtcdReloadStrategy: key is empty")
	}

	// 从初始读取之后的 revision 开始 watch
	initCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	resp, err := s.source.cli.Get(initCtx, s.source.key)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("EtcdReloadStrategy: initial get key %q failed: %w", s.source.key, err)
	}

	ctx, stop := context.WithCancel(clientv3.WithRequireLeader(ctx))
	defer stop()
	ch := s.source.cli.Watch(ctx, s.source.key, clientv3.WithRev(resp.Header.Revision+1))

	for {
		select {
		case <-ctx.Done():
			return nil

		case wr, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("EtcdReloadStrategy: watch channel closed")
			}
			if err := wr.Err(); err != nil {
				return fmt.Errorf("EtcdReloadStrategy: watch error: %w", err)
			}
			if len(wr.Events) > 0 {
				s.logger.Debug().
					Str("event", "gestalt.reload.etcd.changed").
					Str("key", s.source.key).
					Int("events", len(wr.Events)).
					Msg("etcd key changed")
				s.notify(s.source)
			}
		}
	}
}
