package gestalt

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// PollingReloadStrategy 周期性调用 Source.Load，内容变化时通知监听器。
// 适用于没有推送机制的 Source，例如 HTTP、Redis、Apollo。
//
// 单次加载失败会按指数退避重试，重试耗尽后等待下一个周期，不会退出。
type PollingReloadStrategy struct {
	strategyBase

	source  Source
	period  time.Duration
	retries uint64
}

var _ ReloadStrategy = (*PollingReloadStrategy)(nil)

// NewPollingReloadStrategy period 表示每隔多久拉取一次配置。
func NewPollingReloadStrategy(src Source, period time.Duration) *PollingReloadStrategy {
	return &PollingReloadStrategy{
		strategyBase: newStrategyBase(),
		source:       src,
		period:       period,
		retries:      3,
	}
}

// WithRetries 设置单个周期内加载失败的重试次数，默认 3 次。
func (s *PollingReloadStrategy) WithRetries(n uint64) *PollingReloadStrategy {
	s.retries = n
	return s
}

func (s *PollingReloadStrategy) Source() Source { return s.source }

// Start 启动轮询，阻塞直到 ctx 取消。
// 启动时先加载一次作为基准，之后只在内容变化时通知。
func (s *PollingReloadStrategy) Start(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("PollingReloadStrategy: source is nil")
	}
	if s.period <= 0 {
		return fmt.Errorf("PollingReloadStrategy: period must be positive, got %s", s.period)
	}

	last, _, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", "gestalt.reload.poll.failed").
			Str("source", s.source.ID()).
			Msg("initial load failed")
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var data []byte
			err := retry(ctx, s.retries, func() error {
				var err error
				data, _, err = s.source.Load(ctx)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn().
					Err(err).
					Str("event", "gestalt.reload.poll.failed").
					Str("source", s.source.ID()).
					Msg("load failed, waiting for next period")
				continue
			}
			if last != nil && bytes.Equal(last, data) {
				continue
			}
			last = data
			s.notify(s.source)
		}
	}
}
