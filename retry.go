package gestalt

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
)

func newRetryBackoff(ctx context.Context, maxRetries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// retry 执行 op，失败时按指数退避重试 maxRetries 次。
// 使用 backoff.Permanent 包装的错误不会重试。
func retry(ctx context.Context, maxRetries uint64, op func() error) error {
	if maxRetries == 0 {
		return unwrapPermanent(op())
	}
	return backoff.Retry(op, newRetryBackoff(ctx, maxRetries))
}

func unwrapPermanent(err error) error {
	var p *backoff.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
