package gestalt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ApolloNotificationReloadStrategy 使用 Apollo 的 /notifications/v2 长轮询接口。
//
// 服务端在 namespace 没有变化时会挂起请求约 60 秒后返回 304；
// 有变化时返回变化的 namespace 及新的 notificationId。
// 第一次请求只用于获取当前的 notificationId，不会触发通知。
type ApolloNotificationReloadStrategy struct {
	strategyBase

	source *ApolloSource
	client *http.Client

	// notificationId，初始为 -1
	ids map[string]int64
}

var _ ReloadStrategy = (*ApolloNotificationReloadStrategy)(nil)

type apolloNotification struct {
	NamespaceName  string `json:"namespaceName"`
	NotificationID int64  `json:"notificationId"`
}

// NewApolloNotificationReloadStrategy client 为 nil 时使用 70 秒超时的默认 client。
func NewApolloNotificationReloadStrategy(src *ApolloSource, client *http.Client) *ApolloNotificationReloadStrategy {
	if client == nil {
		client = &http.Client{Timeout: 70 * time.Second}
	}
	ids := make(map[string]int64)
	if src != nil {
		for _, ns := range src.namespaces {
			ids[ns.Name] = -1
		}
	}
	return &ApolloNotificationReloadStrategy{
		strategyBase: newStrategyBase(),
		source:       src,
		client:       client,
		ids:          ids,
	}
}

func (s *ApolloNotificationReloadStrategy) Source() Source { return s.source }

// Start 开始长轮询，阻塞直到 ctx 取消。请求失败时按指数退避等待后重试。
func (s *ApolloNotificationReloadStrategy) Start(ctx context.Context) error {
	if s.source == nil || s.source.baseURL == "" {
		return fmt.Errorf("ApolloNotificationReloadStrategy: source is nil or has no base url")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	initialized := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		changes, err := s.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := b.NextBackOff()
			s.logger.Warn().
				Err(err).
				Str("event", "gestalt.reload.apollo.failed").
				Dur("retry_in", wait).
				Msg("apollo notification poll failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		b.Reset()

		if len(changes) == 0 {
			continue
		}
		for _, c := range changes {
			s.ids[c.NamespaceName] = c.NotificationID
		}
		if !initialized {
			initialized = true
			continue
		}
		s.logger.Debug().
			Str("event", "gestalt.reload.apollo.changed").
			Int("namespaces", len(changes)).
			Msg("apollo namespaces changed")
		s.notify(s.source)
	}
}

// poll 发起一次长轮询请求，304 返回空列表。
func (s *ApolloNotificationReloadStrategy) poll(ctx context.Context) ([]apolloNotification, error) {
	list := make([]apolloNotification, 0, len(s.source.namespaces))
	for _, ns := range s.source.namespaces {
		list = append(list, apolloNotification{NamespaceName: ns.Name, NotificationID: s.ids[ns.Name]})
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal notifications failed: %w", err)
	}

	q := url.Values{}
	q.Set("appId", s.source.appID)
	q.Set("cluster", s.source.cluster)
	q.Set("notifications", string(payload))
	u := s.source.baseURL + "/notifications/v2?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	var changes []apolloNotification
	if err := json.Unmarshal(body, &changes); err != nil {
		return nil, fmt.Errorf("parse notifications failed: %w", err)
	}
	return changes, nil
}
