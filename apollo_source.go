package gestalt

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lifei6671/go-gestalt/loader"
)

// ApolloNamespace 描述一个 Apollo namespace。
// Format 为空时视为 properties，即 configurations 本身就是扁平的键值对。
type ApolloNamespace struct {
	Name   string // e.g. "application", "db.yaml"
	Format string // properties/yaml/json/toml...
}

// ApolloSource 从 Apollo 配置中心拉取一个或多个 namespace 的配置。
//
//   - 多个 properties namespace 按声明顺序合并为一份 mapConfig，后面的覆盖前面的
//   - 单个 yaml/json 等 namespace 直接返回 configurations.content 的原文
//   - 拉取失败时使用该 namespace 最近一次成功的内容，从未成功过才返回错误
//
// 热更新使用 ApolloNotificationReloadStrategy 或 PollingReloadStrategy。
type ApolloSource struct {
	id string

	// Apollo 服务基础地址，例如 "http://apollo-server:8080"
	baseURL string
	appID   string
	cluster string

	namespaces []ApolloNamespace

	// nestByNamespace 为 true 时每个 namespace 的 key 都挂在 namespace 名下
	nestByNamespace bool

	client *http.Client
	name   string
	cache  *apolloCache

	maxBodySize int64
}

var _ Source = (*ApolloSource)(nil)

// apolloCache 按 namespace 保存最近一次成功拉取的 configurations。
type apolloCache struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func newApolloCache() *apolloCache {
	return &apolloCache{data: make(map[string]map[string]string)}
}

func (c *apolloCache) set(ns string, content map[string]string) {
	c.mu.Lock()
	c.data[ns] = content
	c.mu.Unlock()
}

func (c *apolloCache) get(ns string) (map[string]string, bool) {
	c.mu.RLock()
	b, ok := c.data[ns]
	c.mu.RUnlock()
	return b, ok
}

// ApolloSourceOption 用于配置 ApolloSource
type ApolloSourceOption func(*ApolloSource)

// WithApolloClient 注入自定义 http.Client
func WithApolloClient(client *http.Client) ApolloSourceOption {
	return func(a *ApolloSource) {
		if client != nil {
			a.client = client
		}
	}
}

// WithApolloMaxBodySize 设置单个 namespace 响应体的上限，默认 DefaultMaxBodySize。
func WithApolloMaxBodySize(n int64) ApolloSourceOption {
	return func(a *ApolloSource) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}

// WithApolloSourceName 设置 Source 的逻辑名称
func WithApolloSourceName(name string) ApolloSourceOption {
	return func(a *ApolloSource) {
		if strings.TrimSpace(name) != "" {
			a.name = strings.TrimSpace(name)
		}
	}
}

// WithApolloNamespaces 追加需要拉取的 namespace。
func WithApolloNamespaces(namespaces ...ApolloNamespace) ApolloSourceOption {
	return func(a *ApolloSource) {
		for _, ns := range namespaces {
			ns.Name = strings.TrimSpace(ns.Name)
			if ns.Name == "" {
				continue
			}
			ns.Format = loader.NormalizeFormat(ns.Format)
			a.namespaces = append(a.namespaces, ns)
		}
	}
}

// WithApolloNestByNamespace 把每个 namespace 的配置放到以 namespace 命名的子树下。
func WithApolloNestByNamespace(nest bool) ApolloSourceOption {
	return func(a *ApolloSource) {
		a.nestByNamespace = nest
	}
}

// NewApolloSource 构造 ApolloSource，namespace 为空时使用 "application"。
//
//	src := NewApolloSource("http://apollo:8080", "my-app", "default", "application")
func NewApolloSource(baseURL, appID, cluster, namespace string, opts ...ApolloSourceOption) *ApolloSource {
	a := &ApolloSource{
		id:      newSourceID(),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		appID:   strings.TrimSpace(appID),
		cluster: strings.TrimSpace(cluster),
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   newApolloCache(),

		maxBodySize: DefaultMaxBodySize,
	}
	if ns := strings.TrimSpace(namespace); ns != "" {
		a.namespaces = append(a.namespaces, ApolloNamespace{Name: ns})
	}
	for _, opt := range opts {
		opt(a)
	}
	if len(a.namespaces) == 0 {
		a.namespaces = []ApolloNamespace{{Name: "application"}}
	}
	if a.name == "" {
		names := make([]string, 0, len(a.namespaces))
		for _, ns := range a.namespaces {
			names = append(names, ns.Name)
		}
		a.name = fmt.Sprintf("apollo[%s:%s:%s]", a.appID, a.cluster, strings.Join(names, ","))
	}
	return a
}

func (a *ApolloSource) ID() string { return a.id }

// Namespaces 返回 namespace 列表的副本。
func (a *ApolloSource) Namespaces() []ApolloNamespace {
	return append([]ApolloNamespace(nil), a.namespaces...)
}

// Load 实现 Source 接口，通过 Apollo HTTP API 拉取配置
func (a *ApolloSource) Load(ctx context.Context) ([]byte, Metadata, error) {
	if a.baseURL == "" || a.appID == "" || a.cluster == "" {
		return nil, Metadata{}, fmt.Errorf("ApolloSource: missing parameters (BaseURL/AppID/Cluster)")
	}

	if len(a.namespaces) == 1 && !isApolloProperties(a.namespaces[0].Format) {
		ns := a.namespaces[0]
		configs, err := a.namespace(ctx, ns.Name)
		if err != nil {
			return nil, Metadata{}, err
		}
		return []byte(configs["content"]), Metadata{Format: ns.Format, Source: a.name}, nil
	}

	final := make(map[string]string)
	for _, ns := range a.namespaces {
		if !isApolloProperties(ns.Format) {
			return nil, Metadata{}, fmt.Errorf("ApolloSource: namespace %s with format %s cannot be combined with other namespaces", ns.Name, ns.Format)
		}
		configs, err := a.namespace(ctx, ns.Name)
		if err != nil {
			return nil, Metadata{}, err
		}
		for k, v := range configs {
			if a.nestByNamespace {
				k = strings.TrimSuffix(ns.Name, ".properties") + "." + k
			}
			final[k] = v
		}
	}

	data, err := loader.EncodeMap(final)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("ApolloSource: %w", err)
	}
	return data, Metadata{Format: loader.FormatMap, Source: a.name}, nil
}

func isApolloProperties(format string) bool {
	return format == "" || format == loader.FormatProperties
}

// namespace 拉取单个 namespace，失败时回退到缓存。
func (a *ApolloSource) namespace(ctx context.Context, ns string) (map[string]string, error) {
	configs, err := a.fetchNamespace(ctx, ns)
	if err != nil {
		if cached, ok := a.cache.get(ns); ok {
			return cached, nil
		}
		return nil, fmt.Errorf("ApolloSource: namespace %s load failed: %w", ns, err)
	}
	a.cache.set(ns, maps.Clone(configs))
	return configs, nil
}

// fetchNamespace 请求 {BaseURL}/configs/{appId}/{cluster}/{namespace}。
// 返回体结构：
//
//	{
//	  "appId": "...",
//	  "cluster": "...",
//	  "namespaceName": "...",
//	  "configurations": { "key1": "value1", ... },
//	  "releaseKey": "..."
//	}
func (a *ApolloSource) fetchNamespace(ctx context.Context, ns string) (map[string]string, error) {
	u := fmt.Sprintf("%s/configs/%s/%s/%s",
		a.baseURL, url.PathEscape(a.appID), url.PathEscape(a.cluster), url.PathEscape(ns))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := readLimited(resp.Body, a.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	var obj struct {
		Configurations map[string]string `json:"configurations"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("parse response JSON failed: %w", err)
	}
	if obj.Configurations == nil {
		obj.Configurations = map[string]string{}
	}
	return obj.Configurations, nil
}
