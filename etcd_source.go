package gestalt

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lifei6671/go-gestalt/loader"
)

// EtcdSource 将 etcd 中某个 key 的值作为一份配置数据来源。
//
// Source 只负责“读一次”，watch 由 EtcdReloadStrategy 完成。
//
//	cli, err := clientv3.New(clientv3.Config{
//	    Endpoints:   []string{"127.0.0.1:2379"},
//	    DialTimeout: 5 * time.Second,
//	})
//	src := NewEtcdSource(cli, "/configs/app.yaml")
type EtcdSource struct {
	id     string
	cli    *clientv3.Client
	key    string
	format string
	name   string

	// 读操作的超时时间，避免 etcd 请求永久阻塞，默认 3 秒。
	readTimeout time.Duration
}

var _ Source = (*EtcdSource)(nil)

// EtcdSourceOption 用于配置 EtcdSource。
type EtcdSourceOption func(*EtcdSource)

// WithEtcdSourceFormat 显式指定配置格式。
// 不指定时根据 key 的后缀推断：/config/app.json => json。
func WithEtcdSourceFormat(format string) EtcdSourceOption {
	return func(es *EtcdSource) {
		if format == "" {
			return
		}
		es.format = loader.NormalizeFormat(format)
	}
}

// WithEtcdSourceName 设置该 Source 的逻辑名称，用于 Metadata.Source。
func WithEtcdSourceName(name string) EtcdSourceOption {
	return func(es *EtcdSource) {
		if strings.TrimSpace(name) == "" {
			return
		}
		es.name = name
	}
}

// WithEtcdSourceReadTimeout 设置 etcd Get 操作的超时时间。
func WithEtcdSourceReadTimeout(d time.Duration) EtcdSourceOption {
	return func(es *EtcdSource) {
		if d <= 0 {
			return
		}
		es.readTimeout = d
	}
}

// NewEtcdSource 创建一个基于 etcd 的配置源。
// cli 由调用方负责创建和关闭。
func NewEtcdSource(cli *clientv3.Client, key string, opts ...EtcdSourceOption) *EtcdSource {
	es := &EtcdSource{
		id:          newSourceID(),
		cli:         cli,
		key:         strings.TrimSpace(key),
		readTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(es)
	}
	if es.name == "" {
		es.name = es.key
	}
	return es
}

func (es *EtcdSource) ID() string { return es.id }

// Key 返回 etcd key，EtcdReloadStrategy 使用它建立 watch。
func (es *EtcdSource) Key() string { return es.key }

// Client 返回 etcd 客户端。
func (es *EtcdSource) Client() *clientv3.Client { return es.cli }

// Load 实现 Source 接口：从 etcd 读取一个 key 的 value 作为配置内容。
func (es *EtcdSource) Load(ctx context.Context) ([]byte, Metadata, error) {
	if es.cli == nil {
		return nil, Metadata{}, fmt.Errorf("EtcdSource: client is nil")
	}
	if es.key == "" {
		return nil, Metadata{}, fmt.Errorf("EtcdSource: key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, es.readTimeout)
	defer cancel()

	resp, err := es.cli.Get(ctx, es.key)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("EtcdSource: get key %q failed: %w", es.key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, Metadata{}, fmt.Errorf("EtcdSource: key %q not found", es.key)
	}

	kv := resp.Kvs[len(resp.Kvs)-1]

	format := es.format
	if format == "" {
		f, err := loader.FormatFromPath(es.key)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("EtcdSource: detect format from key %q failed: %w", es.key, err)
		}
		format = f
	}

	return kv.Value, Metadata{Format: format, Source: es.name}, nil
}
