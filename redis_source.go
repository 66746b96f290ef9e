package gestalt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifei6671/go-gestalt/loader"
)

// RedisSource 读取 Redis 中一个 string key 的值作为配置内容。
//
//	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	src := NewRedisSource(rdb, "configs:app.yaml")
//
// 若 key 是 hash，使用 WithRedisSourceHash，字段名即配置路径，输出 mapConfig。
type RedisSource struct {
	id          string
	cli         redis.UniversalClient
	key         string
	format      string
	name        string
	hash        bool
	readTimeout time.Duration
}

var _ Source = (*RedisSource)(nil)

// RedisSourceOption 用于配置 RedisSource。
type RedisSourceOption func(*RedisSource)

// WithRedisSourceFormat 显式指定配置格式，不指定时按 key 后缀推断。
func WithRedisSourceFormat(format string) RedisSourceOption {
	return func(rs *RedisSource) {
		if format == "" {
			return
		}
		rs.format = loader.NormalizeFormat(format)
	}
}

func WithRedisSourceName(name string) RedisSourceOption {
	return func(rs *RedisSource) {
		if strings.TrimSpace(name) == "" {
			return
		}
		rs.name = name
	}
}

// WithRedisSourceHash 将 key 作为 hash 读取（HGETALL）。
func WithRedisSourceHash() RedisSourceOption {
	return func(rs *RedisSource) {
		rs.hash = true
	}
}

func WithRedisSourceReadTimeout(d time.Duration) RedisSourceOption {
	return func(rs *RedisSource) {
		if d > 0 {
			rs.readTimeout = d
		}
	}
}

// NewRedisSource 创建一个基于 Redis 的配置源，cli 由调用方负责关闭。
func NewRedisSource(cli redis.UniversalClient, key string, opts ...RedisSourceOption) *RedisSource {
	rs := &RedisSource{
		id:          newSourceID(),
		cli:         cli,
		key:         strings.TrimSpace(key),
		readTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.name == "" {
		rs.name = "redis:" + rs.key
	}
	return rs
}

func (rs *RedisSource) ID() string { return rs.id }

// Load 实现 Source 接口。
func (rs *RedisSource) Load(ctx context.Context) ([]byte, Metadata, error) {
	if rs.cli == nil {
		return nil, Metadata{}, fmt.Errorf("RedisSource: client is nil")
	}
	if rs.key == "" {
		return nil, Metadata{}, fmt.Errorf("RedisSource: key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, rs.readTimeout)
	defer cancel()

	if rs.hash {
		return rs.loadHash(ctx)
	}

	data, err := rs.cli.Get(ctx, rs.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, Metadata{}, fmt.Errorf("RedisSource: key %q not found", rs.key)
	}
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("RedisSource: get key %q failed: %w", rs.key, err)
	}

	format := rs.format
	if format == "" {
		f, err := loader.FormatFromPath(rs.key)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("RedisSource: detect format from key %q failed: %w", rs.key, err)
		}
		format = f
	}
	return data, Metadata{Format: format, Source: rs.name}, nil
}

func (rs *RedisSource) loadHash(ctx context.Context) ([]byte, Metadata, error) {
	fields, err := rs.cli.HGetAll(ctx, rs.key).Result()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("RedisSource: hgetall key %q failed: %w", rs.key, err)
	}
	if len(fields) == 0 {
		return nil, Metadata{}, fmt.Errorf("RedisSource: key %q not found", rs.key)
	}
	data, err := loader.EncodeMap(fields)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("RedisSource: %w", err)
	}
	return data, Metadata{Format: loader.FormatMap, Source: rs.name}, nil
}
