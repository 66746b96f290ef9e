package gestalt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// DefaultMaxBodySize 远程 Source 默认允许的最大响应体，16MiB。
const DefaultMaxBodySize int64 = 16 << 20

// ErrBodyTooLarge 远程 Source 的响应体超过了上限
var ErrBodyTooLarge = errors.New("gestalt: response body too large")

// Metadata 描述一次 Load 返回的数据。
type Metadata struct {
	Format string // "json" | "yaml" | "toml" | "properties" | "env" | "mapConfig" ...
	Source string // 文件路径、URL、标识符等
}

// Source 用于提供原始配置内容。
// 可以是文件、环境变量、内存 map、etcd、Redis、HTTP、Apollo 等。
type Source interface {
	// ID 在进程内唯一，reload 时用它找到需要替换的节点树
	ID() string
	// Load 返回该 Source 的配置字节和元数据（格式等）
	Load(ctx context.Context) ([]byte, Metadata, error)
}

func newSourceID() string {
	return uuid.NewString()
}

// readLimited 读取至多 limit 字节，超出时返回 ErrBodyTooLarge。
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, limit)
	}
	return b, nil
}
