// Package postprocess 在所有 source 合并完成后对节点树做二次处理，
// 例如把 "${env:DB_HOST}" 这类占位符替换为实际值。
package postprocess

import (
	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/node"
)

// PostProcessor 处理单个节点并返回新的节点。
// 节点管理器会按深度优先顺序对每个节点调用 Process。
type PostProcessor interface {
	Process(path string, n node.ConfigNode) entity.Validated[node.ConfigNode]
}

var _ node.Processor = (PostProcessor)(nil)

// Transformer 根据 key 提供替换值，Name 是占位符中使用的名称。
type Transformer interface {
	Name() string
	Process(path, key string) entity.Validated[string]
}

// AsProcessors 将 PostProcessor 转为 node.Processor 列表。
func AsProcessors(pps []PostProcessor) []node.Processor {
	out := make([]node.Processor, len(pps))
	for i, p := range pps {
		out[i] = p
	}
	return out
}
