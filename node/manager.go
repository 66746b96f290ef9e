package node

import (
	"errors"
	"slices"
	"sync"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
)

// ErrNoNode AddNode/ReloadNode 没有传入节点
var ErrNoNode = errors.New("no node provided")

// Container 将一个 source 的 ID 与它生成的节点树绑定。
// reload 时通过 ID 找到需要替换的节点。
type Container struct {
	ID   string
	Node ConfigNode
}

// Processor 对单个节点做后处理，返回处理后的节点。
// postprocess 包中的所有 PostProcessor 都满足该接口。
type Processor interface {
	Process(path string, n ConfigNode) entity.Validated[ConfigNode]
}

// Service 管理所有 source 的节点树，并维护合并后的根节点。
type Service interface {
	AddNode(c Container) (entity.Validated[ConfigNode], error)
	ReloadNode(c Container) (entity.Validated[ConfigNode], error)
	PostProcess(processors []Processor) entity.Validated[ConfigNode]
	NavigateToNode(path string, tokens []lexer.Token) entity.Validated[ConfigNode]
	NavigateToNextNode(path string, token lexer.Token, current ConfigNode) entity.Validated[ConfigNode]
	Root() (ConfigNode, bool)
}

var _ Service = (*Manager)(nil)

// Manager 是 Service 的默认实现。
// 后添加的节点会覆盖先添加的同名叶子节点。
type Manager struct {
	mu         sync.RWMutex
	containers []Container
	root       ConfigNode
}

func NewManager() *Manager {
	return &Manager{}
}

// Root 返回当前合并后的根节点。
func (m *Manager) Root() (ConfigNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root, m.root != nil
}

// Containers 返回按添加顺序排列的 container 副本。
func (m *Manager) Containers() []Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.containers)
}

// AddNode 添加一个 source 的节点树并与当前根节点合并。
func (m *Manager) AddNode(c Container) (entity.Validated[ConfigNode], error) {
	if c.Node == nil {
		return entity.Validated[ConfigNode]{}, ErrNoNode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []entity.ValidationError
	m.containers = append(m.containers, c)

	if m.root == nil {
		m.root = c.Node
	} else {
		merged := mergeNodes("", m.root, c.Node)
		if merged.HasResults() {
			m.root = merged.Results()
		}
		errs = append(errs, merged.Errors()...)
	}

	errs = append(errs, validateNode("", m.root)...)
	return entity.Of(m.root, true, entity.Distinct(errs)), nil
}

// ReloadNode 用新的节点替换相同 ID 的 container，并按原始顺序重新合并所有节点。
func (m *Manager) ReloadNode(c Container) (entity.Validated[ConfigNode], error) {
	if c.Node == nil {
		return entity.Validated[ConfigNode]{}, ErrNoNode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		newRoot ConfigNode
		errs    []entity.ValidationError
	)
	for i, container := range m.containers {
		current := container.Node
		if container.ID == c.ID {
			m.containers[i] = c
			current = c.Node
		}

		if newRoot == nil {
			newRoot = current
			continue
		}
		merged := mergeNodes("", newRoot, current)
		errs = append(errs, merged.Errors()...)
		if merged.HasResults() {
			newRoot = merged.Results()
		} else {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: "", Type: TypeName(current), Area: "reload node"})
		}
	}

	if newRoot == nil {
		return entity.Validated[ConfigNode]{}, ErrNoNode
	}

	errs = append(errs, validateNode("", newRoot)...)
	m.root = newRoot
	return entity.Of(m.root, true, entity.Distinct(errs)), nil
}

// PostProcess 对整棵树依次执行所有后处理器。
// 每个后处理器处理的是上一个后处理器的输出；父节点先于子节点处理。
// 处理期间不持有锁，后处理器可以通过 NavigateToNode 读取处理前的树。
func (m *Manager) PostProcess(processors []Processor) entity.Validated[ConfigNode] {
	m.mu.RLock()
	root := m.root
	m.mu.RUnlock()

	if root == nil {
		return entity.Invalid[ConfigNode](entity.NilNodeForPathError{Path: ""})
	}
	if len(processors) == 0 {
		return entity.Valid(root)
	}

	ret := postProcess("", root, processors)
	if ret.HasResults() {
		m.mu.Lock()
		// 处理期间发生了 reload，以新的树为准
		if m.root == root {
			m.root = ret.Results()
		}
		m.mu.Unlock()
	}
	return ret
}

func postProcess(path string, n ConfigNode, processors []Processor) entity.Validated[ConfigNode] {
	current := n
	var errs []entity.ValidationError

	for _, p := range processors {
		processed := p.Process(path, current)
		errs = append(errs, processed.Errors()...)
		if processed.HasResults() {
			current = processed.Results()
		} else {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: path, Type: TypeName(n), Area: "post processing"})
		}
	}

	switch v := current.(type) {
	case *ArrayNode:
		ret := postProcessArray(path, v, processors)
		return entity.Of(ret.Results(), ret.HasResults(), append(errs, ret.Errors()...))
	case *MapNode:
		ret := postProcessMap(path, v, processors)
		return entity.Of(ret.Results(), ret.HasResults(), append(errs, ret.Errors()...))
	case *LeafNode:
		return entity.Of[ConfigNode](current, true, errs)
	default:
		return entity.Invalid[ConfigNode](entity.UnknownNodeTypeError{Path: path, Type: TypeName(current)})
	}
}

func postProcessArray(path string, n *ArrayNode, processors []Processor) entity.Validated[ConfigNode] {
	var errs []entity.ValidationError
	values := make([]ConfigNode, n.Size())

	for i := 0; i < n.Size(); i++ {
		child, ok := n.Index(i)
		if !ok {
			continue
		}
		ret := postProcess(PathForIndex(path, i), child, processors)
		errs = append(errs, ret.Errors()...)
		if ret.HasResults() {
			values[i] = ret.Results()
		} else {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: path, Type: "ArrayNode", Area: "post processing"})
		}
	}
	return entity.Of[ConfigNode](NewArrayNode(values), true, errs)
}

func postProcessMap(path string, n *MapNode, processors []Processor) entity.Validated[ConfigNode] {
	var errs []entity.ValidationError
	values := make(map[string]ConfigNode, n.Size())

	for _, key := range n.Keys() {
		child := n.values[key]
		if child == nil {
			continue
		}
		ret := postProcess(PathForKey(path, key), child, processors)
		errs = append(errs, ret.Errors()...)
		if ret.HasResults() {
			values[key] = ret.Results()
		} else {
			errs = append(errs, entity.NoResultsFoundForNodeError{Path: path, Type: "MapNode", Area: "post processing"})
		}
	}
	return entity.Of[ConfigNode](NewMapNode(values), true, errs)
}

// NavigateToNode 从根节点出发，按 tokens 逐级查找节点。
func (m *Manager) NavigateToNode(path string, tokens []lexer.Token) entity.Validated[ConfigNode] {
	m.mu.RLock()
	current := m.root
	m.mu.RUnlock()

	for _, token := range tokens {
		ret := m.NavigateToNextNode(path, token, current)
		if ret.HasErrors() || !ret.HasResults() {
			return entity.Invalid[ConfigNode](ret.Errors()...)
		}
		current = ret.Results()
	}

	if current == nil {
		return entity.Invalid[ConfigNode](entity.NilNodeForPathError{Path: path})
	}
	return entity.Valid(current)
}

// NavigateToNextNode 根据单个 token 从 current 前进一级。
func (m *Manager) NavigateToNextNode(path string, token lexer.Token, current ConfigNode) entity.Validated[ConfigNode] {
	if current == nil {
		return entity.Invalid[ConfigNode](entity.NilNodeForPathError{Path: path})
	}
	if token == nil {
		return entity.Invalid[ConfigNode](entity.NilTokenForPathError{Path: path})
	}

	switch t := token.(type) {
	case lexer.ArrayToken:
		if current.Type() != Array {
			return entity.Invalid[ConfigNode](entity.MismatchedObjectNodeForPathError{
				Path: path, Expected: "ArrayNode", Received: TypeName(current),
			})
		}
		next, ok := current.Index(t.Index)
		if !ok {
			return entity.Invalid[ConfigNode](entity.NoResultsFoundForNodeError{
				Path: path, Type: "ArrayToken", Area: "navigating to next node",
			})
		}
		return entity.Valid(next)

	case lexer.ObjectToken:
		if current.Type() != Map {
			return entity.Invalid[ConfigNode](entity.MismatchedObjectNodeForPathError{
				Path: path, Expected: "MapNode", Received: TypeName(current),
			})
		}
		next, ok := current.Key(t.Name)
		if !ok {
			return entity.Invalid[ConfigNode](entity.NoResultsFoundForNodeError{
				Path: path, Type: "ObjectToken", Area: "navigating to next node",
			})
		}
		return entity.Valid(next)

	default:
		return entity.Invalid[ConfigNode](entity.UnsupportedTokenTypeError{Path: path, Token: token})
	}
}
