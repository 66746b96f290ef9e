package node

import (
	"github.com/lifei6671/go-gestalt/entity"
)

// mergeNodes 合并两个节点，n2 的优先级高于 n1。
//   - 类型不同：无法合并，返回错误
//   - map：并集，两边都有的 key 递归合并
//   - array：按下标合并，长度取两者最大值
//   - leaf：n2 有值取 n2，否则取 n1
func mergeNodes(path string, n1, n2 ConfigNode) entity.Validated[ConfigNode] {
	if n1 == nil || n2 == nil || n1.Type() != n2.Type() {
		return entity.Invalid[ConfigNode](entity.UnableToMergeDifferentNodesError{
			Path: path, Original: TypeName(n1), Incoming: TypeName(n2),
		})
	}

	switch v1 := n1.(type) {
	case *ArrayNode:
		v2, ok := n2.(*ArrayNode)
		if !ok {
			break
		}
		return mergeArrayNodes(path, v1, v2)
	case *MapNode:
		v2, ok := n2.(*MapNode)
		if !ok {
			break
		}
		return mergeMapNodes(path, v1, v2)
	case *LeafNode:
		return mergeLeafNodes(path, v1, n2)
	}
	return entity.Invalid[ConfigNode](entity.UnknownNodeTypeError{Path: path, Type: TypeName(n1)})
}

func mergeArrayNodes(path string, a1, a2 *ArrayNode) entity.Validated[ConfigNode] {
	size := max(a1.Size(), a2.Size())
	values := make([]ConfigNode, size)
	var errs []entity.ValidationError

	for i := 0; i < size; i++ {
		v1, ok1 := a1.Index(i)
		v2, ok2 := a2.Index(i)
		switch {
		case ok1 && ok2:
			ret := mergeNodes(PathForIndex(path, i), v1, v2)
			errs = append(errs, ret.Errors()...)
			if ret.HasResults() {
				values[i] = ret.Results()
			} else {
				errs = append(errs, entity.NoResultsFoundForNodeError{Path: path, Type: "ArrayNode", Area: "merging arrays"})
			}
		case ok1:
			values[i] = v1
		case ok2:
			values[i] = v2
		default:
			errs = append(errs, entity.ArrayMissingIndexError{Index: i, Path: path})
		}
	}
	return entity.Of[ConfigNode](NewArrayNode(values), true, errs)
}

func mergeMapNodes(path string, m1, m2 *MapNode) entity.Validated[ConfigNode] {
	merged := make(map[string]ConfigNode, max(m1.Size(), m2.Size()))
	var errs []entity.ValidationError

	for _, key := range m1.Keys() {
		v1 := m1.values[key]
		switch {
		case key == "":
			errs = append(errs, entity.EmptyNodeNameError{Path: path})
		case v1 == nil:
			errs = append(errs, entity.EmptyNodeValueError{Path: path, Key: key})
		default:
			v2, ok := m2.Key(key)
			if !ok {
				merged[key] = v1
				continue
			}
			ret := mergeNodes(PathForKey(path, key), v1, v2)
			errs = append(errs, ret.Errors()...)
			if ret.HasResults() {
				merged[key] = ret.Results()
			} else {
				errs = append(errs, entity.NoResultsFoundForNodeError{Path: path, Type: "MapNode", Area: "merging maps"})
			}
		}
	}

	// 第二遍只补充 m2 独有的 key
	for _, key := range m2.Keys() {
		v2 := m2.values[key]
		switch {
		case key == "":
			errs = append(errs, entity.EmptyNodeNameError{Path: path})
		case v2 == nil:
			errs = append(errs, entity.EmptyNodeValueError{Path: path, Key: key})
		default:
			if _, exists := m1.values[key]; !exists {
				merged[key] = v2
			}
		}
	}
	return entity.Of[ConfigNode](NewMapNode(merged), true, errs)
}

func mergeLeafNodes(path string, l1 *LeafNode, n2 ConfigNode) entity.Validated[ConfigNode] {
	if _, ok := n2.Value(); ok {
		return entity.Valid(n2)
	}
	if _, ok := l1.Value(); ok {
		return entity.Valid[ConfigNode](l1)
	}
	return entity.Invalid[ConfigNode](entity.LeafNodesHaveNoValuesError{Path: path})
}

// validateNode 检查整棵树的完整性：空 key、nil 值、叶子无值、数组空洞。
func validateNode(path string, n ConfigNode) []entity.ValidationError {
	switch v := n.(type) {
	case *ArrayNode:
		var errs []entity.ValidationError
		for i := 0; i < v.Size(); i++ {
			child, ok := v.Index(i)
			if !ok {
				errs = append(errs, entity.ArrayMissingIndexError{Index: i, Path: path})
				continue
			}
			errs = append(errs, validateNode(PathForIndex(path, i), child)...)
		}
		return errs
	case *MapNode:
		var errs []entity.ValidationError
		for _, key := range v.Keys() {
			child := v.values[key]
			switch {
			case key == "":
				errs = append(errs, entity.EmptyNodeNameError{Path: path})
			case child == nil:
				errs = append(errs, entity.EmptyNodeValueError{Path: path, Key: key})
			default:
				errs = append(errs, validateNode(PathForKey(path, key), child)...)
			}
		}
		return errs
	case *LeafNode:
		if v == nil {
			return []entity.ValidationError{entity.LeafNodesIsNilError{Path: path}}
		}
		if _, ok := v.Value(); !ok {
			return []entity.ValidationError{entity.LeafNodesHaveNoValuesError{Path: path}}
		}
		return nil
	default:
		return []entity.ValidationError{entity.UnknownNodeTypeError{Path: path, Type: TypeName(n)}}
	}
}
