package decoder

import (
	"errors"
	"reflect"
	"sort"
	"sync"

	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/node"
)

var (
	ErrNoDecoders    = errors.New("decoder registry: no decoders provided")
	ErrNoNodeService = errors.New("decoder registry: no config node service provided")
	ErrNoLexer       = errors.New("decoder registry: no lexer provided")
)

var _ Service = (*Registry)(nil)

// Registry 管理所有 Decoder，并负责为目标类型选择 Decoder。
type Registry struct {
	mu       sync.RWMutex
	decoders []Decoder
	nodes    node.Service
	lexer    lexer.SentenceLexer
}

func NewRegistry(decoders []Decoder, nodes node.Service, lex lexer.SentenceLexer) (*Registry, error) {
	if len(decoders) == 0 {
		return nil, ErrNoDecoders
	}
	if nodes == nil {
		return nil, ErrNoNodeService
	}
	if lex == nil {
		return nil, ErrNoLexer
	}
	return &Registry{
		decoders: append([]Decoder(nil), decoders...),
		nodes:    nodes,
		lexer:    lex,
	}, nil
}

// GetDecoders 返回已注册 Decoder 的副本。
func (r *Registry) GetDecoders() []Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Decoder(nil), r.decoders...)
}

// AddDecoders 追加 Decoder，优先级相同时先注册的优先。
func (r *Registry) AddDecoders(decoders ...Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders = append(r.decoders, decoders...)
}

func (r *Registry) matching(typ reflect.Type) []Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Decoder
	for _, d := range r.decoders {
		if d.Matches(typ) {
			matched = append(matched, d)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority() > matched[j].Priority()
	})
	return matched
}

// DecodeNode 实现 Service。
func (r *Registry) DecodeNode(path string, n node.ConfigNode, typ reflect.Type) entity.Validated[any] {
	if typ == nil {
		return entity.Invalid[any](entity.NoDecodersFoundError{Type: typeName(typ)})
	}
	matched := r.matching(typ)
	if len(matched) == 0 {
		return entity.Invalid[any](entity.NoDecodersFoundError{Type: typeName(typ)})
	}

	ret := matched[0].Decode(path, n, typ, r)
	if !ret.HasResults() || ret.Results() == nil {
		return ret
	}
	rv := reflect.ValueOf(ret.Results())
	if rv.Type() == typ {
		return ret
	}
	if converted, ok := convert(rv, typ); ok {
		return entity.Of[any](converted.Interface(), true, ret.Errors())
	}
	return ret
}

// GetNextNode 实现 Service：按 key 从 n 前进一级。
// key 会经过 lexer，因此 "hosts[0]" 这样的 key 同样可用。
func (r *Registry) GetNextNode(path, key string, n node.ConfigNode) entity.Validated[node.ConfigNode] {
	tokens := r.lexer.Scan(key)
	if !tokens.HasResults() {
		return entity.Invalid[node.ConfigNode](tokens.Errors()...)
	}

	current := n
	for _, token := range tokens.Results() {
		ret := r.nodes.NavigateToNextNode(path, token, current)
		if !ret.HasResults() {
			return ret
		}
		current = ret.Results()
	}
	return entity.Valid(current)
}
