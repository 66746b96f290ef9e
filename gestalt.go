// Package gestalt 是一个多 source、按类型解码的配置库。
//
// 配置从多个 Source（文件、环境变量、etcd、Redis、HTTP、Apollo ...）加载，
// 经 Loader 解析为统一的节点树并按注册顺序合并，后注册的覆盖先注册的；
// 合并后执行占位符替换等后处理，再由 decoder 按目标类型解码：
//
//	g, err := gestalt.New(
//	    gestalt.WithSource(gestalt.NewFileSource("config/app.yaml")),
//	    gestalt.WithSource(gestalt.NewEnvSource(gestalt.WithEnvSourcePrefix("APP_"), gestalt.WithEnvSourceStripPrefix(true))),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := g.LoadConfigs(ctx); err != nil {
//	    return err
//	}
//	port, err := gestalt.GetConfig[int](g, "db.port")
package gestalt

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lifei6671/go-gestalt/decoder"
	"github.com/lifei6671/go-gestalt/entity"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/loader"
	"github.com/lifei6671/go-gestalt/node"
	"github.com/lifei6671/go-gestalt/postprocess"
)

// Gestalt 是整个配置系统的门面接口。
type Gestalt interface {
	// LoadConfigs 加载所有 Source 并合并。再次调用会按原顺序重新加载全部 Source。
	LoadConfigs(ctx context.Context) error

	// GetConfig 将 path 对应的节点解码为 typ，path 为空表示根节点。
	GetConfig(path string, typ reflect.Type) (any, error)

	// GetConfigOrDefault 解码失败时返回 def。
	GetConfigOrDefault(path string, typ reflect.Type, def any) any

	// Unmarshal 将 path 对应的节点解码到 target 指向的值中。
	Unmarshal(path string, target any) error

	// Keys 返回所有叶子节点的路径，按字典序排列。
	Keys() []string

	RegisterCoreReloadListener(l CoreReloadListener)
	RemoveCoreReloadListener(l CoreReloadListener)

	// StartReloading 启动所有 ReloadStrategy，阻塞直到 ctx 取消。
	StartReloading(ctx context.Context) error
}

// DefaultGestalt 是 Gestalt 的默认实现
type DefaultGestalt struct {
	// loadMu 串行化 LoadConfigs 与 reload
	loadMu sync.Mutex
	// mu 保护 state
	mu    sync.RWMutex
	state *state

	sources        []Source
	loaders        []loader.Loader
	decoders       []decoder.Decoder
	transformers   []postprocess.Transformer
	postProcessors []postprocess.PostProcessor
	strategies     []ReloadStrategy
	lexer          lexer.SentenceLexer
	logger         zerolog.Logger

	treatWarningsAsErrors      bool
	treatMissingValuesAsErrors bool

	coreListeners listenerSet[CoreReloadListener]
}

// state 是一次成功加载的结果。LoadConfigs 每次都构建新的 state，成功后整体替换。
type state struct {
	manager    *node.Manager
	registry   *decoder.Registry
	processors []node.Processor
}

var _ Gestalt = (*DefaultGestalt)(nil)

// New 创建 Gestalt，至少需要一个 Source。
func New(opts ...Option) (*DefaultGestalt, error) {
	g := &DefaultGestalt{
		lexer:  lexer.NewPathLexer(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if len(g.sources) == 0 {
		return nil, ErrNoSources
	}

	g.logger = g.logger.With().Str("component", "gestalt").Logger()
	g.loaders = append(g.loaders, loader.Defaults()...)
	if len(g.decoders) == 0 {
		g.decoders = decoder.DefaultDecoders()
	}

	if _, err := g.newState(); err != nil {
		return nil, err
	}

	for _, s := range g.strategies {
		if l, ok := s.(interface{ useLogger(zerolog.Logger) }); ok {
			l.useLogger(g.logger)
		}
	}
	return g, nil
}

// newState 为一棵新的节点树组装 decoder 与后处理器。
func (g *DefaultGestalt) newState() (*state, error) {
	m := node.NewManager()
	registry, err := decoder.NewRegistry(g.decoders, m, g.lexer)
	if err != nil {
		return nil, fmt.Errorf("gestalt: create decoder registry failed: %w", err)
	}

	transformers := append([]postprocess.Transformer{
		postprocess.NewEnvironmentVariablesTransformer(nil),
		postprocess.NewNodeTransformer(m, g.lexer),
	}, g.transformers...)
	pps := append([]postprocess.PostProcessor{
		postprocess.NewTransformerPostProcessor(transformers...),
	}, g.postProcessors...)

	return &state{manager: m, registry: registry, processors: postprocess.AsProcessors(pps)}, nil
}

func (g *DefaultGestalt) current() *state {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

type payload struct {
	data []byte
	meta Metadata
}

// LoadConfigs 并发拉取所有 Source，再严格按注册顺序合并。
func (g *DefaultGestalt) LoadConfigs(ctx context.Context) error {
	payloads := make([]payload, len(g.sources))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range g.sources {
		eg.Go(func() error {
			data, meta, err := src.Load(egCtx)
			if err != nil {
				return fmt.Errorf("gestalt: load source %s failed: %w", sourceName(src, meta), err)
			}
			payloads[i] = payload{data: data, meta: meta}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.logger.Error().Err(err).Str("event", "gestalt.load.failed").Msg("failed to load sources")
		return err
	}

	g.loadMu.Lock()
	defer g.loadMu.Unlock()

	st, err := g.newState()
	if err != nil {
		return err
	}

	var errs []entity.ValidationError
	for i, src := range g.sources {
		tree, err := g.compile(payloads[i])
		if err != nil {
			return err
		}
		errs = append(errs, tree.Errors()...)

		merged, err := st.manager.AddNode(node.Container{ID: src.ID(), Node: tree.Results()})
		if err != nil {
			return fmt.Errorf("gestalt: merge source %s failed: %w", payloads[i].meta.Source, err)
		}
		errs = append(errs, merged.Errors()...)
	}

	processed := st.manager.PostProcess(st.processors)
	errs = entity.Distinct(append(errs, processed.Errors()...))

	if g.fatal(errs) {
		g.logger.Error().
			Str("event", "gestalt.load.failed").
			Int("errors", len(errs)).
			Msg("failed to load configs")
		return newGestaltError("Failed to load configs", errs)
	}
	g.logWarnings("gestalt.load.warning", errs)

	g.mu.Lock()
	g.state = st
	g.mu.Unlock()

	g.logger.Info().
		Str("event", "gestalt.load.done").
		Int("sources", len(g.sources)).
		Msg("configs loaded")
	return nil
}

func sourceName(src Source, meta Metadata) string {
	if meta.Source != "" {
		return meta.Source
	}
	return src.ID()
}

// compile 选择 Loader 并将 payload 解析为节点树。
func (g *DefaultGestalt) compile(p payload) (entity.Validated[node.ConfigNode], error) {
	l, ok := loader.Find(g.loaders, p.meta.Format)
	if !ok {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("%w: %q (source %s)", ErrNoLoader, p.meta.Format, p.meta.Source)
	}
	tree, err := l.Load(g.lexer, p.meta.Source, p.data)
	if err != nil {
		return entity.Validated[node.ConfigNode]{}, fmt.Errorf("gestalt: %s failed on source %s: %w", l.Name(), p.meta.Source, err)
	}
	if !tree.HasResults() {
		return entity.Validated[node.ConfigNode]{}, newGestaltError(
			fmt.Sprintf("Failed to load source %s", p.meta.Source), tree.Errors())
	}
	return tree, nil
}

// fatal 按配置的策略判断是否存在导致失败的错误。
func (g *DefaultGestalt) fatal(errs []entity.ValidationError) bool {
	for _, e := range errs {
		switch e.Level() {
		case entity.LevelError:
			return true
		case entity.LevelWarn:
			if g.treatWarningsAsErrors {
				return true
			}
		case entity.LevelMissingValue:
			if g.treatMissingValuesAsErrors {
				return true
			}
		}
	}
	return false
}

func (g *DefaultGestalt) logWarnings(event string, errs []entity.ValidationError) {
	for _, e := range errs {
		evt := g.logger.Warn()
		if e.Level() == entity.LevelDebug || e.Level() == entity.LevelMissingValue {
			evt = g.logger.Debug()
		}
		evt.Str("event", event).
			Str("level", e.Level().String()).
			Msg(e.Description())
	}
}

// GetConfig 实现 Gestalt 接口。
func (g *DefaultGestalt) GetConfig(path string, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, fmt.Errorf("gestalt: nil type for path %q", path)
	}
	st := g.current()
	if st == nil {
		return nil, ErrConfigNotLoaded
	}
	root, ok := st.manager.Root()
	if !ok {
		return nil, ErrConfigNotLoaded
	}

	message := fmt.Sprintf("Failed getting config path: %s, for type: %s", path, typ.String())

	n := root
	if path != "" {
		tokens := g.lexer.Scan(path)
		if !tokens.HasResults() {
			return nil, newGestaltError(message, tokens.Errors())
		}
		found := st.manager.NavigateToNode(path, tokens.Results())
		if !found.HasResults() {
			return nil, newGestaltError(message, found.Errors())
		}
		n = found.Results()
	}

	ret := st.registry.DecodeNode(path, n, typ)
	errs := entity.Distinct(ret.Errors())
	if !ret.HasResults() || g.fatal(errs) {
		return nil, newGestaltError(message, errs)
	}
	g.logWarnings("gestalt.get.warning", errs)
	return ret.Results(), nil
}

// GetConfigOrDefault 实现 Gestalt 接口。
func (g *DefaultGestalt) GetConfigOrDefault(path string, typ reflect.Type, def any) any {
	v, err := g.GetConfig(path, typ)
	if err != nil {
		g.logger.Debug().
			Err(err).
			Str("event", "gestalt.get.default").
			Str("path", path).
			Msg("using default value")
		return def
	}
	return v
}

// Unmarshal 实现 Gestalt 接口，target 必须是非 nil 指针。
func (g *DefaultGestalt) Unmarshal(path string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("gestalt: Unmarshal target must be a non-nil pointer, got %T", target)
	}

	v, err := g.GetConfig(path, rv.Type().Elem())
	if err != nil {
		return err
	}
	if v == nil {
		rv.Elem().Set(reflect.Zero(rv.Type().Elem()))
		return nil
	}
	rv.Elem().Set(reflect.ValueOf(v))
	return nil
}

// Keys 实现 Gestalt 接口。
func (g *DefaultGestalt) Keys() []string {
	st := g.current()
	if st == nil {
		return nil
	}
	root, ok := st.manager.Root()
	if !ok {
		return nil
	}
	var keys []string
	collectKeys("", root, &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(path string, n node.ConfigNode, out *[]string) {
	switch nn := n.(type) {
	case nil:
	case *node.MapNode:
		for _, k := range nn.Keys() {
			child, _ := nn.Key(k)
			collectKeys(node.PathForKey(path, k), child, out)
		}
	case *node.ArrayNode:
		for i := 0; i < nn.Size(); i++ {
			if child, ok := nn.Index(i); ok {
				collectKeys(node.PathForIndex(path, i), child, out)
			}
		}
	default:
		if path != "" {
			*out = append(*out, path)
		}
	}
}

func (g *DefaultGestalt) RegisterCoreReloadListener(l CoreReloadListener) {
	if l != nil {
		g.coreListeners.add(l)
	}
}

func (g *DefaultGestalt) RemoveCoreReloadListener(l CoreReloadListener) {
	g.coreListeners.remove(l)
}

// StartReloading 实现 Gestalt 接口。
// 任一策略初始化失败都会取消其余策略并返回该错误。
func (g *DefaultGestalt) StartReloading(ctx context.Context) error {
	if len(g.strategies) == 0 {
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	listener := &sourceReloader{g: g, ctx: egCtx}
	for _, s := range g.strategies {
		s.RegisterListener(listener)
		eg.Go(func() error {
			defer s.RemoveListener(listener)
			return s.Start(egCtx)
		})
	}

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Error().Err(err).Str("event", "gestalt.reload.stopped").Msg("reload strategy failed")
		return err
	}
	return nil
}

// sourceReloader 把 ReloadStrategy 的通知转为对单个 Source 的重新加载。
type sourceReloader struct {
	g   *DefaultGestalt
	ctx context.Context
}

func (r *sourceReloader) Reload(src Source) {
	if r.g.reload(r.ctx, src) {
		for _, l := range r.g.coreListeners.snapshot() {
			l.Reload()
		}
	}
}

// reload 重新加载单个 Source，任何一步失败都保留原有的配置树。
func (g *DefaultGestalt) reload(ctx context.Context, src Source) bool {
	log := g.logger.With().Str("source", src.ID()).Logger()

	data, meta, err := src.Load(ctx)
	if err != nil {
		log.Error().Err(err).Str("event", "gestalt.reload.failed").Msg("reload source failed")
		return false
	}

	g.loadMu.Lock()
	defer g.loadMu.Unlock()

	st := g.current()
	if st == nil {
		log.Warn().Str("event", "gestalt.reload.skipped").Msg("configs not loaded yet")
		return false
	}
	if !g.hasSource(src) {
		log.Warn().Str("event", "gestalt.reload.skipped").Msg("source is not registered")
		return false
	}

	tree, err := g.compile(payload{data: data, meta: meta})
	if err != nil {
		log.Error().Err(err).Str("event", "gestalt.reload.failed").Msg("reload source failed")
		return false
	}
	if g.fatal(tree.Errors()) {
		log.Error().
			Err(newGestaltError("Failed to reload source "+meta.Source, tree.Errors())).
			Str("event", "gestalt.reload.failed").
			Msg("reload source failed")
		return false
	}

	// 在新的 manager 上重放所有 container，再替换发生变化的那一个
	next, err := g.newState()
	if err != nil {
		log.Error().Err(err).Str("event", "gestalt.reload.failed").Msg("reload source failed")
		return false
	}
	for _, c := range st.manager.Containers() {
		if _, err := next.manager.AddNode(c); err != nil {
			log.Error().Err(err).Str("event", "gestalt.reload.failed").Msg("reload source failed")
			return false
		}
	}
	merged, err := next.manager.ReloadNode(node.Container{ID: src.ID(), Node: tree.Results()})
	if err != nil {
		log.Error().Err(err).Str("event", "gestalt.reload.failed").Msg("reload source failed")
		return false
	}
	processed := next.manager.PostProcess(next.processors)
	errs := entity.Distinct(append(merged.Errors(), processed.Errors()...))
	if g.fatal(errs) {
		log.Error().
			Err(newGestaltError("Failed to reload source "+meta.Source, errs)).
			Str("event", "gestalt.reload.failed").
			Msg("reload source failed")
		return false
	}
	g.logWarnings("gestalt.reload.warning", errs)

	g.mu.Lock()
	g.state = next
	g.mu.Unlock()

	log.Info().Str("event", "gestalt.reload.done").Str("name", meta.Source).Msg("source reloaded")
	return true
}

func (g *DefaultGestalt) hasSource(src Source) bool {
	for _, s := range g.sources {
		if s.ID() == src.ID() {
			return true
		}
	}
	return false
}

// GetConfig 按 T 解码 path 对应的配置。
//
//	port, err := gestalt.GetConfig[int](g, "db.port")
//	hosts, err := gestalt.GetConfig[[]string](g, "db.hosts")
func GetConfig[T any](g Gestalt, path string) (T, error) {
	var zero T
	v, err := g.GetConfig(path, decoder.TypeOf[T]())
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		if v == nil {
			return zero, nil
		}
		return zero, fmt.Errorf("gestalt: decoded value of type %T is not assignable to %s", v, decoder.TypeOf[T]())
	}
	return t, nil
}

// GetConfigOrDefault 与 GetConfig 相同，失败时返回 def。
func GetConfigOrDefault[T any](g Gestalt, path string, def T) T {
	v, err := GetConfig[T](g, path)
	if err != nil {
		return def
	}
	return v
}
