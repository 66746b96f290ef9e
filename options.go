package gestalt

import (
	"github.com/rs/zerolog"

	"github.com/lifei6671/go-gestalt/decoder"
	"github.com/lifei6671/go-gestalt/lexer"
	"github.com/lifei6671/go-gestalt/loader"
	"github.com/lifei6671/go-gestalt/postprocess"
)

// Option 用于配置 DefaultGestalt。
type Option func(*DefaultGestalt)

// WithSource 追加配置源，后添加的 Source 覆盖先添加的同名配置。
func WithSource(sources ...Source) Option {
	return func(g *DefaultGestalt) {
		for _, src := range sources {
			if src != nil {
				g.sources = append(g.sources, src)
			}
		}
	}
}

// WithLoader 追加 Loader，优先于内置 Loader 匹配。
func WithLoader(loaders ...loader.Loader) Option {
	return func(g *DefaultGestalt) {
		g.loaders = append(g.loaders, loaders...)
	}
}

// WithDecoder 追加 Decoder。没有任何 Decoder 时自动使用 decoder.DefaultDecoders()。
func WithDecoder(decoders ...decoder.Decoder) Option {
	return func(g *DefaultGestalt) {
		g.decoders = append(g.decoders, decoders...)
	}
}

// WithDefaultDecoders 追加内置 Decoder，用于在自定义 Decoder 之外保留默认能力。
func WithDefaultDecoders() Option {
	return func(g *DefaultGestalt) {
		g.decoders = append(g.decoders, decoder.DefaultDecoders()...)
	}
}

// WithPostProcessor 在内置的占位符替换之后追加后处理器。
func WithPostProcessor(processors ...postprocess.PostProcessor) Option {
	return func(g *DefaultGestalt) {
		g.postProcessors = append(g.postProcessors, processors...)
	}
}

// WithTransformer 为内置的占位符替换追加 Transformer，
// 内置的有 env（环境变量）和 node（引用其他配置项）。
func WithTransformer(transformers ...postprocess.Transformer) Option {
	return func(g *DefaultGestalt) {
		g.transformers = append(g.transformers, transformers...)
	}
}

// WithLexer 替换默认的路径 lexer。
func WithLexer(lex lexer.SentenceLexer) Option {
	return func(g *DefaultGestalt) {
		if lex != nil {
			g.lexer = lex
		}
	}
}

// WithReloadStrategy 注册 reload 策略，策略的 Source 需要同时通过 WithSource 注册。
func WithReloadStrategy(strategies ...ReloadStrategy) Option {
	return func(g *DefaultGestalt) {
		for _, s := range strategies {
			if s != nil {
				g.strategies = append(g.strategies, s)
			}
		}
	}
}

// WithLogger 设置 logger，默认不输出。
func WithLogger(logger zerolog.Logger) Option {
	return func(g *DefaultGestalt) {
		g.logger = logger
	}
}

// WithTreatWarningsAsErrors WARN 级别的错误也视为失败。
func WithTreatWarningsAsErrors(treat bool) Option {
	return func(g *DefaultGestalt) {
		g.treatWarningsAsErrors = treat
	}
}

// WithTreatMissingValuesAsErrors 可选值缺失也视为失败。
func WithTreatMissingValuesAsErrors(treat bool) Option {
	return func(g *DefaultGestalt) {
		g.treatMissingValuesAsErrors = treat
	}
}
