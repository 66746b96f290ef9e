package entity

// Validated 封装一次校验/解码的结果：可能有结果、可能有错误，也可能两者都有。
// 例如合并两个 map 节点时，部分 key 合并失败，但其余 key 仍然是有效结果。
type Validated[T any] struct {
	results T
	ok      bool
	errors  []ValidationError
}

// Valid 构造一个只有结果、没有错误的 Validated。
func Valid[T any](v T) Validated[T] {
	return Validated[T]{results: v, ok: true}
}

// Invalid 构造一个没有结果的 Validated。
func Invalid[T any](errs ...ValidationError) Validated[T] {
	return Validated[T]{errors: compact(errs)}
}

// Of 同时携带结果和错误，ok 为 false 时忽略 v。
func Of[T any](v T, ok bool, errs []ValidationError) Validated[T] {
	if !ok {
		var zero T
		v = zero
	}
	return Validated[T]{results: v, ok: ok, errors: compact(errs)}
}

func (v Validated[T]) HasResults() bool {
	return v.ok
}

// Results 返回结果；没有结果时返回零值。
func (v Validated[T]) Results() T {
	return v.results
}

func (v Validated[T]) HasErrors() bool {
	return len(v.errors) > 0
}

func (v Validated[T]) Errors() []ValidationError {
	return v.errors
}

// HasErrorsAtLevel 判断是否存在指定级别的错误。
func (v Validated[T]) HasErrorsAtLevel(level Level) bool {
	return HasLevel(v.errors, level)
}

// Map 把结果类型转换为 U，错误原样保留。
func Map[T, U any](v Validated[T], fn func(T) U) Validated[U] {
	if !v.ok {
		return Validated[U]{errors: v.errors}
	}
	return Validated[U]{results: fn(v.results), ok: true, errors: v.errors}
}

// HasLevel 判断错误列表中是否存在指定级别。
func HasLevel(errs []ValidationError, level Level) bool {
	for _, e := range errs {
		if e != nil && e.Level() == level {
			return true
		}
	}
	return false
}

// Distinct 按 Description 去重，保留第一次出现的顺序。
// 多个 source 合并时同一个错误可能被重复上报。
func Distinct(errs []ValidationError) []ValidationError {
	if len(errs) == 0 {
		return errs
	}
	seen := make(map[string]struct{}, len(errs))
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		if e == nil {
			continue
		}
		d := e.Description()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, e)
	}
	return out
}

func compact(errs []ValidationError) []ValidationError {
	if len(errs) == 0 {
		return nil
	}
	out := errs[:0:0]
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
