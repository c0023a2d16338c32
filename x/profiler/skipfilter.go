// Copyright © 2024 The Expreva authors

package profiler

import (
	"github.com/expreva/expreva"
)

// SkipFilter reports whether an invocation of fun should be left out of the
// trace.
type SkipFilter func(fun *expreva.Val) bool

func defaultSkipFilter(fun *expreva.Val) bool {
	return fun.Kind != expreva.KFun || fun.Fun == nil
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// WithNamedOnlyFilter restricts tracing to callables bound to a name,
// leaving anonymous lambdas out of the trace.
func WithNamedOnlyFilter() Option {
	return WithSkipFilter(anonymousSkipFilter)
}

func anonymousSkipFilter(fun *expreva.Val) bool {
	return fun.Kind != expreva.KFun || fun.Fun == nil || fun.Fun.Name == ""
}
