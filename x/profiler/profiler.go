// Copyright © 2024 The Expreva authors

package profiler

import (
	"fmt"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/token"
)

// profiler is a minimal expreva.Profiler
type profiler struct {
	runtime    *expreva.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ expreva.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Start(fun *expreva.Val) func() {
	return func() {}
}

func (p *profiler) Complete() error {
	return nil
}

// defaultFunName constructs a canonical name for a callable.  Lambdas pick
// up the symbol they were last bound to; unbound lambdas get a placeholder.
func defaultFunName(fun *expreva.Val) string {
	if fun.Kind != expreva.KFun || fun.Fun == nil {
		return ""
	}
	if fun.Fun.Name != "" {
		return fun.Fun.Name
	}
	return "lambda"
}

// prettyFunName returns a display name and the original name for a fun.  If
// no labeler is configured, or it produces nothing, both are the original.
func (p *profiler) prettyFunName(fun *expreva.Val) (string, string) {
	origLabel := defaultFunName(fun)
	if origLabel == "" {
		return "", ""
	}
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = sanitizeLabel(p.funLabeler(p.runtime, fun))
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}
	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(v *expreva.Val) bool {
	return !p.enabled || defaultSkipFilter(v) || p.skipFilter != nil && p.skipFilter(v)
}

// getSourceLoc finds a location for a callable, preferring the callable
// itself and falling back to its body.
func getSourceLoc(fun *expreva.Val) *token.Location {
	if fun.Source != nil {
		return fun.Source
	}
	if fun.Kind == expreva.KFun && fun.Fun != nil && fun.Fun.Body != nil {
		return fun.Fun.Body.Source
	}
	return nil
}
