// Copyright © 2024 The Expreva authors

package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/expreva/expreva"
)

// pprofAnnotator appends tags to pprof output if pprof is enabled.  It does
// not start pprof for the user; the host decides when sampling runs.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ expreva.Profiler = &pprofAnnotator{}

func NewPprofAnnotator(runtime *expreva.Runtime, parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

func (p *pprofAnnotator) Start(fun *expreva.Val) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	oldContext := p.currentContext
	prettyLabel, _ := p.prettyFunName(fun)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", prettyLabel))
	// The labels propagate to anything the evaluation spawns from here on.
	pprof.SetGoroutineLabels(p.currentContext)
	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
