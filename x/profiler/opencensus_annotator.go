// Copyright © 2024 The Expreva authors

package profiler

import (
	"context"
	"errors"

	"github.com/golang-collections/collections/stack"
	"go.opencensus.io/trace"

	"github.com/expreva/expreva"
)

var _ expreva.Profiler = &ocAnnotator{}

type ocAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       *stack.Stack
}

// NewOpenCensusAnnotator emits an OpenCensus span per function invocation.
// Spans nest through a context stack so recursive calls unwind correctly.
func NewOpenCensusAnnotator(runtime *expreva.Runtime, parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
		contexts:       stack.New(),
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("set a context to use this function")
	}
	p.currentContext = ctx
	return p.Enable()
}

func (p *ocAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.profiler.Enable()
}

func (p *ocAnnotator) Complete() error {
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	return nil
}

func (p *ocAnnotator) Start(fun *expreva.Val) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(fun)
	p.contexts.Push(p.currentContext)
	p.currentContext, p.currentSpan = trace.StartSpan(p.currentContext, prettyLabel)
	return func() {
		p.end(fun)
	}
}

func (p *ocAnnotator) end(fun *expreva.Val) {
	if !p.enabled {
		return
	}
	if loc := getSourceLoc(fun); loc != nil {
		p.currentSpan.Annotate([]trace.Attribute{
			trace.StringAttribute("file", loc.File),
			trace.Int64Attribute("line", int64(loc.Line)),
		}, "source")
	}
	p.currentSpan.End()
	// And pop the current context back
	p.currentContext = p.contexts.Pop().(context.Context)
	p.currentSpan = trace.FromContext(p.currentContext)
}
