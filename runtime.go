// Copyright © 2024 The Expreva authors

package expreva

import (
	"context"
	"io"
	"os"
)

// TickHook is invoked once per evaluation step (trampoline iteration).  A
// non-nil return cancels the evaluation with a cancelled condition.
type TickHook func() error

// Profiler instruments function invocations.  Start is called as the
// interpreter enters a callable and the returned function is called when the
// invocation completes.
type Profiler interface {
	// IsEnabled reports whether the profiler records anything.  Callers may
	// skip Start entirely when it returns false.
	IsEnabled() bool

	// Start begins timing an invocation of fun.
	Start(fun *Val) func()

	// Complete flushes any buffered profile data.
	Complete() error
}

// Runtime carries the mutable evaluation machinery shared by an environment
// tree: output streams, cancellation, step accounting, and profiling.
type Runtime struct {
	Stderr   io.Writer
	Profiler Profiler

	// Tick, when non-nil, is called once per evaluation step.
	Tick TickHook

	// MaxMacroExpansions bounds how many times Evaluate rewrites a single
	// expression through macro expansion before giving up.  Zero means
	// unlimited.
	MaxMacroExpansions int

	ctx      context.Context
	maxSteps int64
	steps    int64
}

// StandardRuntime returns a runtime with default settings, writing to the
// process stderr.
func StandardRuntime() *Runtime {
	return &Runtime{
		Stderr:             os.Stderr,
		MaxMacroExpansions: defaultMaxMacroExpansions,
	}
}

const defaultMaxMacroExpansions = 1000

// Context returns the runtime's evaluation context, defaulting to
// context.Background.
func (r *Runtime) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// tick performs the per-step bookkeeping: the tick hook, context
// cancellation, and the step limit.  It returns a KError with the cancelled
// condition when evaluation must stop, and nil otherwise.
func (env *Env) tick() *Val {
	r := env.Runtime
	r.steps++
	if r.Tick != nil {
		if err := r.Tick(); err != nil {
			return env.ErrorCondition(CondCancelled, err)
		}
	}
	if r.ctx != nil {
		select {
		case <-r.ctx.Done():
			return env.ErrorCondition(CondCancelled, r.ctx.Err())
		default:
		}
	}
	if r.maxSteps > 0 && r.steps > r.maxSteps {
		return env.ErrorConditionf(CondCancelled, "evaluation exceeded %d steps", r.maxSteps)
	}
	return nil
}
