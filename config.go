// Copyright © 2024 The Expreva authors

package expreva

import (
	"context"
	"io"
)

// Config is a function that configures an environment during construction.
type Config func(env *Env)

// WithStderr sets the environment's error output stream.
func WithStderr(w io.Writer) Config {
	return func(env *Env) {
		env.Runtime.Stderr = w
	}
}

// WithContext attaches a context to the environment.  Evaluation stops with
// a cancelled condition when the context is done.
func WithContext(ctx context.Context) Config {
	return func(env *Env) {
		env.Runtime.ctx = ctx
	}
}

// WithTickHook installs a hook invoked once per evaluation step.  A non-nil
// error from the hook cancels the evaluation.
func WithTickHook(hook TickHook) Config {
	return func(env *Env) {
		env.Runtime.Tick = hook
	}
}

// WithMaxSteps bounds the number of evaluation steps.  Exceeding the bound
// cancels the evaluation.
func WithMaxSteps(n int64) Config {
	return func(env *Env) {
		env.Runtime.maxSteps = n
	}
}

// WithMaxMacroExpansions bounds macro rewriting of a single expression.
func WithMaxMacroExpansions(n int) Config {
	return func(env *Env) {
		env.Runtime.MaxMacroExpansions = n
	}
}

// WithProfiler attaches a profiler to the environment's runtime.
func WithProfiler(p Profiler) Config {
	return func(env *Env) {
		env.Runtime.Profiler = p
	}
}

// WithBindings defines additional symbols in the environment's own scope.
func WithBindings(bindings map[string]*Val) Config {
	return func(env *Env) {
		for name, v := range bindings {
			env.Scope[name] = v
		}
	}
}
