// Copyright © 2024 The Expreva authors

package expreva

import (
	"fmt"
	"sync"

	"github.com/expreva/expreva/parser/token"
)

// Env is a lexically scoped environment: a mapping from symbol to value
// chained through an optional parent.  Symbol resolution walks current →
// parent → … → root.
type Env struct {
	Scope   map[string]*Val
	Parent  *Env
	Runtime *Runtime

	// Loc tracks the source location of the expression currently being
	// evaluated in this environment, for error reporting.
	Loc *token.Location

	// global is the top-most non-root scope of the current evaluation.  It
	// is nil on the root environment itself.
	global *Env
}

var (
	rootEnv  *Env
	rootOnce sync.Once
)

// Root returns the shared process-wide root environment.  It is constructed
// on first use and populated with the standard bindings.  The root is
// mutated only during binding registration; user code defines symbols in a
// user global scope, never in the root.
func Root() *Env {
	rootOnce.Do(func() {
		rootEnv = &Env{
			Scope:   make(map[string]*Val, len(StandardBindings())),
			Runtime: StandardRuntime(),
			Loc:     nativeSource(),
		}
		for name, fn := range StandardBindings() {
			rootEnv.Scope[name] = fn
		}
	})
	return rootEnv
}

// NewEnv creates a user global environment: a fresh child of the shared root
// seeded with optional host-supplied bindings.  The returned environment may
// persist across Evaluate calls for REPL use.
func NewEnv(bindings map[string]*Val, cfg ...Config) *Env {
	env := &Env{
		Scope:   make(map[string]*Val, len(bindings)),
		Parent:  Root(),
		Runtime: StandardRuntime(),
		Loc:     nativeSource(),
	}
	env.global = env
	for name, v := range bindings {
		env.Scope[name] = v
	}
	for _, fn := range cfg {
		fn(env)
	}
	return env
}

// Create returns a new child scope whose parent is the receiver.
func (env *Env) Create() *Env {
	return env.createN(0)
}

func (env *Env) createN(n int) *Env {
	return &Env{
		Scope:   make(map[string]*Val, n),
		Parent:  env,
		Runtime: env.Runtime,
		Loc:     env.Loc,
		global:  env.global,
	}
}

// Global returns the top-most non-root scope of the current evaluation, or
// the receiver itself when no such scope exists (evaluation directly against
// the root).
func (env *Env) Global() *Env {
	if env.global != nil {
		return env.global
	}
	return env
}

// Get resolves a symbol by walking the scope chain.  An unbound symbol
// produces an undefined-symbol error.
func (env *Env) Get(name string) *Val {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Scope[name]; ok {
			return v
		}
	}
	return env.ErrorConditionf(CondUndefinedSymbol, "undefined symbol: %s", name)
}

// Lookup resolves a symbol without signaling an error when it is unbound.
func (env *Env) Lookup(name string) (*Val, bool) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Scope[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Put binds name to v in the receiver's own scope.
func (env *Env) Put(name string, v *Val) {
	env.Scope[name] = v
}

// PutGlobal binds name in the current evaluation's global scope.  This is
// the binding rule of def: definitions land in the user global regardless of
// how deeply nested the defining expression is.
func (env *Env) PutGlobal(name string, v *Val) {
	env.Global().Scope[name] = v
}

// Root returns the root of the receiver's scope chain.
func (env *Env) Root() *Env {
	e := env
	for e.Parent != nil {
		e = e.Parent
	}
	return e
}

// Error returns a KError value stamped with the environment's current source
// location.  Error accepts either a single Go error or any mix of values and
// strings.
func (env *Env) Error(msg ...interface{}) *Val {
	return env.ErrorCondition(CondHostError, msg...)
}

// ErrorCondition returns a KError with the given condition, stamped with the
// environment's current source location.
func (env *Env) ErrorCondition(condition string, msg ...interface{}) *Val {
	cells := make([]*Val, 0, len(msg))
	for _, m := range msg {
		switch m := m.(type) {
		case *Val:
			cells = append(cells, m)
		case error:
			if len(msg) > 1 {
				panic("invalid error argument")
			}
			cells = append(cells, String(m.Error()))
		case string:
			cells = append(cells, String(m))
		default:
			cells = append(cells, String(fmt.Sprint(m)))
		}
	}
	return &Val{Kind: KError, Str: condition, Cells: cells, Source: env.Loc}
}

// Errorf returns a KError with a formatted message, stamped with the
// environment's current source location.
func (env *Env) Errorf(format string, v ...interface{}) *Val {
	return env.ErrorConditionf(CondHostError, format, v...)
}

// ErrorConditionf returns a KError with the given condition and a formatted
// message, stamped with the environment's current source location.
func (env *Env) ErrorConditionf(condition string, format string, v ...interface{}) *Val {
	return &Val{
		Kind:   KError,
		Str:    condition,
		Cells:  []*Val{String(fmt.Sprintf(format, v...))},
		Source: env.Loc,
	}
}

// errorAssociate stamps lerr with env's current location when it has none.
func (env *Env) errorAssociate(lerr *Val) {
	if lerr.Kind != KError {
		panic("not an error: " + lerr.Kind.String())
	}
	if lerr.Source == nil || lerr.Source.Pos < 0 {
		lerr.Source = env.Loc
	}
}
