// Copyright © 2024 The Expreva authors

package expreva

import (
	"strings"
)

// Evaluate evaluates ast against env and returns the resulting value.
// Evaluation errors are returned as KError values; the host may convert them
// with GoError.  A nil env evaluates against a fresh child of the shared
// root environment.
//
// Evaluate is a trampoline.  Tail positions (if branches, do/let tails,
// lambda invocation) rewrite ast and env and continue the loop instead of
// recursing, so tail-recursive programs run in constant stack space.
func Evaluate(ast *Val, env *Env) *Val {
	if env == nil {
		env = NewEnv(nil)
	}
	for {
		if lerr := env.tick(); lerr != nil {
			return lerr
		}
		if ast == nil {
			return Nil()
		}
		if ast.Source != nil && ast.Source.Pos >= 0 {
			env.Loc = ast.Source
		}
		if ast.Kind != KList {
			return evalAtom(ast, env)
		}
		if len(ast.Cells) == 0 {
			return Nil()
		}
		expanded, lerr := expandMacro(ast, env)
		if lerr != nil {
			return lerr
		}
		if expanded != ast {
			ast = expanded
			continue
		}

		// Statement sequences parse as the right-associated shape
		// (stmt1 ; stmt2) and evaluate like a two-element do.
		if len(ast.Cells) == 3 && ast.Cells[1].IsSymbol(symSeq) {
			if v := Evaluate(ast.Cells[0], env); v.IsError() {
				return v
			}
			ast = ast.Cells[2]
			continue
		}

		switch ast.HeadSymbol() {
		case QuoteSymbol, symExpr:
			if len(ast.Cells) < 2 {
				return Nil()
			}
			return ast.Cells[1]
		case symEva:
			if len(ast.Cells) < 2 {
				return Nil()
			}
			v := Evaluate(ast.Cells[1], env)
			if v.IsError() {
				return v
			}
			ast = v
			continue
		case symMacroOp, symMacro:
			return evalMacroForm(ast, env)
		case symComment:
			return Nil()
		case symList:
			return evalListForm(ast, env)
		case symObj:
			return evalObjForm(ast, env)
		case symDef:
			next, v := evalDef(ast, env)
			if next == nil {
				return v
			}
			ast = next
			continue
		case symGet:
			return evalGet(ast, env)
		case symLet:
			next, child, lerr := evalLet(ast, env)
			if lerr != nil {
				return lerr
			}
			ast, env = next, child
			continue
		case symDo:
			if len(ast.Cells) == 1 {
				return Nil()
			}
			for _, stmt := range ast.Cells[1 : len(ast.Cells)-1] {
				if v := Evaluate(stmt, env); v.IsError() {
					return v
				}
			}
			ast = ast.Cells[len(ast.Cells)-1]
			continue
		case symIf:
			if len(ast.Cells) < 3 {
				return env.ErrorConditionf(CondMalformedIf, "if requires a condition and a consequent")
			}
			cond := Evaluate(ast.Cells[1], env)
			if cond.IsError() {
				return cond
			}
			if cond.Truthy() {
				ast = ast.Cells[2]
			} else if len(ast.Cells) > 3 {
				ast = ast.Cells[3]
			} else {
				return Nil()
			}
			continue
		case symTry:
			next, child, v := evalTry(ast, env)
			if next == nil {
				return v
			}
			ast, env = next, child
			continue
		case symLambda, symLambdaG:
			if len(ast.Cells) != 3 {
				return env.ErrorConditionf(CondBadArgDef, "lambda requires an argument list and a body")
			}
			args := ast.Cells[1]
			if args.Kind == KSymbol {
				args = List(args)
			}
			return Lambda(args, ast.Cells[2], env)
		}

		// Invocation.  Every element evaluates left to right, then the head
		// value is applied to the rest.
		cells := make([]*Val, len(ast.Cells))
		for i, cell := range ast.Cells {
			v := Evaluate(cell, env)
			if v.IsError() {
				return v
			}
			cells[i] = v
		}
		fn, args := cells[0], cells[1:]
		switch {
		case fn.IsNil():
			return Nil()
		case fn.Kind == KList && (fn.HeadSymbol() == symLambda || fn.HeadSymbol() == symLambdaG) && len(fn.Cells) == 3:
			// A raw (lambda args body) list in call position behaves like
			// the closure it denotes, capturing the current env.
			fn = Lambda(fn.Cells[1], fn.Cells[2], env)
			fallthrough
		case fn.Kind == KFun:
			if fn.Fun.Builtin != nil {
				return callBuiltin(env, fn, args)
			}
			fenv, lerr := bindFunctionScope(fn.Fun.Scope, fn.Fun.Args, args, env)
			if lerr != nil {
				return lerr
			}
			// A tail call replaces the current frame rather than
			// nesting under it, so the profiler records entry only
			// and the span closes immediately with zero duration.
			if prof := env.Runtime.Profiler; prof != nil && prof.IsEnabled() {
				prof.Start(fn)()
			}
			ast, env = fn.Fun.Body, fenv
			continue
		default:
			return env.Errorf("cannot call %s value: %s", fn.Kind, PrintValue(fn))
		}
	}
}

func evalAtom(ast *Val, env *Env) *Val {
	switch ast.Kind {
	case KSymbol:
		switch ast.Str {
		case LocalSymbol:
			return EnvHandle(env)
		case GlobalSymbol:
			return EnvHandle(env.Global())
		}
		return env.Get(ast.Str)
	case KError:
		return ast
	default:
		return ast
	}
}

// expandMacro rewrites ast while its head is a symbol bound to a macro.  It
// returns the (possibly unchanged) ast and an error value when a macro
// invocation fails or the expansion bound is exceeded.
func expandMacro(ast *Val, env *Env) (*Val, *Val) {
	n := 0
	for ast.Kind == KList && len(ast.Cells) > 0 && ast.Cells[0].Kind == KSymbol {
		fn, ok := env.Lookup(ast.Cells[0].Str)
		if !ok || !fn.IsMacro() {
			return ast, nil
		}
		n++
		if max := env.Runtime.MaxMacroExpansions; max > 0 && n > max {
			return nil, env.ErrorConditionf(CondCancelled, "macro expansion exceeded %d rewrites", max)
		}
		out := env.funCall(fn, ast.Cells[1:])
		if out.IsError() {
			return nil, out
		}
		ast = out
	}
	return ast, nil
}

func evalMacroForm(ast *Val, env *Env) *Val {
	if len(ast.Cells) < 2 {
		return env.Errorf("macro requires a callable argument")
	}
	fn := Evaluate(ast.Cells[1], env)
	if fn.IsError() {
		return fn
	}
	if fn.Kind != KFun {
		return env.Errorf("macro requires a callable argument, got %s", fn.Kind)
	}
	fd := *fn.Fun
	fd.IsMacro = true
	return &Val{Kind: KFun, Fun: &fd, Source: fn.Source}
}

func evalListForm(ast *Val, env *Env) *Val {
	cells := make([]*Val, 0, len(ast.Cells)-1)
	for _, expr := range ast.Cells[1:] {
		if expr.HeadSymbol() == SpreadSymbol && expr.Len() == 2 {
			v := Evaluate(expr.Cells[1], env)
			switch {
			case v.IsError():
				return v
			case v.Kind == KList:
				cells = append(cells, v.Cells...)
			case v.Kind == KObject:
				for _, k := range v.Obj.Keys() {
					item, _ := v.Obj.Get(k)
					cells = append(cells, item)
				}
			case v.IsNil():
			default:
				cells = append(cells, v)
			}
			continue
		}
		v := Evaluate(expr, env)
		if v.IsError() {
			return v
		}
		cells = append(cells, v)
	}
	return List(cells...)
}

func evalObjForm(ast *Val, env *Env) *Val {
	obj := Object()
	for _, pair := range ast.Cells[1:] {
		if pair.HeadSymbol() == SpreadSymbol && pair.Len() == 2 {
			v := Evaluate(pair.Cells[1], env)
			switch {
			case v.IsError():
				return v
			case v.Kind == KObject:
				for _, k := range v.Obj.Keys() {
					item, _ := v.Obj.Get(k)
					obj.Obj.Set(k, item)
				}
			case v.IsNil():
			default:
				return env.Errorf("cannot spread %s into object", v.Kind)
			}
			continue
		}
		if pair.Kind != KList || len(pair.Cells) != 2 {
			return env.Errorf("malformed object entry: %s", PrintSyntaxTree(pair))
		}
		k := Evaluate(pair.Cells[0], env)
		if k.IsError() {
			return k
		}
		v := Evaluate(pair.Cells[1], env)
		if v.IsError() {
			return v
		}
		obj.Obj.Set(keyString(k), v)
	}
	return obj
}

// evalDef implements def.  A member-access target rewrites the whole form
// into a get whose final member performs a set; the rewritten ast is
// returned for the trampoline to continue with.  A symbol target binds in
// the evaluation's global scope and returns (nil, value).
func evalDef(ast *Val, env *Env) (*Val, *Val) {
	if len(ast.Cells) < 3 {
		return nil, env.Errorf("def requires a target and a value")
	}
	target, value := ast.Cells[1], ast.Cells[2]
	if target.Kind == KList && target.HeadSymbol() == symGet && len(target.Cells) >= 3 {
		members := target.Cells[2:]
		last := members[len(members)-1]
		cells := make([]*Val, 0, len(target.Cells))
		cells = append(cells, Symbol(symGet), target.Cells[1])
		cells = append(cells, members[:len(members)-1]...)
		cells = append(cells, List(Symbol(symDef), last, value))
		return List(cells...), nil
	}
	if target.Kind != KSymbol {
		return nil, env.Errorf("cannot assign to %s", PrintSyntaxTree(target))
	}
	v := Evaluate(value, env)
	if v.IsError() {
		return nil, v
	}
	if v.Kind == KFun && v.Fun.Name == "" {
		v.Fun.Name = target.Str
	}
	env.PutGlobal(target.Str, v)
	return nil, v
}

func evalGet(ast *Val, env *Env) *Val {
	if len(ast.Cells) < 2 {
		return env.Errorf("get requires a base expression")
	}
	base := Evaluate(ast.Cells[1], env)
	if base.IsError() {
		return base
	}
	for _, member := range ast.Cells[2:] {
		if member.Kind == KList && member.HeadSymbol() == symDef && len(member.Cells) == 3 {
			return evalMemberSet(base, member, env)
		}
		key := Evaluate(member, env)
		if key.IsError() {
			return key
		}
		next, lerr := index(base, key, env)
		if lerr != nil {
			return lerr
		}
		if next.Kind == KFun && base.Kind == KObject {
			next = bindMethod(next, base)
		}
		base = next
	}
	return base
}

// evalMemberSet performs the assignment half of a member-access def.  The
// set short-circuits the member walk and yields the assigned value.
func evalMemberSet(base *Val, member *Val, env *Env) *Val {
	key := Evaluate(member.Cells[1], env)
	if key.IsError() {
		return key
	}
	value := Evaluate(member.Cells[2], env)
	if value.IsError() {
		return value
	}
	switch base.Kind {
	case KObject:
		base.Obj.Set(keyString(key), value)
	case KList:
		if key.Kind != KNumber {
			return env.ErrorConditionf(CondNotIndexable, "list index must be a number, got %s", key.Kind)
		}
		i := int(key.Num)
		if i < 0 || i >= len(base.Cells) {
			return env.ErrorConditionf(CondNotIndexable, "list index out of range: %d", i)
		}
		base.Cells[i] = value
	case KEnv:
		base.Env.Put(keyString(key), value)
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot index %s value", base.Kind)
	}
	return value
}

// index resolves one member access.  Missing keys and __proto__ resolve to
// nil rather than failing.
func index(base, key *Val, env *Env) (*Val, *Val) {
	switch base.Kind {
	case KObject:
		k := keyString(key)
		if k == "__proto__" {
			return Nil(), nil
		}
		if v, ok := base.Obj.Get(k); ok {
			return v, nil
		}
		return Nil(), nil
	case KList:
		if key.Kind != KNumber {
			return Nil(), nil
		}
		i := int(key.Num)
		if i < 0 || i >= len(base.Cells) {
			return Nil(), nil
		}
		return base.Cells[i], nil
	case KString:
		if key.Kind != KNumber {
			return Nil(), nil
		}
		runes := []rune(base.Str)
		i := int(key.Num)
		if i < 0 || i >= len(runes) {
			return Nil(), nil
		}
		return String(string(runes[i])), nil
	case KEnv:
		if v, ok := base.Env.Lookup(keyString(key)); ok {
			return v, nil
		}
		return Nil(), nil
	default:
		return nil, env.ErrorConditionf(CondNotIndexable, "cannot index %s value", base.Kind)
	}
}

// bindMethod attaches the receiving object to a callable resolved through
// member access.  The bound callable sees the receiver as the symbol this.
func bindMethod(fn *Val, recv *Val) *Val {
	if fn.Fun == nil || fn.Fun.Builtin != nil {
		return fn
	}
	scope := fn.Fun.Scope
	if scope == nil {
		return fn
	}
	bound := scope.createN(1)
	bound.Put("this", recv)
	fd := *fn.Fun
	fd.Scope = bound
	return &Val{Kind: KFun, Fun: &fd, Source: fn.Source}
}

func evalLet(ast *Val, env *Env) (*Val, *Env, *Val) {
	if len(ast.Cells) < 3 {
		return nil, nil, env.Errorf("let requires a binding list and a body")
	}
	bindings := ast.Cells[1]
	if bindings.Kind != KList {
		return nil, nil, env.Errorf("let bindings must be a list")
	}
	cells := bindings.Cells
	if bindings.HeadSymbol() == symList {
		// Source-level let receives a list literal as its binding form.
		cells = cells[1:]
	}
	child := env.createN(len(cells) / 2)
	for i := 0; i+1 < len(cells); i += 2 {
		name := cells[i]
		if name.HeadSymbol() == QuoteSymbol && name.Len() == 2 {
			name = name.Cells[1]
		}
		if name.Kind != KSymbol && name.Kind != KString {
			return nil, nil, env.Errorf("invalid let binding target: %s", PrintSyntaxTree(cells[i]))
		}
		v := Evaluate(cells[i+1], child)
		if v.IsError() {
			return nil, nil, v
		}
		child.Put(name.Str, v)
	}
	return ast.Cells[2], child, nil
}

func evalTry(ast *Val, env *Env) (*Val, *Env, *Val) {
	if len(ast.Cells) < 2 {
		return nil, nil, Nil()
	}
	v := Evaluate(ast.Cells[1], env)
	if !v.IsError() {
		return nil, nil, v
	}
	if len(ast.Cells) < 3 {
		return nil, nil, Nil()
	}
	catch := ast.Cells[2]
	if catch.Kind == KList && catch.HeadSymbol() == symCatch && len(catch.Cells) == 3 && catch.Cells[1].Kind == KSymbol {
		child := env.createN(1)
		child.Put(catch.Cells[1].Str, v)
		return catch.Cells[2], child, nil
	}
	// A bare handler expression runs without seeing the error.
	if catch.Kind == KList || catch.Kind == KSymbol {
		return catch, env, nil
	}
	return nil, nil, Nil()
}

// bindFunctionScope builds the scope a lambda body evaluates in: a child of
// the lambda's defining scope with one binding per formal argument.
func bindFunctionScope(parent *Env, argDefs *Val, given []*Val, caller *Env) (*Env, *Val) {
	if parent == nil {
		parent = caller
	}
	fenv := parent.createN(len(argDefs.Cells))
	fenv.Runtime = caller.Runtime
	fenv.Loc = caller.Loc
	cells := argDefs.Cells
	i := 0
	for j := 0; j < len(cells); j++ {
		def := cells[j]
		switch {
		case def.IsSymbol(RestSymbol):
			j++
			if j >= len(cells) || cells[j].Kind != KSymbol {
				return nil, caller.ErrorConditionf(CondBadArgDef, "%s must be followed by an argument name", RestSymbol)
			}
			fenv.Put(cells[j].Str, List(restArgs(given, i)...))
			i = len(given)
		case def.Kind == KSymbol:
			if i < len(given) {
				fenv.Put(def.Str, given[i])
			} else {
				fenv.Put(def.Str, Nil())
			}
			i++
		case def.HeadSymbol() == SpreadSymbol && def.Len() == 2 && def.Cells[1].Kind == KSymbol:
			fenv.Put(def.Cells[1].Str, List(restArgs(given, i)...))
			i = len(given)
		case def.HeadSymbol() == symDef && def.Len() == 3 && def.Cells[1].Kind == KSymbol:
			if i < len(given) && !given[i].IsNil() {
				fenv.Put(def.Cells[1].Str, given[i])
			} else {
				v := Evaluate(def.Cells[2], fenv)
				if v.IsError() {
					return nil, v
				}
				fenv.Put(def.Cells[1].Str, v)
			}
			i++
		default:
			return nil, caller.ErrorConditionf(CondBadArgDef, "invalid argument definition: %s", PrintSyntaxTree(def))
		}
	}
	return fenv, nil
}

func restArgs(given []*Val, i int) []*Val {
	if i >= len(given) {
		return nil
	}
	return given[i:]
}

// funCall applies fn to already evaluated arguments.  Lambda bodies evaluate
// through a nested trampoline, so funCall is for non-tail application: host
// callbacks, macro expansion, and higher-order builtins.
func (env *Env) funCall(fn *Val, args []*Val) *Val {
	switch {
	case fn == nil || fn.IsNil():
		return Nil()
	case fn.Kind != KFun:
		return env.Errorf("cannot call %s value: %s", fn.Kind, PrintValue(fn))
	case fn.Fun.Builtin != nil:
		return callBuiltin(env, fn, args)
	default:
		fenv, lerr := bindFunctionScope(fn.Fun.Scope, fn.Fun.Args, args, env)
		if lerr != nil {
			return lerr
		}
		if prof := env.Runtime.Profiler; prof != nil && prof.IsEnabled() {
			defer prof.Start(fn)()
		}
		return Evaluate(fn.Fun.Body, fenv)
	}
}

// FunCall applies a callable to evaluated arguments on behalf of host code.
func (env *Env) FunCall(fn *Val, args ...*Val) *Val {
	return env.funCall(fn, args)
}

func callBuiltin(env *Env, fn *Val, args []*Val) *Val {
	if prof := env.Runtime.Profiler; prof != nil && prof.IsEnabled() {
		defer prof.Start(fn)()
	}
	v := fn.Fun.Builtin(env, args)
	if v == nil {
		return Nil()
	}
	if v.IsError() {
		env.errorAssociate(v)
		if v.Fun == nil {
			v.Fun = fn.Fun
		}
	}
	return v
}

func keyString(v *Val) string {
	switch v.Kind {
	case KString, KSymbol:
		return v.Str
	case KNumber:
		return formatNumber(v.Num)
	case KBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return strings.TrimSpace(PrintValue(v))
	}
}
