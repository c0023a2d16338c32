// Copyright © 2024 The Expreva authors

package expreva

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() *Env {
	return NewEnv(nil, WithStderr(&bytes.Buffer{}))
}

func call(head string, args ...*Val) *Val {
	cells := append([]*Val{Symbol(head)}, args...)
	return List(cells...)
}

func TestEvalAtoms(t *testing.T) {
	env := testEnv()
	assert.Equal(t, 5.0, Evaluate(Number(5), env).Num)
	assert.Equal(t, "hi", Evaluate(String("hi"), env).Str)
	assert.True(t, Evaluate(Bool(true), env).Bool)
	assert.True(t, Evaluate(Nil(), env).IsNil())
}

func TestEvalSymbolLookup(t *testing.T) {
	env := testEnv()
	env.Put("x", Number(7))
	assert.Equal(t, 7.0, Evaluate(Symbol("x"), env).Num)

	v := Evaluate(Symbol("missing"), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondUndefinedSymbol, v.Str)
}

func TestEvalEnvHandles(t *testing.T) {
	env := testEnv()
	local := Evaluate(Symbol(LocalSymbol), env)
	require.Equal(t, KEnv, local.Kind)
	assert.Same(t, env, local.Env)
	global := Evaluate(Symbol(GlobalSymbol), env.Create())
	require.Equal(t, KEnv, global.Kind)
	assert.Same(t, env, global.Env)
}

func TestQuote(t *testing.T) {
	env := testEnv()
	payload := call("+", Number(1), Number(2))
	v := Evaluate(Quote(payload), env)
	assert.Same(t, payload, v)
}

func TestEva(t *testing.T) {
	env := testEnv()
	v := Evaluate(call("eva", Quote(call("+", Number(1), Number(2)))), env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 3.0, v.Num)
}

func TestCommentIsNil(t *testing.T) {
	env := testEnv()
	assert.True(t, Evaluate(call("comment", Number(1)), env).IsNil())
}

func TestDefBindsGlobal(t *testing.T) {
	env := testEnv()
	inner := env.Create().Create()
	v := Evaluate(call("def", Symbol("x"), Number(3)), inner)
	require.False(t, v.IsError())
	// The binding lands in the user global, not the nested scope.
	_, ok := inner.Scope["x"]
	assert.False(t, ok)
	got, ok := env.Scope["x"]
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Num)
}

func TestDefNamesCallable(t *testing.T) {
	env := testEnv()
	lam := call("lambda", List(Symbol("x")), Symbol("x"))
	v := Evaluate(call("def", Symbol("id"), lam), env)
	require.Equal(t, KFun, v.Kind)
	assert.Equal(t, "id", v.Fun.Name)
}

func TestIf(t *testing.T) {
	env := testEnv()
	v := Evaluate(call("if", Bool(true), Number(1), Number(2)), env)
	assert.Equal(t, 1.0, v.Num)
	v = Evaluate(call("if", Bool(false), Number(1), Number(2)), env)
	assert.Equal(t, 2.0, v.Num)
	v = Evaluate(call("if", Bool(false), Number(1)), env)
	assert.True(t, v.IsNil())

	v = Evaluate(call("if", Bool(true)), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondMalformedIf, v.Str)
}

func TestDo(t *testing.T) {
	env := testEnv()
	v := Evaluate(call("do", call("def", Symbol("x"), Number(1)), Symbol("x")), env)
	assert.Equal(t, 1.0, v.Num)
	assert.True(t, Evaluate(call("do"), env).IsNil())
}

func TestLet(t *testing.T) {
	env := testEnv()
	bindings := List(Symbol("x"), Number(2), Symbol("y"), call("+", Symbol("x"), Number(3)))
	v := Evaluate(call("let", bindings, call("+", Symbol("x"), Symbol("y"))), env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 7.0, v.Num)
	// let bindings are scoped to the body.
	_, ok := env.Scope["x"]
	assert.False(t, ok)
}

func TestTryCatch(t *testing.T) {
	env := testEnv()
	boom := Symbol("missing")
	catch := List(Symbol("catch"), Symbol("err"), Symbol("err"))
	v := Evaluate(call("try", boom, catch), env)
	require.Equal(t, KError, v.Kind)
	assert.Equal(t, CondUndefinedSymbol, v.Str)

	// Errors without a catch handler are swallowed.
	assert.True(t, Evaluate(call("try", boom), env).IsNil())

	// Successful bodies pass through.
	assert.Equal(t, 4.0, Evaluate(call("try", Number(4), catch), env).Num)
}

func TestListSpread(t *testing.T) {
	env := testEnv()
	env.Put("xs", List(Number(2), Number(3)))
	v := Evaluate(call("list", Number(1), call("...", Symbol("xs"))), env)
	require.Equal(t, KList, v.Kind)
	require.Len(t, v.Cells, 3)
	assert.Equal(t, 3.0, v.Cells[2].Num)
}

func TestObjForm(t *testing.T) {
	env := testEnv()
	obj := Evaluate(call("obj",
		List(Quote(String("a")), Number(1)),
		List(Quote(String("b")), Number(2)),
	), env)
	require.Equal(t, KObject, obj.Kind)
	assert.Equal(t, []string{"a", "b"}, obj.Obj.Keys())

	spread := Evaluate(call("obj", List(Symbol("..."), Quote(obj))), env)
	require.Equal(t, KObject, spread.Kind)
	assert.Equal(t, []string{"a", "b"}, spread.Obj.Keys())
}

func TestGetMissingKeyIsNil(t *testing.T) {
	env := testEnv()
	obj := Object()
	obj.Obj.Set("a", Number(1))
	env.Put("o", obj)
	v := Evaluate(call("get", Symbol("o"), Quote(String("zzz"))), env)
	assert.True(t, v.IsNil())
	v = Evaluate(call("get", Symbol("o"), Quote(String("__proto__"))), env)
	assert.True(t, v.IsNil())
}

func TestGetNotIndexable(t *testing.T) {
	env := testEnv()
	env.Put("n", Number(5))
	v := Evaluate(call("get", Symbol("n"), Quote(String("b"))), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondNotIndexable, v.Str)
}

func TestGetWithoutBaseIsError(t *testing.T) {
	env := testEnv()
	v := Evaluate(call("get"), env)
	require.True(t, v.IsError())
	assert.Contains(t, v.GoError().Error(), "get requires")
}

func TestMemberSet(t *testing.T) {
	env := testEnv()
	env.Put("o", Object())
	target := call("get", Symbol("o"), Quote(String("b")))
	v := Evaluate(call("def", target, Quote(String("hi"))), env)
	require.False(t, v.IsError(), "%v", v.GoError())
	o, _ := env.Lookup("o")
	got, ok := o.Obj.Get("b")
	require.True(t, ok)
	assert.Equal(t, "hi", got.Str)
}

func TestLambdaClosure(t *testing.T) {
	env := testEnv()
	outer := env.Create()
	outer.Put("n", Number(10))
	fn := Evaluate(call("lambda", List(Symbol("x")), call("+", Symbol("x"), Symbol("n"))), outer)
	require.Equal(t, KFun, fn.Kind)

	// The closure reads n through its defining scope regardless of the
	// caller's environment.
	caller := testEnv()
	caller.Put("f", fn)
	v := Evaluate(List(Symbol("f"), Number(5)), caller)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 15.0, v.Num)
}

func TestBindFunctionScope(t *testing.T) {
	env := testEnv()

	// Rest arguments via the & marker.
	args := List(Symbol("a"), Symbol(RestSymbol), Symbol("rest"))
	fenv, lerr := bindFunctionScope(env, args, []*Val{Number(1), Number(2), Number(3)}, env)
	require.Nil(t, lerr)
	rest, _ := fenv.Lookup("rest")
	require.Equal(t, KList, rest.Kind)
	assert.Len(t, rest.Cells, 2)

	// Rest arguments via the spread form.
	args = List(List(Symbol("..."), Symbol("rest")))
	fenv, lerr = bindFunctionScope(env, args, []*Val{Number(1)}, env)
	require.Nil(t, lerr)
	rest, _ = fenv.Lookup("rest")
	assert.Len(t, rest.Cells, 1)

	// Defaults apply when the argument is absent.
	args = List(List(Symbol("def"), Symbol("x"), Number(9)))
	fenv, lerr = bindFunctionScope(env, args, nil, env)
	require.Nil(t, lerr)
	x, _ := fenv.Lookup("x")
	assert.Equal(t, 9.0, x.Num)

	// Missing plain arguments bind nil.
	args = List(Symbol("x"), Symbol("y"))
	fenv, lerr = bindFunctionScope(env, args, []*Val{Number(1)}, env)
	require.Nil(t, lerr)
	y, _ := fenv.Lookup("y")
	assert.True(t, y.IsNil())

	// Anything else is a bad argument definition.
	args = List(Number(4))
	_, lerr = bindFunctionScope(env, args, nil, env)
	require.NotNil(t, lerr)
	assert.Equal(t, CondBadArgDef, lerr.Str)
}

func TestMacroExpansion(t *testing.T) {
	env := testEnv()
	// A macro that rewrites (twice x) to (+ x x), applied to unevaluated
	// arguments.
	body := call("list", Quote(Symbol("+")), Symbol("x"), Symbol("x"))
	mac := Evaluate(call("~", call("lambda", List(Symbol("x")), body)), env)
	require.Equal(t, KFun, mac.Kind)
	require.True(t, mac.IsMacro())
	env.Put("twice", mac)

	v := Evaluate(call("twice", Number(3)), env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 6.0, v.Num)
}

func TestMacroExpansionBound(t *testing.T) {
	env := NewEnv(nil, WithStderr(&bytes.Buffer{}), WithMaxMacroExpansions(16))
	// A macro expanding to an invocation of itself diverges; the bound
	// converts that into a cancellation.
	body := call("list", Quote(Symbol("loop")), Symbol("x"))
	mac := Evaluate(call("~", call("lambda", List(Symbol("x")), body)), env)
	env.Put("loop", mac)
	v := Evaluate(call("loop", Number(1)), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondCancelled, v.Str)
}

func TestTickHookCancels(t *testing.T) {
	calls := 0
	env := NewEnv(nil, WithStderr(&bytes.Buffer{}), WithTickHook(func() error {
		calls++
		if calls > 3 {
			return errors.New("times up")
		}
		return nil
	}))
	v := Evaluate(call("do", Number(1), Number(2), Number(3), Number(4), Number(5)), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondCancelled, v.Str)
}

func TestContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env := NewEnv(nil, WithStderr(&bytes.Buffer{}), WithContext(ctx))
	v := Evaluate(Number(1), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondCancelled, v.Str)
}

func TestMaxSteps(t *testing.T) {
	env := NewEnv(nil, WithStderr(&bytes.Buffer{}), WithMaxSteps(10))
	ast := call("do", Number(1), Number(2))
	var v *Val
	for i := 0; i < 100; i++ {
		v = Evaluate(ast, env)
		if v.IsError() {
			break
		}
	}
	require.True(t, v.IsError())
	assert.Equal(t, CondCancelled, v.Str)
}

func TestHostErrorWrapsFunctionName(t *testing.T) {
	env := NewEnv(map[string]*Val{
		"boom": Fun("boom", func(env *Env, args []*Val) *Val {
			return env.Errorf("no good")
		}),
	}, WithStderr(&bytes.Buffer{}))
	v := Evaluate(List(Symbol("boom")), env)
	require.True(t, v.IsError())
	assert.Equal(t, CondHostError, v.Str)
	assert.Contains(t, v.GoError().Error(), "boom")
}

func TestNilCallableYieldsNil(t *testing.T) {
	env := testEnv()
	env.Put("f", Nil())
	assert.True(t, Evaluate(List(Symbol("f"), Number(1)), env).IsNil())
}

func TestFunCall(t *testing.T) {
	env := testEnv()
	double, _ := env.Lookup("*")
	v := env.FunCall(double, Number(3), Number(4))
	assert.Equal(t, 12.0, v.Num)
}

func TestSequenceShape(t *testing.T) {
	env := testEnv()
	seq := List(call("def", Symbol("x"), Number(2)), Symbol(";"), Symbol("x"))
	v := Evaluate(seq, env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 2.0, v.Num)
}
