// Copyright © 2024 The Expreva authors

package exprevatest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
	"github.com/expreva/expreva/parser/pratt"
)

func TestArithmetic(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"literals", TestSequence{
			{Source: "5", Result: "5"},
			{Source: "2.5", Result: "2.5"},
			{Source: "'hello'", Result: `"hello"`},
			{Source: `"a\nb"`, Result: `"a\nb"`},
			{Source: "true", Result: "true"},
			{Source: "false", Result: "false"},
			{Source: "nil", Result: "nil"},
			{Source: "", Result: "nil"},
		}},
		{"precedence", TestSequence{
			{Source: "1+1", Result: "2"},
			{Source: "1 + 2 * 3", Result: "7"},
			{Source: "(1 + 2) * 3", Result: "9"},
			{Source: "2 ^ 3 ^ 2", Result: "512"},
			{Source: "10 - 3 - 2", Result: "5"},
			{Source: "7 % 3", Result: "1"},
			{Source: "-3 + 5", Result: "2"},
			{Source: "5!", Result: "120"},
		}},
		{"comparison", TestSequence{
			{Source: "1 < 2", Result: "true"},
			{Source: "2 <= 2", Result: "true"},
			{Source: "3 > 4", Result: "false"},
			{Source: "1 == 1", Result: "true"},
			{Source: "1 != 1", Result: "false"},
			{Source: "'a' < 'b'", Result: "true"},
		}},
		{"logic", TestSequence{
			{Source: "true && false", Result: "false"},
			{Source: "true || false", Result: "true"},
			{Source: "true and true", Result: "true"},
			{Source: "false or 3", Result: "3"},
			{Source: "!true", Result: "false"},
			{Source: "not false", Result: "true"},
		}},
	})
}

func TestVariables(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"assignment", TestSequence{
			{Source: "a = 3", Result: "3"},
			{Source: "a", Result: "3"},
			{Source: "a += 2", Result: "5"},
			{Source: "a -= 1", Result: "4"},
			{Source: "a *= 3", Result: "12"},
			{Source: "a /= 4", Result: "3"},
			{Source: "a++", Result: "4"},
			{Source: "a--", Result: "3"},
		}},
		{"statements", TestSequence{
			{Source: "a = 1 b = 2 a + b", Result: "3"},
			{Source: "x = 1; y = 2; x + y", Result: "3"},
		}},
		{"lists rebind", TestSequence{
			{Source: "a=[1] b=[2] b", Result: "[2]"},
			{Source: "a", Result: "[1]"},
		}},
		{"let scoping", TestSequence{
			{Source: "n = 1", Result: "1"},
			{Source: "let(['n', 5], n * 2)", Result: "10"},
			{Source: "n", Result: "1"},
		}},
	})
}

func TestConditionals(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"if then else", TestSequence{
			{Source: "if (true) then 'yes' else 'no'", Result: `"yes"`},
			{Source: "if (false) then 'yes' else 'no'", Result: `"no"`},
			{Source: "if (false) then 'yes'", Result: "nil"},
			{Source: "if (0) then 'yes' else 'no'", Result: `"no"`},
			{Source: "if ('') then 'yes' else 'no'", Result: `"no"`},
		}},
		{"ternary", TestSequence{
			{Source: "1 < 2 ? 'a' : 'b'", Result: `"a"`},
			{Source: "1 > 2 ? 'a' : 'b'", Result: `"b"`},
		}},
	})
}

func TestFunctions(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"lambdas", TestSequence{
			{Source: "f = x => x * x", Result: "(x) => (x * x)"},
			{Source: "f(5)", Result: "25"},
			{Source: "((x, y) => x + y)(3, 4)", Result: "7"},
			{Source: "(() => 9)()", Result: "9"},
		}},
		{"closures", TestSequence{
			{Source: "adder = n => x => x + n", Result: "(n) => ((x) => (x + n))"},
			{Source: "addTwo = adder(2)", Result: "(x) => (x + n)"},
			{Source: "addTwo(5)", Result: "7"},
			{Source: "adder(10)(5)", Result: "15"},
		}},
		{"rest and defaults", TestSequence{
			{Source: "f = (a, ...rest) => rest", Result: "(a, ...rest) => rest"},
			{Source: "f(1, 2, 3)", Result: "[2, 3]"},
			{Source: "g = (x = 9) => x", Result: "(x = 9) => x"},
			{Source: "g()", Result: "9"},
			{Source: "g(2)", Result: "2"},
		}},
		{"pipes", TestSequence{
			{Source: "5 -> (x => x + 1)", Result: "6"},
			{Source: "(3, 4) -> ((x, y) => x + y)", Result: "7"},
			{Source: "double = x => x * 2", Result: "(x) => (x * 2)"},
			{Source: "5 -> double -> double", Result: "20"},
		}},
		{"higher order builtins", TestSequence{
			{Source: "map([1, 2, 3], x => x * 10)", Result: "[10, 20, 30]"},
			{Source: "filter([1, 2, 3, 4], x => x % 2 == 0)", Result: "[2, 4]"},
			{Source: "reduce([1, 2, 3], (acc, x) => acc + x, 0)", Result: "6"},
		}},
	})
}

func TestCollections(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"lists", TestSequence{
			{Source: "xs = [1, 2, 3]", Result: "[1, 2, 3]"},
			{Source: "xs[0]", Result: "1"},
			{Source: "xs.(1 + 1)", Result: "3"},
			{Source: "size(xs)", Result: "3"},
			{Source: "push(xs, 4)", Result: "[1, 2, 3, 4]"},
			{Source: "pop(xs)", Result: "4"},
			{Source: "slice(xs, 1)", Result: "[2, 3]"},
			{Source: "[0, ...xs]", Result: "[0, 1, 2, 3]"},
			{Source: "join(['a', 'b'], '-')", Result: `"a-b"`},
		}},
		{"objects", TestSequence{
			{Source: "a = {}", Result: "{}"},
			{Source: "a.b = 'hi'", Result: `"hi"`},
			{Source: "a", Result: `{ b: "hi" }`},
			{Source: "o = { x: 1, y: 2 }", Result: "{ x: 1, y: 2 }"},
			{Source: "o.x", Result: "1"},
			{Source: "o.missing", Result: "nil"},
			{Source: "keys(o)", Result: `["x", "y"]`},
			{Source: "values(o)", Result: "[1, 2]"},
			{Source: "{ ...o, z: 3 }", Result: "{ x: 1, y: 2, z: 3 }"},
			{Source: "'x' in o", Result: "true"},
		}},
		{"strings", TestSequence{
			{Source: "s = 'hello'", Result: `"hello"`},
			{Source: "s[1]", Result: `"e"`},
			{Source: "size(s)", Result: "5"},
			{Source: "slice(s, 1, 3)", Result: `"el"`},
			{Source: "split('a,b,c', ',')", Result: `["a", "b", "c"]`},
			{Source: "'hi' + ' there'", Result: `"hi there"`},
		}},
		{"methods bind this", TestSequence{
			{Source: "o = { n: 3, get: () => this.n }", Result: "{ n: 3, get: () => this.n }"},
			{Source: "o.get()", Result: "3"},
		}},
	})
}

func TestQuoting(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"expr and eva", TestSequence{
			{Source: "ast = expr(1 + 2)", Result: "[+, 1, 2]"},
			{Source: "eva(ast)", Result: "3"},
		}},
		{"macros see raw syntax", TestSequence{
			// The macro body runs on the unevaluated argument forms, so
			// undefined symbols pass through without lookup.
			{Source: "count = ~((...args) => size(args))", Result: "(...args) => size(args)"},
			{Source: "count(missing, alsoMissing)", Result: "2"},
		}},
		{"macros produce code", TestSequence{
			{Source: "three = ~(() => expr(1 + 2))", Result: "() => (expr(1 + 2))"},
			{Source: "three()", Result: "3"},
		}},
	})
}

func TestErrorConditions(t *testing.T) {
	r := &Runner{}
	r.RunTestSuite(t, TestSuite{
		{"undefined symbol", TestSequence{
			{Source: "missing", Err: "undefined-symbol"},
		}},
		{"not indexable", TestSequence{
			{Source: "a = 5", Result: "5"},
			{Source: "a.b", Err: "not-indexable"},
		}},
		{"truncated if", TestSequence{
			{Source: "if (true)", Err: "parse-error"},
		}},
		{"parse error", TestSequence{
			{Source: "1 +", Err: "parse-error"},
			{Source: "(1 + 2", Err: "parse-error"},
		}},
		{"lex error", TestSequence{
			{Source: "1 + \x01", Err: "lex-error"},
		}},
		{"throw", TestSequence{
			{Source: "throw('boom')", Err: "host-error"},
		}},
		{"try recovers", TestSequence{
			{Source: "try(missing, catch(e, 'saved'))", Result: `"saved"`},
			{Source: "try(1 + 1)", Result: "2"},
		}},
	})
}

func TestPrintOutput(t *testing.T) {
	r := &Runner{}
	r.RunTestSequence(t, TestSequence{
		{Source: "print('hi')", Result: `"hi"`, Output: "hi\n"},
		{Source: "print(1, 2)", Result: "2", Output: "1 2\n"},
	})
}

func TestHostBindings(t *testing.T) {
	r := &Runner{
		Bindings: expreva.Bindings(
			"greet", expreva.Fun("greet", func(env *expreva.Env, args []*expreva.Val) *expreva.Val {
				if len(args) != 1 {
					return env.Errorf("greet expects one argument")
				}
				return expreva.String("hello " + args[0].Str)
			}),
			"failing", expreva.Fun("failing", func(env *expreva.Env, args []*expreva.Val) *expreva.Val {
				return expreva.Error(errors.New("host failure"))
			}),
		),
	}
	r.RunTestSuite(t, TestSuite{
		{"call host function", TestSequence{
			{Source: "greet('world')", Result: `"hello world"`},
		}},
		{"host errors surface", TestSequence{
			{Source: "failing()", Err: "host-error"},
			{Source: "try(failing(), catch(e, 'handled'))", Result: `"handled"`},
		}},
	})
}

// Tail-position recursion runs in constant stack space.  The counter below
// iterates far deeper than any goroutine stack would allow for a recursive
// evaluator.
func TestTailCalls(t *testing.T) {
	env := expreva.NewEnv(nil)
	v := parser.EvalString("tail", `
		count = n => if (n == 0) then 'done' else count(n - 1)
		count(100000)
	`, env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, "done", v.Str)
}

func TestMutualTailCalls(t *testing.T) {
	env := expreva.NewEnv(nil)
	v := parser.EvalString("tail", `
		even = n => if (n == 0) then true else odd(n - 1)
		odd = n => if (n == 0) then false else even(n - 1)
		even(50000)
	`, env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.True(t, v.Bool)
}

func TestDeepNesting(t *testing.T) {
	var sb strings.Builder
	depth := 1000
	sb.WriteString(strings.Repeat("(", depth))
	sb.WriteString("1")
	sb.WriteString(strings.Repeat(")", depth))
	env := expreva.NewEnv(nil)
	v := parser.EvalString("deep", sb.String(), env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, 1.0, v.Num)
}

func TestCancellation(t *testing.T) {
	t.Run("max steps", func(t *testing.T) {
		env := expreva.NewEnv(nil, expreva.WithMaxSteps(1000))
		v := parser.EvalString("steps", "loop = n => loop(n + 1) loop(0)", env)
		require.True(t, v.IsError())
		assert.Equal(t, "cancelled", v.Str)
	})
	t.Run("tick hook", func(t *testing.T) {
		ticks := 0
		env := expreva.NewEnv(nil, expreva.WithTickHook(func() error {
			ticks++
			if ticks > 100 {
				return errors.New("deadline")
			}
			return nil
		}))
		v := parser.EvalString("tick", "loop = n => loop(n + 1) loop(0)", env)
		require.True(t, v.IsError())
		assert.Equal(t, "cancelled", v.Str)
	})
}

// Printing a parsed program and reparsing the printed text reaches a fixed
// point after one round trip.
func TestPrintParseStable(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"x = 1",
		"f = (x, y) => x + y",
		"if (a) then b else c",
		"[1, 2, [3]]",
		"{ a: 1, b: { c: 2 } }",
		"o.a.b",
		"o.(k)",
		"f(1, g(2))",
		"a = 1; b = 2; a + b",
		"!x",
		"-x + y",
		"'quoted string'",
		"map([1, 2], x => x * 2)",
	}
	for _, src := range sources {
		src := src
		t.Run(src, func(t *testing.T) {
			ast, err := parser.Parse("stable", src)
			require.NoError(t, err)
			printed := expreva.PrintSyntaxTree(ast)
			ast2, err := parser.Parse("stable", printed)
			require.NoError(t, err, "printed form does not parse: %s", printed)
			assert.Equal(t, printed, expreva.PrintSyntaxTree(ast2))
		})
	}
}

func TestParseErrorDetails(t *testing.T) {
	_, err := parser.Parse("bad", "a = 1\nb = ")
	require.Error(t, err)
	var perr *pratt.ParseError
	require.True(t, errors.As(err, &perr))
	assert.NotEmpty(t, perr.Message)
	assert.Equal(t, 2, perr.Line)
	// The statement parsed before the failure is preserved for hosts that
	// render partial results.
	require.Len(t, perr.Partial, 1)
	assert.Equal(t, "a = 1", expreva.PrintSyntaxTree(perr.Partial[0]))
}

func TestRepeatedEnvIsIsolated(t *testing.T) {
	for i := 0; i < 3; i++ {
		env := expreva.NewEnv(nil)
		v := parser.EvalString("iso", "counter = 1 counter", env)
		require.False(t, v.IsError())
		assert.Equal(t, 1.0, v.Num, "iteration %d", i)
	}
	// A fresh environment does not see earlier definitions.
	env := expreva.NewEnv(nil)
	v := parser.EvalString("iso", "counter", env)
	require.True(t, v.IsError())
	assert.Equal(t, "undefined-symbol", v.Str)
}

func TestFibonacci(t *testing.T) {
	env := expreva.NewEnv(nil)
	v := parser.EvalString("fib", `
		fib = n => if (n < 2) then n else fib(n - 1) + fib(n - 2)
		fib(15)
	`, env)
	require.False(t, v.IsError(), "%v", v.GoError())
	assert.Equal(t, "610", fmt.Sprint(expreva.PrintValue(v)))
}

func BenchmarkArithmetic(b *testing.B) {
	b.Run("eval", BenchmarkEval("1 + 2 * 3 - 4 / 5"))
	b.Run("parse", BenchmarkParse("1 + 2 * 3 - 4 / 5"))
}

func BenchmarkTailLoop(b *testing.B) {
	b.Run("eval", BenchmarkEval(`(n => if (n == 0) then 0 else 0)(1)`))
}
