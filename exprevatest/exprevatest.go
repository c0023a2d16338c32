// Copyright © 2024 The Expreva authors

// Package exprevatest provides a table-driven harness for testing expreva
// programs end to end: source text in, printed value out.
package exprevatest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
)

// TestStep evaluates one expression in a shared environment and checks the
// printed result.
type TestStep struct {
	// Source is the expression to evaluate.
	Source string
	// Result is the expected rendering of the value, per PrintValue.
	// Ignored when Err is set.
	Result string
	// Err, when non-empty, is the error condition the step must fail with.
	Err string
	// Output, when non-empty, is the text the step must write to the
	// environment's stderr stream.
	Output string
}

// TestSequence is a list of steps sharing one environment, so earlier
// definitions are visible to later expressions.
type TestSequence []TestStep

// TestSuite names a set of independent sequences.
type TestSuite []struct {
	Name string
	TestSequence
}

// Runner executes test sequences against fresh environments.
type Runner struct {
	// Bindings seeds additional host bindings into each environment.
	Bindings map[string]*expreva.Val
	// Config applies additional environment options.
	Config []expreva.Config
}

// NewEnv builds the environment a sequence runs in.  The returned buffer
// captures everything the program writes to stderr.
func (r *Runner) NewEnv(t testing.TB) (*expreva.Env, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := append([]expreva.Config{expreva.WithStderr(buf)}, r.Config...)
	env := expreva.NewEnv(r.Bindings, cfg...)
	return env, buf
}

// RunTestSequence evaluates each step in order against one environment.
func (r *Runner) RunTestSequence(t *testing.T, seq TestSequence) {
	t.Helper()
	env, buf := r.NewEnv(t)
	for i, step := range seq {
		buf.Reset()
		name := fmt.Sprintf("test:%d", i)
		v := parser.EvalString(name, step.Source, env)
		if step.Err != "" {
			if assert.True(t, v.IsError(), "expression %d did not fail: %s", i, step.Source) {
				assert.Equal(t, step.Err, v.Str, "expression %d condition: %s", i, step.Source)
			}
			continue
		}
		if v.IsError() {
			t.Errorf("expression %d: %s: %v", i, step.Source, v.GoError())
			continue
		}
		assert.Equal(t, step.Result, expreva.PrintValue(v), "expression %d: %s", i, step.Source)
		if step.Output != "" {
			assert.Equal(t, step.Output, buf.String(), "expression %d output: %s", i, step.Source)
		}
	}
}

// RunTestSuite runs each named sequence as a subtest.
func (r *Runner) RunTestSuite(t *testing.T, suite TestSuite) {
	for _, test := range suite {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			r.RunTestSequence(t, test.TestSequence)
		})
	}
}

// BenchmarkEval reports the steady-state cost of evaluating src.
func BenchmarkEval(src string) func(*testing.B) {
	return func(b *testing.B) {
		ast, err := parser.Parse("bench", src)
		if err != nil {
			b.Fatalf("parse failure: %v", err)
		}
		env := expreva.NewEnv(nil, expreva.WithStderr(&bytes.Buffer{}))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if v := expreva.Evaluate(ast, env); v.IsError() {
				b.Fatalf("eval failure: %v", v.GoError())
			}
		}
	}
}

// BenchmarkParse reports the cost of parsing src.
func BenchmarkParse(src string) func(*testing.B) {
	return func(b *testing.B) {
		b.SetBytes(int64(len(src)))
		for i := 0; i < b.N; i++ {
			if _, err := parser.Parse("bench", src); err != nil {
				b.Fatalf("parse failure: %v", err)
			}
		}
	}
}
