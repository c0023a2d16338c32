// Copyright © 2024 The Expreva authors

package expreva

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardBindings(t *testing.T) {
	m := StandardBindings()
	for _, name := range []string{"+", "map", "filter", "reduce", "print", "to_string"} {
		fn, ok := m[name]
		require.True(t, ok, "missing binding %q", name)
		require.Equal(t, KFun, fn.Kind)
		assert.NotNil(t, fn.Fun.Builtin)
	}
	assert.Equal(t, KBool, m["true"].Kind)
	assert.Equal(t, KBool, m["false"].Kind)
	assert.Equal(t, KNil, m["nil"].Kind)
}

func TestStandardBindingsEvaluate(t *testing.T) {
	env := testEnv()
	double := call("lambda", List(Symbol("x")), call("*", Symbol("x"), Number(2)))
	v := Evaluate(call("map", Quote(List(Number(1), Number(2))), double), env)
	require.False(t, v.IsError(), "map: %s", PrintValue(v))
	assert.Equal(t, "[2, 4]", PrintValue(v))
}
