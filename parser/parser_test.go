// Copyright © 2024 The Expreva authors

package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
	"github.com/expreva/expreva/parser/token"
)

func TestParse(t *testing.T) {
	ast, err := parser.Parse("test", "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "1 + 2", expreva.PrintSyntaxTree(ast))
}

func TestParseEmpty(t *testing.T) {
	ast, err := parser.Parse("test", "")
	require.NoError(t, err)
	assert.True(t, ast.IsNil())
}

func TestParseFailure(t *testing.T) {
	_, err := parser.Parse("test", "1 +")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { parser.MustParse("test", "(((") })
	assert.NotPanics(t, func() { parser.MustParse("test", "f(1)") })
}

func TestEvalStringErrors(t *testing.T) {
	env := expreva.NewEnv(nil)
	v := parser.EvalString("test", "1 +", env)
	require.True(t, v.IsError())
	assert.Equal(t, expreva.CondParseError, v.Str)

	v = parser.EvalString("test", "\x01", env)
	require.True(t, v.IsError())
	assert.Equal(t, expreva.CondLexError, v.Str)

	v = parser.EvalString("test", "2 * 21", env)
	require.False(t, v.IsError())
	assert.Equal(t, 42.0, v.Num)
}

func TestReader(t *testing.T) {
	ast, err := parser.NewReader().Read("test", strings.NewReader("a = 1"))
	require.NoError(t, err)
	assert.Equal(t, "a = 1", expreva.PrintSyntaxTree(ast))
}

func TestTokenTypes(t *testing.T) {
	rules := parser.TokenTypes()
	require.NotEmpty(t, rules)
	// The table leads with literals so highlighters match them before the
	// operator rules.
	assert.Equal(t, token.NUMBER, rules[0].Type)
	seen := map[token.Type]bool{}
	for _, r := range rules {
		assert.NotEmpty(t, r.Pattern)
		seen[r.Type] = true
	}
	for _, typ := range []token.Type{
		token.NUMBER, token.STRING, token.NAME, token.OP,
		token.PAREN, token.BRACKET, token.COMMA, token.SEMICOLON,
	} {
		assert.True(t, seen[typ], "missing rule for %s", typ)
	}
}
