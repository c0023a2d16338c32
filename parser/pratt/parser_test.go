// Copyright © 2024 The Expreva authors

package pratt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/lexer"
)

func parse(t *testing.T, src string) *expreva.Val {
	t.Helper()
	v, err := parseErr(src)
	require.NoError(t, err, "source: %s", src)
	return v
}

func parseErr(src string) (*expreva.Val, error) {
	lex := lexer.New("test", src)
	p := New(NewTokenSource(lex.ReadToken))
	return p.Program()
}

// sexp renders an AST in parenthesized prefix form for terse shape
// assertions.
func sexp(v *expreva.Val) string {
	switch v.Kind {
	case expreva.KList:
		parts := make([]string, len(v.Cells))
		for i, cell := range v.Cells {
			parts[i] = sexp(cell)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case expreva.KString:
		return fmt.Sprintf("%q", v.Str)
	default:
		return expreva.PrintValue(v)
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 * 2 + 3", "(+ (* 1 2) 3)"},
		{"1 < 2 && 3 < 4", "(&& (< 1 2) (< 3 4))"},
		{"a or b and c", "(&& (|| a b) c)"},
		{"a and b or c", "(|| (&& a b) c)"},
		{"not a", "(! a)"},
		{"-a * b", "(* (- a) b)"},
		{"-a.b", "(- (get a (` \"b\")))"},
		{"1 + 2 % 3", "(+ 1 (% 2 3))"},
		{"2 ^ 3", "(^ 2 3)"},
		{"a == b != c", "(!= (== a b) c)"},
		{"5 in xs", "(in 5 xs)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestAtoms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"1.5", "1.5"},
		{"x", "x"},
		{"true", "true"},
		{"false", "false"},
		{"nil", "nil"},
		{`"hi"`, "(` \"hi\")"},
		{`'hi'`, "(` \"hi\")"},
		{"", "nil"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestAssignment(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = 1", "(def x 1)"},
		{"x = y = 1", "(def x (def y 1))"},
		{"a.b = 1", "(def (get a (` \"b\")) 1)"},
		{"x += 2", "(def x (+ x 2))"},
		{"x -= 2", "(def x (- x 2))"},
		{"x *= 2", "(def x (* x 2))"},
		{"x /= 2", "(def x (/ x 2))"},
		{"x++", "(def x (+ x 1))"},
		{"x--", "(def x (- x 1))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestConditional(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"if a then b else c", "(if a b c)"},
		{"if a b", "(if a b)"},
		{"if 1 < 2 then 'yes' else 'no'", "(if (< 1 2) (` \"yes\") (` \"no\"))"},
		{"a ? b : c", "(if a b c)"},
		{"a ? b : c ? d : e", "(if a b (if c d e))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestLambda(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x => x * x", "(lambda (x) (* x x))"},
		{"(x, y) => x + y", "(lambda (x y) (+ x y))"},
		{"() => 1", "(lambda () 1)"},
		{"x => y => x", "(lambda (x) (lambda (y) x))"},
		{"(x, ...rest) => rest", "(lambda (x (... rest)) rest)"},
		{"(x, y = 2) => x + y", "(lambda (x (def y 2)) (+ x y))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestCallsAndMembers(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"f(a, b)", "(f a b)"},
		{"f()", "(f)"},
		{"f(a)(b)", "((f a) b)"},
		{"a.b.c", "(get a (` \"b\") (` \"c\"))"},
		{"a.(k)", "(get a k)"},
		{"a[0]", "(get a 0)"},
		{"a.b(x)", "((get a (` \"b\")) x)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestCallRequiresGluedParen(t *testing.T) {
	// f (a) is two statements: the symbol f, then a grouped expression.
	v := parse(t, "f (a)")
	assert.Equal(t, "(f ; a)", sexp(v))
	// A glued paren applies.
	assert.Equal(t, "(f a)", sexp(parse(t, "f(a)")))
}

func TestPipe(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x -> f", "(f x)"},
		{"x -> f(y)", "(f x y)"},
		{"(a, b) -> f", "(f a b)"},
		{"x -> f -> g", "(g (f x))"},
		{"(3, 4) -> ((x, y) => x + y)", "((lambda (x y) (+ x y)) 3 4)"},
		{"x -> y => y", "((lambda (y) y) x)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestArrays(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"[]", "(list)"},
		{"[1, 2, 3]", "(list 1 2 3)"},
		{"[1, ...xs]", "(list 1 (... xs))"},
		{"[1] + [2]", "(+ (list 1) (list 2))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestObjects(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"{}", "(obj)"},
		{"{ a: 1 }", "(obj ((` \"a\") 1))"},
		{"{ a: 1, b: 2 }", "(obj ((` \"a\") 1) ((` \"b\") 2))"},
		{"{ a }", "(obj ((` \"a\") a))"},
		{"{ 'k': 1 }", "(obj ((` \"k\") 1))"},
		{"{ (k): 1 }", "(obj (k 1))"},
		{"{ ...o, a: 1 }", "(obj (... o) ((` \"a\") 1))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1; 2", "(1 ; 2)"},
		{"1; 2; 3", "((1 ; 2) ; 3)"},
		{"a = 1 b = 2 a", "(((def a 1) ; (def b 2)) ; a)"},
		{"f = x => x*x  f(5)", "((def f (lambda (x) (* x x))) ; (f 5))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestMacroAndQuoteForms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"macro f", "(~ f)"},
		{"~f", "(~ f)"},
		{"x!", "(factorial x)"},
		{"!x", "(! x)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sexp(parse(t, tt.src)), "source: %s", tt.src)
	}
}

func TestParseErrorPartial(t *testing.T) {
	_, err := parseErr("a = 1; b = ; c")
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.NotZero(t, perr.Line)
	require.Len(t, perr.Partial, 1)
	assert.Equal(t, "(def a 1)", sexp(perr.Partial[0]))
	assert.Contains(t, perr.Error(), "parse error")
}

func TestUnbalancedBracket(t *testing.T) {
	for _, src := range []string{"(1 + 2", "[1, 2", "{ a: 1", "f(1"} {
		_, err := parseErr(src)
		assert.Error(t, err, "source: %s", src)
	}
}

func TestLexErrorSurfaces(t *testing.T) {
	_, err := parseErr("1 + \x01")
	require.Error(t, err)
	_, ok := err.(*LexError)
	assert.True(t, ok, "expected *LexError, got %T", err)
}

func TestTokenSourceSaveRestore(t *testing.T) {
	lex := lexer.New("test", "a b c d")
	src := NewTokenSource(lex.ReadToken)
	assert.Equal(t, "a", src.Current().Text)
	src.Save()
	src.Advance()
	src.Advance()
	assert.Equal(t, "c", src.Current().Text)
	src.Restore()
	assert.Equal(t, "a", src.Current().Text)
	src.Advance()
	assert.Equal(t, "b", src.Current().Text)
	src.Discard()
}
