// Copyright © 2024 The Expreva authors

// Package parser ties the lexer and the pratt parser together behind a
// small facade for hosts that just want to turn source text into AST.
package parser

import (
	"io"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/lexer"
	"github.com/expreva/expreva/parser/pratt"
)

// Parse parses a source string into an AST value.  Empty input parses to
// nil.  Failures return *pratt.ParseError or *pratt.LexError.
func Parse(name, src string) (*expreva.Val, error) {
	lex := lexer.New(name, src)
	p := pratt.New(pratt.NewTokenSource(lex.ReadToken))
	return p.Program()
}

// MustParse parses src and panics on failure.  It is intended for
// initialization of fixed programs.
func MustParse(name, src string) *expreva.Val {
	v, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return v
}

// EvalString parses and evaluates src against env.  Parse failures come
// back as KError values so callers handle one error channel.
func EvalString(name, src string, env *expreva.Env) *expreva.Val {
	ast, err := Parse(name, src)
	if err != nil {
		if _, ok := err.(*pratt.LexError); ok {
			return expreva.ErrorCondition(expreva.CondLexError, err)
		}
		return expreva.ErrorCondition(expreva.CondParseError, err)
	}
	return expreva.Evaluate(ast, env)
}

// Reader parses expreva source from an io.Reader.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read consumes r entirely and parses its contents.
func (*Reader) Read(name string, r io.Reader) (*expreva.Val, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(name, string(b))
}

// TokenTypes returns the lexer's rule table, in match order, for editor and
// highlighter integrations.
func TokenTypes() []lexer.Rule {
	return lexer.Rules()
}
