// Copyright © 2024 The Expreva authors

package expreva

// Version is the interpreter version reported by tooling.
const Version = "1.0"

// QuoteSymbol is the symbol heading a quoted subtree.  An AST of the form
// (QuoteSymbol v) evaluates to v unchanged.
const QuoteSymbol = "`"

// SpreadSymbol marks a value for splicing into an enclosing list or object
// literal, and introduces the alternate rest-argument syntax in a lambda's
// formal argument list.
const SpreadSymbol = "..."

// RestSymbol marks the following formal argument as variadic.  The argument
// is bound to a list of the remaining given arguments.
const RestSymbol = "&"

// LocalSymbol and GlobalSymbol evaluate to environment handles rather than
// bound values.
const (
	LocalSymbol  = "local"
	GlobalSymbol = "global"
)

// Special form head symbols interpreted directly by the evaluator.
const (
	symDef     = "def"
	symLet     = "let"
	symIf      = "if"
	symDo      = "do"
	symTry     = "try"
	symCatch   = "catch"
	symGet     = "get"
	symList    = "list"
	symObj     = "obj"
	symLambda  = "lambda"
	symLambdaG = "λ"
	symMacro   = "macro"
	symMacroOp = "~"
	symEva     = "eva"
	symExpr    = "expr"
	symComment = "comment"
	symSeq     = ";"
)

// Error condition names used by the core.  Host functions may signal
// additional conditions.
const (
	CondLexError        = "lex-error"
	CondParseError      = "parse-error"
	CondUndefinedSymbol = "undefined-symbol"
	CondNotIndexable    = "not-indexable"
	CondMalformedIf     = "malformed-if"
	CondBadArgDef       = "bad-arg-def"
	CondHostError       = "host-error"
	CondCancelled       = "cancelled"
)
