// Copyright © 2024 The Expreva authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

// Token is a single lexeme scanned from expreva source text.
type Token struct {
	Type   Type
	Text   string
	Source *Location

	// PrecedingNewlines and PrecedingSpaces describe the whitespace scanned
	// immediately before the token.  The parser uses them to distinguish a
	// call ``f(x)'' from a grouped expression ``f (x)''.
	PrecedingNewlines int
	PrecedingSpaces   int
}

func (tok *Token) String() string {
	if tok.Text == "" {
		return tok.Type.String()
	}
	return fmt.Sprintf("%s(%q)", tok.Type, tok.Text)
}

// Glued returns true when no whitespace separated tok from the preceding
// token.
func (tok *Token) Glued() bool {
	return tok.PrecedingNewlines == 0 && tok.PrecedingSpaces == 0
}

type Type uint

// Type constants used by the expreva lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	NUMBER
	STRING
	NAME
	OP
	PAREN
	BRACKET
	COMMA
	SEMICOLON
	COMMENT

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:   "invalid",
		ERROR:     "error",
		EOF:       "EOF",
		NUMBER:    "number",
		STRING:    "string",
		NAME:      "name",
		OP:        "operator",
		PAREN:     "paren",
		BRACKET:   "bracket",
		COMMA:     "comma",
		SEMICOLON: "semicolon",
		COMMENT:   "comment",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a position within a source stream.  Pos and End are byte
// offsets delimiting the token.  Line and Col start at 1 when tracked.
type Location struct {
	File string // a name representing the source stream
	Pos  int
	End  int
	Line int
	Col  int
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
