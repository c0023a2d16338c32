// Copyright © 2024 The Expreva authors

// Package lexer tokenizes expreva source text.  The lexer walks the input
// left to right consuming whitespace and comments, then matching the first
// rule from an ordered table of regular expressions anchored at the current
// position.  Editor collaborators can retrieve the table with Rules to drive
// syntax highlighting with the exact same match order.
package lexer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expreva/expreva/parser/token"
)

// Rule pairs a token type with the regular expression that matches its
// spelling.  Rules are applied in table order so multi-character operators
// must precede their single-character prefixes.
type Rule struct {
	Type    token.Type
	Pattern string

	re *regexp.Regexp
}

func newRule(typ token.Type, pattern string) Rule {
	return Rule{
		Type:    typ,
		Pattern: pattern,
		re:      regexp.MustCompile(`^(?:` + pattern + `)`),
	}
}

var ruleTable = []Rule{
	newRule(token.NUMBER, `[0-9]*\.?[0-9]+`),
	newRule(token.STRING, `"(?:\\.|[^"\\])*"`),
	newRule(token.STRING, `'(?:\\.|[^'\\])*'`),
	newRule(token.NAME, `[A-Za-z_][A-Za-z0-9_]*`),
	newRule(token.OP, `==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|\*=|/=|->|=>|\.\.\.`),
	newRule(token.OP, `[-+*/%^=<>!?:.&|~]`),
	newRule(token.PAREN, `[()]`),
	newRule(token.BRACKET, `[\[\]{}]`),
	newRule(token.COMMA, `,`),
	newRule(token.SEMICOLON, `;`),
}

// Rules returns a copy of the ordered lexical rule table.
func Rules() []Rule {
	table := make([]Rule, len(ruleTable))
	copy(table, ruleTable)
	return table
}

var (
	reSpace        = regexp.MustCompile(`^[ \t\r\n]+`)
	reLineComment  = regexp.MustCompile(`^//[^\n]*`)
	reBlockComment = regexp.MustCompile(`^/\*(?s:.*?)\*/`)
)

// Lexer scans tokens from an in-memory source string.
type Lexer struct {
	file string
	src  string

	pos       int
	line      int // 1-based line number at pos
	lineStart int // byte offset of the start of the current line

	precedingNewlines int
	precedingSpaces   int

	mark *bookmark
}

type bookmark struct {
	pos       int
	line      int
	lineStart int
}

// New initializes and returns a Lexer scanning src.  The file argument names
// the source stream in token locations and error messages.
func New(file, src string) *Lexer {
	return &Lexer{
		file: file,
		src:  src,
		line: 1,
	}
}

// Save records the current scan position in the lexer's single bookmark slot.
// The parser uses one-deep bookmarks for its two local disambiguations; a
// general save stack is unnecessary.
func (lex *Lexer) Save() {
	lex.mark = &bookmark{pos: lex.pos, line: lex.line, lineStart: lex.lineStart}
}

// Restore rewinds the lexer to the bookmarked position.  Restore panics if
// Save has not been called since the last Restore.
func (lex *Lexer) Restore() {
	if lex.mark == nil {
		panic("lexer restore without save")
	}
	lex.pos = lex.mark.pos
	lex.line = lex.mark.line
	lex.lineStart = lex.mark.lineStart
	lex.mark = nil
}

// Coordinates returns the 1-based line and column of a byte offset in the
// source text.  It is used for error reporting on positions the lexer has
// already moved past.
func (lex *Lexer) Coordinates(pos int) (line, col int) {
	if pos < 0 {
		return 0, 0
	}
	if pos > len(lex.src) {
		pos = len(lex.src)
	}
	prefix := lex.src[:pos]
	line = 1 + strings.Count(prefix, "\n")
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		col = pos - i
	} else {
		col = pos + 1
	}
	return line, col
}

// ReadToken scans and returns the next token.  At the end of input ReadToken
// returns an EOF token.  When no rule matches the current position ReadToken
// returns an ERROR token whose text describes the failure.  ReadToken never
// returns an empty slice.
func (lex *Lexer) ReadToken() []*token.Token {
	if err := lex.skipWhitespace(); err != nil {
		return []*token.Token{lex.errorToken(err.Error())}
	}
	if lex.pos >= len(lex.src) {
		return []*token.Token{lex.emit(token.EOF, "")}
	}
	rest := lex.src[lex.pos:]
	for i := range ruleTable {
		loc := ruleTable[i].re.FindStringIndex(rest)
		if loc == nil {
			continue
		}
		return []*token.Token{lex.emit(ruleTable[i].Type, rest[:loc[1]])}
	}
	return []*token.Token{lex.errorToken(fmt.Sprintf("unexpected text starting with %q", firstRune(rest)))}
}

func (lex *Lexer) emit(typ token.Type, text string) *token.Token {
	tok := &token.Token{
		Type: typ,
		Text: text,
		Source: &token.Location{
			File: lex.file,
			Pos:  lex.pos,
			End:  lex.pos + len(text),
			Line: lex.line,
			Col:  lex.pos - lex.lineStart + 1,
		},
		PrecedingNewlines: lex.precedingNewlines,
		PrecedingSpaces:   lex.precedingSpaces,
	}
	lex.advance(len(text))
	return tok
}

func (lex *Lexer) errorToken(msg string) *token.Token {
	tok := &token.Token{
		Type: token.ERROR,
		Text: msg,
		Source: &token.Location{
			File: lex.file,
			Pos:  lex.pos,
			End:  lex.pos,
			Line: lex.line,
			Col:  lex.pos - lex.lineStart + 1,
		},
		PrecedingNewlines: lex.precedingNewlines,
		PrecedingSpaces:   lex.precedingSpaces,
	}
	// Skip the offending byte so a parser draining the stream terminates.
	if lex.pos < len(lex.src) {
		lex.advance(1)
	}
	return tok
}

// advance moves the scan position n bytes forward, updating line accounting
// for any newlines consumed.
func (lex *Lexer) advance(n int) {
	end := lex.pos + n
	for i := lex.pos; i < end; i++ {
		if lex.src[i] == '\n' {
			lex.line++
			lex.lineStart = i + 1
		}
	}
	lex.pos = end
}

// skipWhitespace consumes spaces and comments, recording how much whitespace
// preceded the next token.  An unterminated block comment is a lex error.
func (lex *Lexer) skipWhitespace() error {
	lex.precedingNewlines = 0
	lex.precedingSpaces = 0
	for lex.pos < len(lex.src) {
		rest := lex.src[lex.pos:]
		if loc := reSpace.FindStringIndex(rest); loc != nil {
			ws := rest[:loc[1]]
			if n := strings.Count(ws, "\n"); n > 0 {
				lex.precedingNewlines += n
				lex.precedingSpaces = len(ws) - strings.LastIndexByte(ws, '\n') - 1
			} else {
				lex.precedingSpaces += len(ws)
			}
			lex.advance(loc[1])
			continue
		}
		if loc := reLineComment.FindStringIndex(rest); loc != nil {
			lex.advance(loc[1])
			lex.precedingSpaces++
			continue
		}
		if strings.HasPrefix(rest, "/*") {
			loc := reBlockComment.FindStringIndex(rest)
			if loc == nil {
				return fmt.Errorf("unterminated block comment")
			}
			lex.advance(loc[1])
			lex.precedingSpaces++
			continue
		}
		return nil
	}
	return nil
}

func firstRune(s string) string {
	for _, c := range s {
		return string(c)
	}
	return ""
}
