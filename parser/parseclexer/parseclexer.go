// Copyright © 2024 The Expreva authors

// Package parseclexer is an alternate tokenizer built on the goparsec
// combinator library.  It consumes the same rule table as package lexer and
// produces an identical token stream, which makes it a useful cross-check
// of the hand-rolled scanner and a template for combinator-based dialects.
package parseclexer

import (
	"fmt"
	"sort"
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/expreva/expreva/parser/lexer"
	"github.com/expreva/expreva/parser/token"
)

const commentName = "comment"

var typeNames = map[string]token.Type{
	token.NUMBER.String():    token.NUMBER,
	token.STRING.String():    token.STRING,
	token.NAME.String():      token.NAME,
	token.OP.String():        token.OP,
	token.PAREN.String():     token.PAREN,
	token.BRACKET.String():   token.BRACKET,
	token.COMMA.String():     token.COMMA,
	token.SEMICOLON.String(): token.SEMICOLON,
}

// Lexer tokenizes expreva source with parsec combinators.
type Lexer struct {
	file        string
	src         []byte
	scanner     parsec.Scanner
	tokenizer   parsec.Parser
	lineOffsets []int
	lastEnd     int
	done        bool
}

// New initializes a Lexer for src.  The file name appears in token source
// locations.
func New(file, src string) *Lexer {
	rules := lexer.Rules()
	alts := make([]interface{}, 0, len(rules)+2)
	alts = append(alts, parsec.Token(`^//[^\n]*`, commentName))
	alts = append(alts, parsec.Token(`^/\*(?s:.*?)\*/`, commentName))
	for _, r := range rules {
		alts = append(alts, parsec.Token(`^(?:`+r.Pattern+`)`, r.Type.String()))
	}
	l := &Lexer{
		file:    file,
		src:     []byte(src),
		scanner: parsec.NewScanner([]byte(src)),
	}
	l.tokenizer = parsec.OrdChoice(nil, alts...)
	l.lineOffsets = append(l.lineOffsets, 0)
	for i, c := range src {
		if c == '\n' {
			l.lineOffsets = append(l.lineOffsets, i+1)
		}
	}
	return l
}

// ReadToken returns the next token.  It keeps the batch-of-tokens signature
// of the primary lexer so the two are interchangeable as parser input.
func (l *Lexer) ReadToken() []*token.Token {
	for {
		if l.done {
			return []*token.Token{l.eofToken()}
		}
		node, scanner := l.tokenizer(l.scanner)
		l.scanner = scanner
		if node == nil {
			if _, s := l.scanner.SkipWS(); s.Endof() {
				l.scanner = s
				l.done = true
				return []*token.Token{l.eofToken()}
			}
			return []*token.Token{l.errorToken()}
		}
		term := terminal(node)
		if term == nil {
			return []*token.Token{l.errorToken()}
		}
		if term.Name == commentName {
			continue
		}
		typ, ok := typeNames[term.Name]
		if !ok {
			return []*token.Token{l.errorToken()}
		}
		return []*token.Token{l.emit(typ, term)}
	}
}

func terminal(node parsec.ParsecNode) *parsec.Terminal {
	switch n := node.(type) {
	case *parsec.Terminal:
		return n
	case []parsec.ParsecNode:
		if len(n) == 1 {
			if t, ok := n[0].(*parsec.Terminal); ok {
				return t
			}
		}
	}
	return nil
}

func (l *Lexer) emit(typ token.Type, term *parsec.Terminal) *token.Token {
	pos := term.Position
	end := pos + len(term.Value)
	newlines, spaces := l.countGap(l.lastEnd, pos)
	l.lastEnd = end
	return &token.Token{
		Type:              typ,
		Text:              term.Value,
		Source:            l.locate(pos, end),
		PrecedingNewlines: newlines,
		PrecedingSpaces:   spaces,
	}
}

func (l *Lexer) countGap(from, to int) (newlines, spaces int) {
	for i := from; i < to && i < len(l.src); i++ {
		if l.src[i] == '\n' {
			newlines++
		} else {
			spaces++
		}
	}
	return newlines, spaces
}

func (l *Lexer) locate(pos, end int) *token.Location {
	line := sort.SearchInts(l.lineOffsets, pos+1)
	col := pos - l.lineOffsets[line-1] + 1
	return &token.Location{
		File: l.file,
		Pos:  pos,
		End:  end,
		Line: line,
		Col:  col,
	}
}

func (l *Lexer) eofToken() *token.Token {
	pos := len(l.src)
	return &token.Token{
		Type:   token.EOF,
		Source: l.locate(pos, pos),
	}
}

// errorToken reports unmatched input and skips past one character so the
// stream keeps making progress.
func (l *Lexer) errorToken() *token.Token {
	cursor := l.scanner.GetCursor()
	rest := string(l.src[cursor:])
	bad := rest
	if i := strings.IndexAny(rest, " \t\r\n"); i > 0 {
		bad = rest[:i]
	}
	_, l.scanner = l.scanner.SkipAny(`^(?s:.)`)
	return &token.Token{
		Type:   token.ERROR,
		Text:   fmt.Sprintf("unexpected text %q", bad),
		Source: l.locate(cursor, cursor+1),
	}
}
