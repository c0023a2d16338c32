// Copyright © 2024 The Expreva authors

package pratt

import (
	"github.com/expreva/expreva/parser/token"
)

// TokenGenerator produces the next batch of tokens from an underlying
// scanner.  Generators signal exhaustion with a batch whose final token has
// type EOF; the generator is not called again after that.
type TokenGenerator func() []*token.Token

// TokenSource supplies tokens to the parser with one token of lookahead and
// Save/Restore bookmarks.  Restore works over any generator, including
// interactive ones that cannot seek, by recording the tokens consumed since
// Save and replaying them.  Bookmarks nest: each Restore or Discard closes
// the most recent open Save.
type TokenSource struct {
	gen     TokenGenerator
	queue   []*token.Token
	tok     *token.Token
	eof     bool
	history []*token.Token
	marks   []bookmark
}

type bookmark struct {
	tok  *token.Token
	hist int
}

// NewTokenSource initializes a TokenSource reading from gen.
func NewTokenSource(gen TokenGenerator) *TokenSource {
	s := &TokenSource{gen: gen}
	s.Advance()
	return s
}

func (s *TokenSource) fill() {
	for len(s.queue) == 0 && !s.eof {
		batch := s.gen()
		for _, t := range batch {
			if t.Type == token.EOF {
				s.eof = true
			}
		}
		s.queue = append(s.queue, batch...)
	}
	if len(s.queue) == 0 {
		// Exhausted generator without an EOF token.  Synthesize one so the
		// parser always terminates.
		s.queue = append(s.queue, &token.Token{Type: token.EOF})
		s.eof = true
	}
}

// Current returns the token under the cursor without consuming it.
func (s *TokenSource) Current() *token.Token {
	return s.tok
}

// Peek returns the token after the current one without consuming anything.
func (s *TokenSource) Peek() *token.Token {
	s.fill()
	return s.queue[0]
}

// Advance consumes the current token and moves the cursor to the next one.
// It returns the newly current token.
func (s *TokenSource) Advance() *token.Token {
	s.fill()
	next := s.queue[0]
	if next.Type != token.EOF || len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	if len(s.marks) > 0 && s.tok != nil {
		s.history = append(s.history, s.tok)
	}
	s.tok = next
	return next
}

// Save bookmarks the current position.  A later Restore rewinds to it.
func (s *TokenSource) Save() {
	s.marks = append(s.marks, bookmark{tok: s.tok, hist: len(s.history)})
}

// Restore rewinds to the most recent bookmark and closes it.  It panics
// when no bookmark is open.
func (s *TokenSource) Restore() {
	if len(s.marks) == 0 {
		panic("restore without save")
	}
	mark := s.marks[len(s.marks)-1]
	s.marks = s.marks[:len(s.marks)-1]
	// Everything consumed since the bookmark replays ahead of any pending
	// lookahead; the bookmarked token becomes current again.
	replay := append([]*token.Token{}, s.history[mark.hist:]...)
	if s.tok != nil {
		replay = append(replay, s.tok)
	}
	if len(replay) > 1 {
		s.queue = append(replay[1:], s.queue...)
	}
	s.tok = mark.tok
	s.history = s.history[:mark.hist]
}

// Discard closes the most recent bookmark, keeping the cursor where it is.
func (s *TokenSource) Discard() {
	if len(s.marks) == 0 {
		return
	}
	s.marks = s.marks[:len(s.marks)-1]
	if len(s.marks) == 0 {
		s.history = s.history[:0]
	}
}
