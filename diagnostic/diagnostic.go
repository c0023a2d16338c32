// Copyright © 2024 The Expreva authors

// Package diagnostic renders annotated source snippets for expreva errors.
// It is independent of the evaluator so CLI commands and editor overlays can
// use it without import cycles; conversion helpers accept the error types the
// parser and evaluator produce.
package diagnostic

import (
	"errors"
	"strconv"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/pratt"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source text to highlight.  When Source is
// non-empty the renderer reads the snippet from it directly; otherwise it
// reads the file named by File.  Expreva programs frequently live in memory
// (REPL lines, embedded strings) rather than on disk.
type Span struct {
	File   string
	Source string
	Line   int // 1-based
	Col    int // 1-based start column
	EndCol int // 1-based end column (0 = auto-detect)
	Label  string
}

// Diagnostic is a single error, warning, or note with optional source
// annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}

// FromParseError converts a parse or lex failure into a Diagnostic pointing
// at the offending position in src.
func FromParseError(name, src string, err error) Diagnostic {
	var perr *pratt.ParseError
	if errors.As(err, &perr) {
		d := Diagnostic{
			Severity: SeverityError,
			Message:  perr.Message,
			Spans: []Span{{
				File:   name,
				Source: src,
				Line:   perr.Line,
				Col:    perr.Column,
			}},
		}
		if n := len(perr.Partial); n > 0 {
			d.Notes = append(d.Notes, "parsed "+plural(n, "statement")+" before the failure")
		}
		return d
	}
	var lerr *pratt.LexError
	if errors.As(err, &lerr) {
		return Diagnostic{
			Severity: SeverityError,
			Message:  lerr.Message,
			Spans: []Span{{
				File:   name,
				Source: src,
				Line:   lerr.Line,
				Col:    lerr.Column,
			}},
		}
	}
	return Diagnostic{Severity: SeverityError, Message: err.Error()}
}

// FromEvalError converts an error value produced by the evaluator into a
// Diagnostic.  The condition becomes a trailing note so the primary message
// stays short.
func FromEvalError(name, src string, v *expreva.Val) Diagnostic {
	ev := (*expreva.ErrorVal)(v)
	d := Diagnostic{
		Severity: SeverityError,
		Message:  ev.ErrorMessage(),
	}
	if cond := ev.Condition(); cond != "" {
		d.Notes = append(d.Notes, "condition: "+cond)
	}
	if loc := v.Source; loc != nil && loc.Line > 0 {
		span := Span{
			File: loc.File,
			Line: loc.Line,
			Col:  loc.Col,
		}
		if loc.File == name || loc.File == "" {
			span.File = name
			span.Source = src
		}
		d.Spans = append(d.Spans, span)
	}
	return d
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
