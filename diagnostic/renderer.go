// Copyright © 2024 The Expreva authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
)

// Renderer formats diagnostics as annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output.  Default is ColorAuto.
	Color ColorMode

	// Width wraps the message line when positive.
	Width int

	// SourceReader reads source file contents for spans that carry no
	// inline source.  If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for _, span := range d.Spans {
		r.writeSpan(ew, span, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s=%s note: %s\n", p.boldCyan, p.reset, note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter captures the first write error and short-circuits the rest, so
// the rendering code does not check every Fprintf return.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	var sevColor string
	switch d.Severity {
	case SeverityError:
		sevColor = p.boldRed
	case SeverityWarning:
		sevColor = p.yellow
	case SeverityNote:
		sevColor = p.boldCyan
	}
	msg := d.Message
	if r.Width > 0 {
		msg = wordwrap.String(msg, r.Width)
	}
	ew.printf("%s%s%s%s:%s %s%s%s\n",
		sevColor, p.bold, d.Severity, p.reset,
		p.reset,
		p.bold, msg, p.reset)
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, p palette) {
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s-->%s %s\n", p.boldBlue, p.reset, loc)

	source := r.sourceLine(span)
	if source == "" {
		ew.printf("   %s|%s\n", p.boldBlue, p.reset)
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineStr))

	ew.printf(" %s%s |%s\n", p.boldBlue, pad, p.reset)

	// Tabs render as four spaces so the underline stays aligned.
	displaySource := strings.ReplaceAll(source, "\t", "    ")
	ew.printf(" %s%s |%s  %s\n", p.boldBlue, lineStr, p.reset, displaySource)

	col := span.Col
	endCol := span.EndCol
	if col <= 0 {
		col = 1
	}
	if endCol <= 0 {
		endCol = detectEndCol(source, col)
	}
	if endCol < col {
		endCol = col
	}
	underLen := endCol - col + 1

	prefix := ""
	if col > 1 && col-1 <= len(source) {
		prefix = source[:col-1]
	}
	underPad := strings.Repeat(" ", displayWidth(prefix))
	underline := strings.Repeat("^", underLen)

	ew.printf(" %s%s |%s  %s%s%s%s", p.boldBlue, pad, p.reset, underPad, p.boldRed, underline, p.reset)
	if span.Label != "" {
		ew.printf(" %s%s%s", p.boldRed, span.Label, p.reset)
	}
	ew.print("\n")

	ew.printf(" %s%s |%s\n", p.boldBlue, pad, p.reset)
}

// sourceLine resolves the text of the span's line, preferring inline source
// over the filesystem.
func (r *Renderer) sourceLine(span Span) string {
	if span.Line <= 0 {
		return ""
	}
	if span.Source != "" {
		return nthLine([]byte(span.Source), span.Line)
	}
	if span.File == "" || strings.HasPrefix(span.File, "<") {
		return ""
	}
	reader := r.SourceReader
	if reader == nil {
		reader = os.ReadFile
	}
	data, err := reader(span.File)
	if err != nil {
		return ""
	}
	return nthLine(data, span.Line)
}

func nthLine(data []byte, line int) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return scanner.Text()
		}
	}
	return ""
}

// detectEndCol scans from col to the end of the current token.
func detectEndCol(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if ch == ' ' || ch == '\t' || ch == ')' || ch == ']' || ch == '(' || ch == '[' {
			break
		}
		end += size
	}
	if end == col-1 {
		return col
	}
	return end
}

// displayWidth returns the rendered width of s with tabs expanded to four
// spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

// fileFromWriter extracts an *os.File from a writer for terminal detection.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
