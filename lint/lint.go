// Copyright © 2024 The Expreva authors

// Package lint provides static checks for expreva source text.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives the parsed program and reports records. The framework
// handles parsing, running analyzers, collecting results, and formatting
// output. Parse and lex failures become records themselves, so editor
// overlays get one uniform stream of findings.
package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
	"github.com/expreva/expreva/parser/pratt"
)

// Severity indicates the severity level of a lint record.
type Severity int

const (
	severityUnset Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.  The unset zero
// value marshals as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal(SeverityWarning.String())
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity %q", str)
	}
	return nil
}

// Record is a single finding.
type Record struct {
	Analyzer string   `json:"analyzer"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

// Result carries every record for one source unit plus the statements that
// parsed before any failure, so hosts can still render partial output.
type Result struct {
	File    string         `json:"file"`
	Records []Record       `json:"records"`
	Partial []*expreva.Val `json:"-"`
}

// Analyzer is one independent check over a parsed program.
type Analyzer struct {
	Name string
	Doc  string
	Run  func(pass *Pass) error
}

// Pass carries the inputs of one analyzer run and collects its records.
type Pass struct {
	File     string
	Source   string
	Program  *expreva.Val
	analyzer *Analyzer
	records  *[]Record
}

// Report adds a record at the location of node.  A nil node reports at the
// start of the file.
func (p *Pass) Report(node *expreva.Val, severity Severity, format string, args ...interface{}) {
	rec := Record{
		Analyzer: p.analyzer.Name,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		File:     p.File,
		Line:     1,
		Column:   1,
	}
	if node != nil && node.Source != nil && node.Source.Line > 0 {
		rec.Line = node.Source.Line
		rec.Column = node.Source.Col
	}
	*p.records = append(*p.records, rec)
}

// Lint parses src and runs analyzers over the program.  A parse failure
// produces an error record and skips the analyzers, since they need a
// complete tree.
func Lint(file, src string, analyzers []*Analyzer) Result {
	res := Result{File: file}
	program, err := parser.Parse(file, src)
	if err != nil {
		rec := Record{
			Analyzer: "parse",
			Severity: SeverityError,
			Message:  err.Error(),
			File:     file,
			Line:     1,
			Column:   1,
		}
		var perr *pratt.ParseError
		var lerr *pratt.LexError
		switch {
		case asParseError(err, &perr):
			rec.Message = perr.Message
			rec.Line = perr.Line
			rec.Column = perr.Column
			res.Partial = perr.Partial
		case asLexError(err, &lerr):
			rec.Analyzer = "lex"
			rec.Message = lerr.Message
			rec.Line = lerr.Line
			rec.Column = lerr.Column
		}
		res.Records = append(res.Records, rec)
		return res
	}
	for _, a := range analyzers {
		pass := &Pass{
			File:     file,
			Source:   src,
			Program:  program,
			analyzer: a,
			records:  &res.Records,
		}
		if err := a.Run(pass); err != nil {
			res.Records = append(res.Records, Record{
				Analyzer: a.Name,
				Severity: SeverityError,
				Message:  fmt.Sprintf("analyzer failed: %v", err),
				File:     file,
				Line:     1,
				Column:   1,
			})
		}
	}
	sortRecords(res.Records)
	return res
}

func asParseError(err error, target **pratt.ParseError) bool {
	if perr, ok := err.(*pratt.ParseError); ok {
		*target = perr
		return true
	}
	return false
}

func asLexError(err error, target **pratt.LexError) bool {
	if lerr, ok := err.(*pratt.LexError); ok {
		*target = lerr
		return true
	}
	return false
}

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Line != recs[j].Line {
			return recs[i].Line < recs[j].Line
		}
		return recs[i].Column < recs[j].Column
	})
}

// FormatText writes records in the conventional file:line:col style.
func FormatText(w io.Writer, res Result) error {
	for _, rec := range res.Records {
		_, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s (%s)\n",
			rec.File, rec.Line, rec.Column, rec.Severity, rec.Message, rec.Analyzer)
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatJSON writes the result as a single JSON document.
func FormatJSON(w io.Writer, res Result) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
