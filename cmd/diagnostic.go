// Copyright © 2024 The Expreva authors

package cmd

import (
	"os"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/diagnostic"
	"github.com/expreva/expreva/lint"
)

func colorMode() diagnostic.ColorMode {
	switch colorFlag {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// renderParseFailure renders a parse or lex error with an annotated source
// snippet to stderr.
func renderParseFailure(name, src string, err error) {
	d := diagnostic.FromParseError(name, src, err)
	_ = newRenderer().Render(os.Stderr, d)
}

// renderEvalFailure renders an evaluation error value to stderr.
func renderEvalFailure(name, src string, v *expreva.Val) {
	d := diagnostic.FromEvalError(name, src, v)
	_ = newRenderer().Render(os.Stderr, d)
}

func severityFor(s lint.Severity) diagnostic.Severity {
	switch s {
	case lint.SeverityError:
		return diagnostic.SeverityError
	case lint.SeverityInfo:
		return diagnostic.SeverityNote
	default:
		return diagnostic.SeverityWarning
	}
}

// recordToDiagnostic converts one lint record for annotated display.  The
// file's source is attached inline so stdin input still renders a snippet.
func recordToDiagnostic(rec lint.Record, src string) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: severityFor(rec.Severity),
		Message:  rec.Message + " (" + rec.Analyzer + ")",
	}
	if rec.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			File:   rec.File,
			Source: src,
			Line:   rec.Line,
			Col:    rec.Column,
		})
	}
	return d
}

// renderLintResults renders lint records with annotated source snippets to
// stderr.
func renderLintResults(results []lint.Result, sources map[string]string) {
	r := newRenderer()
	var ds []diagnostic.Diagnostic
	for _, res := range results {
		for _, rec := range res.Records {
			ds = append(ds, recordToDiagnostic(rec, sources[res.File]))
		}
	}
	_ = r.RenderAll(os.Stderr, ds)
}
