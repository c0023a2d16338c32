// Copyright © 2024 The Expreva authors

package repl

import (
	"io"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/diagnostic"
)

// renderError renders an evaluation error as an annotated snippet.  REPL
// input lives in memory, so the source text is passed through instead of
// read from disk.
func renderError(w io.Writer, name, src string, v *expreva.Val) {
	d := diagnostic.FromEvalError(name, src, v)
	r := &diagnostic.Renderer{Color: diagnostic.ColorAuto}
	_ = r.Render(w, d)
}

// renderParseError renders a parse or lex failure the same way.
func renderParseError(w io.Writer, name, src string, err error) {
	d := diagnostic.FromParseError(name, src, err)
	r := &diagnostic.Renderer{Color: diagnostic.ColorAuto}
	_ = r.Render(w, d)
}
