// Copyright © 2024 The Expreva authors

package diagnostic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
)

func render(t *testing.T, d Diagnostic) string {
	t.Helper()
	r := &Renderer{Color: ColorNever}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderWithInlineSource(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "cannot assign to a literal",
		Spans: []Span{{
			File:   "script",
			Source: "1 = 2",
			Line:   1,
			Col:    1,
			EndCol: 1,
			Label:  "assignment target",
		}},
	}
	got := render(t, d)
	assert.Contains(t, got, "error: cannot assign to a literal")
	assert.Contains(t, got, "--> script:1:1")
	assert.Contains(t, got, "1 = 2")
	assert.Contains(t, got, "^")
	assert.Contains(t, got, "assignment target")
}

func TestRenderFromParseError(t *testing.T) {
	src := "a = 1\nb = "
	_, err := parser.Parse("script", src)
	require.Error(t, err)
	d := FromParseError("script", src, err)
	got := render(t, d)
	assert.Contains(t, got, "error:")
	assert.Contains(t, got, "script:2")
	assert.Contains(t, got, "b = ")
	assert.Contains(t, got, "note: parsed 1 statement before the failure")
}

func TestRenderFromEvalError(t *testing.T) {
	src := "boom"
	env := expreva.NewEnv(nil)
	v := parser.EvalString("script", src, env)
	require.True(t, v.IsError())
	d := FromEvalError("script", src, v)
	got := render(t, d)
	assert.Contains(t, got, "error:")
	assert.Contains(t, got, "note: condition: undefined-symbol")
}

func TestRenderWarningAndNote(t *testing.T) {
	got := render(t, Diagnostic{Severity: SeverityWarning, Message: "shadowed binding"})
	assert.Contains(t, got, "warning: shadowed binding")

	got = render(t, Diagnostic{Severity: SeverityNote, Message: "macro expanded here"})
	assert.Contains(t, got, "note: macro expanded here")
}

func TestRenderMissingSource(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "boom",
		Spans:    []Span{{File: "<native code>", Line: 3, Col: 1}},
	}
	got := render(t, d)
	assert.Contains(t, got, "--> <native code>:3:1")
	// Without source text the gutter renders empty rather than failing.
	assert.Contains(t, got, "|")
}

func TestRenderWrapsMessage(t *testing.T) {
	r := &Renderer{Color: ColorNever, Width: 20}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Diagnostic{
		Severity: SeverityError,
		Message:  "a very long message that should wrap onto several lines",
	}))
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("\n")), 1)
}
