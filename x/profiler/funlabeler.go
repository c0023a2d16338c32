// Copyright © 2024 The Expreva authors

package profiler

import (
	"regexp"

	"github.com/expreva/expreva"
)

// FunLabeler provides an alternative name for a function label in the trace.
type FunLabeler func(runtime *expreva.Runtime, fun *expreva.Val) string

// WithFunLabeler sets the labeler for tracing spans.
func WithFunLabeler(funLabeler FunLabeler) Option {
	return func(p *profiler) {
		p.funLabeler = funLabeler
	}
}

var sanitizeRegExp = regexp.MustCompile(`[\s_]+`)

// sanitizeLabel makes a user-supplied label safe for trace viewers by
// collapsing whitespace runs into underscores.
func sanitizeLabel(userLabel string) string {
	if userLabel == "" {
		return ""
	}
	return sanitizeRegExp.ReplaceAllString(userLabel, "_")
}
