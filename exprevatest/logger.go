// Copyright © 2024 The Expreva authors

package exprevatest

import (
	"bytes"
	"io"
	"testing"
)

// Logger is an io.Writer that forwards complete lines to a testing log, so
// program output interleaves with test output instead of escaping to
// stderr.
type Logger struct {
	t   testing.TB
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{t: t}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.buf = append(log.buf, b...)
	i := bytes.Index(log.buf, []byte("\n"))
	if i < 0 {
		return len(b), nil
	}
	log.t.Log(string(log.buf[:i]))
	log.buf = log.buf[i+1:]
	return len(b), nil
}

// Flush logs any buffered partial line.
func (log *Logger) Flush() {
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}
