// Copyright © 2024 The Expreva authors

package profiler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/x/profiler"
)

func TestNewPprofAnnotator(t *testing.T) {
	env := expreva.NewEnv(nil, expreva.WithStderr(&bytes.Buffer{}))
	ppa := profiler.NewPprofAnnotator(env.Runtime, context.Background())
	assert.NoError(t, ppa.Enable())

	evalTestProgram(t, env)
	assert.NoError(t, ppa.Complete())
}

func TestNewPprofAnnotatorNilContext(t *testing.T) {
	env := expreva.NewEnv(nil)
	ppa := profiler.NewPprofAnnotator(env.Runtime, nil)
	assert.NoError(t, ppa.Enable(), "nil context defaults to background")
}
