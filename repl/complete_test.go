// Copyright © 2024 The Expreva authors

package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expreva/expreva"
)

// Fixture names share a prefix no standard binding uses, so candidate
// counts are not disturbed by builtins visible through the scope chain.
func completerEnv(t *testing.T) *symbolCompleter {
	t.Helper()
	env := expreva.NewEnv(nil)
	env.Put("zztotal", expreva.Number(1))
	env.Put("zztoggle", expreva.Number(2))
	env.Put("other", expreva.Number(3))
	return &symbolCompleter{env: env}
}

func TestCompleterPrefixMatch(t *testing.T) {
	c := completerEnv(t)

	suffixes, length := c.Do([]rune("zztog"), 5)
	require.Len(t, suffixes, 1)
	assert.Equal(t, "gle", string(suffixes[0]))
	assert.Equal(t, 5, length)
}

func TestCompleterMultipleCandidates(t *testing.T) {
	c := completerEnv(t)

	suffixes, length := c.Do([]rune("zzto"), 4)
	require.Len(t, suffixes, 2)
	assert.Equal(t, 4, length)
	// Candidates come back sorted by full name.
	assert.Equal(t, "ggle", string(suffixes[0]))
	assert.Equal(t, "tal", string(suffixes[1]))
}

func TestCompleterWordBoundary(t *testing.T) {
	c := completerEnv(t)

	// Only the word under the cursor counts as the prefix.
	suffixes, length := c.Do([]rune("1 + zztot"), 9)
	require.Len(t, suffixes, 1)
	assert.Equal(t, "al", string(suffixes[0]))
	assert.Equal(t, 5, length)
}

func TestCompleterIncludesBuiltins(t *testing.T) {
	c := completerEnv(t)

	// Root bindings are reachable through the scope chain.
	suffixes, _ := c.Do([]rune("filt"), 4)
	require.NotEmpty(t, suffixes)
	assert.Equal(t, "er", string(suffixes[0]))
}

func TestCompleterNoMatch(t *testing.T) {
	c := completerEnv(t)

	suffixes, length := c.Do([]rune("qqq"), 3)
	assert.Empty(t, suffixes)
	assert.Equal(t, 0, length)
}

func TestCompleterEmptyPrefix(t *testing.T) {
	c := completerEnv(t)

	suffixes, length := c.Do([]rune("foo "), 4)
	assert.Empty(t, suffixes)
	assert.Equal(t, 0, length)
}
