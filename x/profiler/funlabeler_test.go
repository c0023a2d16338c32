// Copyright © 2024 The Expreva authors

package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{
			name:     "empty",
			label:    "",
			expected: "",
		},
		{
			name:     "plain",
			label:    "addIt",
			expected: "addIt",
		},
		{
			name:     "spaces",
			label:    "Add  It",
			expected: "Add_It",
		},
		{
			name:     "mixed whitespace",
			label:    "Add \tIt_ Again",
			expected: "Add_It_Again",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual := sanitizeLabel(tc.label)
			assert.Equal(t, tc.expected, actual, "sanitizeLabel(%s)", tc.label)
		})
	}
}
