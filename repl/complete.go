// Copyright © 2024 The Expreva authors

package repl

import (
	"sort"
	"strings"

	"github.com/expreva/expreva"
)

// symbolCompleter implements readline.AutoCompleter by enumerating bindings
// visible from the REPL environment.
type symbolCompleter struct {
	env *expreva.Env
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Walk backwards from the cursor to the start of the word being typed.
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '[' || ch == '{' || ch == ',' || ch == '.' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collectSymbols(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Each completion entry is the suffix to append after the prefix.
	result := make([][]rune, 0, len(candidates))
	for _, sym := range candidates {
		result = append(result, []rune(sym[len(prefix):]))
	}
	return result, len(prefix)
}

// collectSymbols gathers matching names from the whole scope chain,
// including the shared root bindings.
func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	for env := c.env; env != nil; env = env.Parent {
		for name := range env.Scope {
			if strings.HasPrefix(name, prefix) && !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	sort.Strings(result)
	return result
}
