// Copyright © 2024 The Expreva authors

// Package repl implements the interactive expreva shell.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
	"github.com/expreva/expreva/parser/pratt"
)

type config struct {
	stdin  io.ReadCloser
	stderr io.WriteCloser
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Option customizes RunRepl and RunEnv.
type Option func(*config)

// WithStdin overrides the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr overrides the output of the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// RunRepl runs a REPL against a fresh environment with the standard
// bindings.
func RunRepl(prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	var envOpts []expreva.Config
	if cfg.stderr != nil {
		envOpts = append(envOpts, expreva.WithStderr(cfg.stderr))
	}
	env := expreva.NewEnv(nil, envOpts...)
	RunEnv(env, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunEnv runs a REPL evaluating in env.  Definitions persist across lines.
// Input that ends mid-expression (an unclosed bracket, a trailing operator)
// switches to the continuation prompt and accumulates until it parses.
func RunEnv(env *expreva.Env, prompt, cont string, opts ...Option) {
	cfg := newConfig(opts...)
	stderr := io.Writer(os.Stderr)
	if cfg.stderr != nil {
		stderr = cfg.stderr
	}

	histFile := historyPath()
	ensureHistoryFilePermissions(histFile)
	rlCfg := &readline.Config{
		Stdout:            stderr,
		Stderr:            stderr,
		Prompt:            prompt,
		HistoryFile:       histFile,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{env: env},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var buffer []string
	lineno := 0
	for {
		if len(buffer) == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(cont)
		}
		line, err := rl.ReadLine()
		if err == readline.ErrInterrupt {
			buffer = nil
			continue
		}
		if err != nil {
			break
		}
		if len(buffer) == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		buffer = append(buffer, line)
		lineno++

		src := strings.Join(buffer, "\n")
		name := fmt.Sprintf("repl:%d", lineno-len(buffer)+1)
		ast, perr := parser.Parse(name, src)
		if perr != nil {
			if needsMore(perr) {
				continue
			}
			renderParseError(stderr, name, src, perr)
			buffer = nil
			continue
		}
		buffer = nil

		v := expreva.Evaluate(ast, env)
		if v.IsError() {
			renderError(stderr, name, src, v)
			continue
		}
		fmt.Fprintln(stderr, expreva.PrintValue(v)) //nolint:errcheck // best-effort REPL output
	}
}

// needsMore reports whether a parse failure means the expression continues
// on the next line rather than being malformed.
func needsMore(err error) bool {
	var perr *pratt.ParseError
	if !errors.As(err, &perr) {
		return false
	}
	return strings.Contains(perr.Message, "end of input")
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".expreva_history")
}

// ensureHistoryFilePermissions creates the history file with mode 0600, or
// restricts an existing one.  Command history can contain secrets.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0600) //nolint:gosec // user-owned history file
	if err == nil {
		f.Close() //nolint:errcheck,gosec // best-effort cleanup
	}
	_ = os.Chmod(path, 0600)
}
