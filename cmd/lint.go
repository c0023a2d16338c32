// Copyright © 2024 The Expreva authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expreva/expreva/lint"
)

var (
	lintJSON     bool
	lintChecks   string
	lintListAll  bool
	lintExcludes []string
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [files...]",
	Short: "Run static analysis checks on expreva source files",
	Long: `Run static analysis checks on expreva source files.

The linter reports likely mistakes, similar to "go vet" for Go. Each check is
an independent analyzer that examines the parsed syntax tree and reports
records. A file that fails to parse produces a parse record instead, along
with the statements that parsed before the failure.

With no files, reads from stdin. With files, analyzes each file and reports
all findings.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

Examples:
  expreva lint file.ev                         Lint a single file
  expreva lint *.ev                            Lint multiple files
  expreva lint --json file.ev                  Output records as JSON
  expreva lint --checks=undefined-names f.ev   Run only specific checks
  expreva lint --list                          List available checks
  expreva lint --exclude='vendor' ./...        Exclude a directory
  cat file.ev | expreva lint                   Lint from stdin`,
	Run: func(cmd *cobra.Command, args []string) {
		if lintListAll {
			for _, a := range lint.DefaultAnalyzers() {
				fmt.Println(a.Name)
			}
			return
		}

		analyzers, err := selectAnalyzers(lintChecks)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		if len(args) == 0 {
			src, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
				os.Exit(2)
			}
			reportLint([]lint.Result{lint.Lint("<stdin>", string(src), analyzers)},
				map[string]string{"<stdin>": string(src)})
			return
		}

		expanded, err := expandArgs(args, lintExcludes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		var results []lint.Result
		sources := make(map[string]string)
		for _, path := range expanded {
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				os.Exit(2)
			}
			sources[path] = string(src)
			results = append(results, lint.Lint(path, string(src), analyzers))
		}
		reportLint(results, sources)
	},
}

// selectAnalyzers resolves a comma-separated checks list against the default
// analyzer set.  An empty list selects everything.
func selectAnalyzers(checks string) ([]*lint.Analyzer, error) {
	analyzers := lint.DefaultAnalyzers()
	if checks == "" {
		return analyzers, nil
	}
	selected := make(map[string]bool)
	for _, name := range strings.Split(checks, ",") {
		selected[strings.TrimSpace(name)] = true
	}
	var filtered []*lint.Analyzer
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
			delete(selected, a.Name)
		}
	}
	for name := range selected {
		return nil, fmt.Errorf("expreva lint: unknown check: %s", name)
	}
	return filtered, nil
}

// reportLint writes all results and exits 1 when any record was reported.
func reportLint(results []lint.Result, sources map[string]string) {
	total := 0
	for _, res := range results {
		total += len(res.Records)
	}
	if total == 0 {
		return
	}
	if lintJSON {
		for _, res := range results {
			if len(res.Records) == 0 {
				continue
			}
			if err := lint.FormatJSON(os.Stdout, res); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
		}
	} else {
		renderLintResults(results, sources)
	}
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintJSON, "json", false,
		"Output records as JSON.")
	lintCmd.Flags().StringVar(&lintChecks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	lintCmd.Flags().BoolVar(&lintListAll, "list", false,
		"List available checks and exit.")
	lintCmd.Flags().StringArrayVar(&lintExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}
