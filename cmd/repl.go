// Copyright © 2024 The Expreva authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/expreva/expreva/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive expreva REPL",
	Long: `Start an interactive read-eval-print loop for expreva.

Definitions persist across lines. Input that ends mid-expression switches to
a continuation prompt and accumulates until it parses. Line editing, symbol
completion, and in-session command history are supported via readline. Use
Ctrl-D or Ctrl-C to exit.

Example REPL session:
  expreva> 1 + 2
  3
  expreva> square = (x) => x * x
  (x) => (x * x)
  expreva> square(5)
  25
  expreva> [1, 2, 3] -> map(square)
  [1, 4, 9]`,
	Run: func(cmd *cobra.Command, args []string) {
		repl.RunRepl(filepath.Base(os.Args[0]) + "> ")
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
