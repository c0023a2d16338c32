// Copyright © 2024 The Expreva authors

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/expreva/expreva/parser"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the lexer's token types",
	Long: `List the lexer's token types and the regular expression each one
matches, in match order. Editors and highlighters can consume the same table
programmatically through parser.TokenTypes.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, rule := range parser.TokenTypes() {
			fmt.Fprintf(w, "%s\t%s\n", rule.Type, rule.Pattern)
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
