// Copyright © 2024 The Expreva authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/lint"
	"github.com/expreva/expreva/parser"
)

var astSource bool

var astCmd = &cobra.Command{
	Use:   "ast [flags] [files...]",
	Short: "Show the syntax tree of expreva code",
	Long: `Parse expreva code and print its syntax tree without evaluating it.

The tree prints one statement per line in its nested-list form, the same
homoiconic shape quoted code evaluates to. With --source each statement is
printed back as round-trippable source instead.

Examples:
  expreva ast file.ev              Show the tree of a file
  expreva ast -e 'x = 1 + 2'       Show the tree of an expression
  expreva ast --source -e 'x=1+2'  Print normalized source`,
	Run: func(cmd *cobra.Command, args []string) {
		exprs, err := runReadExpressions(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, src := range exprs {
			ast, perr := parser.Parse(src.name, src.text)
			if perr != nil {
				renderParseFailure(src.name, src.text, perr)
				os.Exit(1)
			}
			for _, stmt := range lint.Statements(ast) {
				if astSource {
					fmt.Println(expreva.PrintSyntaxTree(stmt))
				} else {
					fmt.Println(expreva.PrintValue(stmt))
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(astCmd)

	astCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as expressions")
	astCmd.Flags().BoolVar(&astSource, "source", false,
		"Print statements as normalized source instead of nested lists")
}
