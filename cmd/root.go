// Copyright © 2024 The Expreva authors

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	colorFlag   string
	verboseFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expreva",
	Short: "Expreva — embeddable expression language",
	Long: `Expreva is a small expression language implemented in Go. It parses
familiar infix syntax into a homoiconic nested-list syntax tree and evaluates
it with first-class functions, closures, and lexical scope.

Getting started:
  expreva run file.ev            Run a source file
  expreva run -e '1 + 2'         Evaluate an expression
  expreva repl                   Start an interactive REPL
  expreva ast -e 'x = 1 + 2'     Show the syntax tree of an expression
  expreva tokens                 List the lexer's token types
  expreva lint file.ev           Run static analysis checks

Language overview:
  Statements separate with ; or newlines and evaluate left to right.
  Functions are arrow lambdas: square = (x) => x * x
  Lists are [1, 2, 3] and objects are { a: 1, b: 2 }.
  Pipes apply the left side as arguments: [1, 2, 3] -> map((x) => x * 2)
  Quoting with expr(...) yields the syntax tree itself, and ~f defines a
  macro that receives unevaluated arguments.
  Error handling uses try(body, catch(e, handler)).

More information:
  Source code:     https://github.com/expreva/expreva`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.expreva.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Log evaluation details to stderr.")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".expreva" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".expreva")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	logrus.SetOutput(os.Stderr)
	if verboseFlag {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}
