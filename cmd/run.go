// Copyright © 2024 The Expreva authors

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser"
	"github.com/expreva/expreva/x/profiler"
)

var (
	runExpression bool
	runPrint      bool
	runMaxSteps   int64
	runProfile    string
	runProfileOut string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [files...]",
	Short: "Evaluate expreva code",
	Long: `Evaluate expreva code supplied via the command line or files.

Files evaluate in order against one shared environment, so definitions in an
earlier file are visible in later ones. With -e the arguments are treated as
expressions instead of file paths.

Profiling modes (--profile):
  callgrind   Write a Callgrind file for KCacheGrind/QCacheGrind
  pprof       Tag pprof samples with expreva function names

Examples:
  expreva run file.ev                 Run a source file
  expreva run -e '1 + 2'              Evaluate an expression
  expreva run -p -e 'x = 2' 'x * x'   Print each result
  expreva run --max-steps 100000 f.ev Bound the evaluation step count
  expreva run --profile callgrind --profile-out out.prof f.ev`,
	Run: func(cmd *cobra.Command, args []string) {
		exprs, err := runReadExpressions(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		var envOpts []expreva.Config
		if runMaxSteps > 0 {
			envOpts = append(envOpts, expreva.WithMaxSteps(runMaxSteps))
		}
		env := expreva.NewEnv(nil, envOpts...)
		finish, err := startProfiler(env)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, src := range exprs {
			logrus.WithField("name", src.name).Debug("evaluating")
			ast, perr := parser.Parse(src.name, src.text)
			if perr != nil {
				renderParseFailure(src.name, src.text, perr)
				os.Exit(1)
			}
			v := expreva.Evaluate(ast, env)
			if v.IsError() {
				renderEvalFailure(src.name, src.text, v)
				os.Exit(1)
			}
			if runPrint {
				fmt.Println(expreva.PrintValue(v))
			}
		}
		if err := finish(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

type namedSource struct {
	name string
	text string
}

func runReadExpressions(args []string) ([]namedSource, error) {
	exprs := make([]namedSource, len(args))
	if runExpression {
		for i := range args {
			exprs[i] = namedSource{name: fmt.Sprintf("argv:%d", i+1), text: args[i]}
		}
		return exprs, nil
	}
	for i, path := range args {
		b, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			return nil, err
		}
		exprs[i] = namedSource{name: path, text: string(b)}
	}
	return exprs, nil
}

// startProfiler wires the selected profiler into env and returns the
// function that finishes the profile.
func startProfiler(env *expreva.Env) (func() error, error) {
	switch runProfile {
	case "":
		return func() error { return nil }, nil
	case "callgrind":
		out := runProfileOut
		if out == "" {
			out = "expreva.callgrind"
		}
		p := profiler.NewCallgrindProfiler(env.Runtime)
		if err := p.SetFile(out); err != nil {
			return nil, err
		}
		if err := p.Enable(); err != nil {
			return nil, err
		}
		return p.Complete, nil
	case "pprof":
		p := profiler.NewPprofAnnotator(env.Runtime, context.Background())
		if err := p.Enable(); err != nil {
			return nil, err
		}
		return p.Complete, nil
	default:
		return nil, fmt.Errorf("unknown profile mode: %s", runProfile)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as expressions")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print each evaluation result to stdout")
	runCmd.Flags().Int64Var(&runMaxSteps, "max-steps", 0,
		"Cancel evaluation after this many steps (0 means unlimited)")
	runCmd.Flags().StringVar(&runProfile, "profile", "",
		`Profile evaluation: "callgrind" or "pprof"`)
	runCmd.Flags().StringVar(&runProfileOut, "profile-out", "",
		"Output file for --profile callgrind")
}
