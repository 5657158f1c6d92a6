package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"rpnjit/jit"
)

// runCmd compiles and immediately runs an expression, optionally with
// variable bindings supplied as repeated -var name=value flags.
type runCmd struct {
	vars varFlag
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and execute an arithmetic expression" }
func (*runCmd) Usage() string {
	return `run [-var name=value ...] <expression>:
  Compile an expression to native code and execute it, printing the
  64-bit result.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&r.vars, "var", "variable binding name=value, may be repeated")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: expression not provided")
		return subcommands.ExitUsageError
	}
	source := args[0]

	prog, err := jit.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return subcommands.ExitFailure
	}
	defer prog.Close()

	result, err := prog.Run(r.vars)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(result)
	return subcommands.ExitSuccess
}
