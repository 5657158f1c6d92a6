package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"rpnjit/asm"
	"rpnjit/jit"
)

// compileCmd compiles an expression to machine code and reports its
// integrity digest without executing it.
type compileCmd struct {
	dump bool
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile an expression and print its integrity digest" }
func (*compileCmd) Usage() string {
	return `compile <expression>:
  Compile an arithmetic expression to native code without running it.
`
}

func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dump, "dump", false, "print a disassembly of the generated code")
}

func (c *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "compile: expression not provided")
		return subcommands.ExitUsageError
	}
	source := args[0]

	prog, err := jit.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: %v\n", err)
		return subcommands.ExitFailure
	}
	defer prog.Close()

	digest := prog.Integrity()
	fmt.Printf("integrity: %x\n", digest)

	vars := prog.Variables()
	if len(vars) > 0 {
		fmt.Print("variables:")
		for name := range vars {
			fmt.Printf(" %s", name)
		}
		fmt.Println()
	}

	if c.dump {
		fmt.Println(asm.Dump(prog.Code()))
	}

	return subcommands.ExitSuccess
}
