package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"rpnjit/jit"
)

// replCmd runs an interactive read-compile-run-print loop with line
// editing and history, compiling and executing one expression per
// line against a persistent set of variable bindings.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive compile-and-run session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Each line is compiled and executed.
  Assignments of the form "name = expression" bind a variable for
  later lines; ":vars" lists current bindings, ":exit" quits.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stderr(), "rpnjit interactive session")
	bindings := make(map[string]int64)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "repl: %v\n", err)
			return subcommands.ExitFailure
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":exit":
			return subcommands.ExitSuccess
		case line == ":vars":
			for name, val := range bindings {
				fmt.Printf("%s = %d\n", name, val)
			}
			continue
		}

		if name, expr, ok := strings.Cut(line, "="); ok && isIdentifier(strings.TrimSpace(name)) {
			result, err := evalLine(strings.TrimSpace(expr), bindings)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			bindings[strings.TrimSpace(name)] = result
			fmt.Println(result)
			continue
		}

		result, err := evalLine(line, bindings)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(result)
	}
}

func evalLine(source string, bindings map[string]int64) (int64, error) {
	prog, err := jit.Compile(source)
	if err != nil {
		return 0, err
	}
	defer prog.Close()
	return prog.Run(bindings)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.rpnjit_history"
}
