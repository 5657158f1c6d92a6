// Package jit is the top-level facade tying the tokenizer, postfix
// converter, code generator, and executable harness into a single
// compile/run pipeline: text -> tokens -> postfix -> machine code ->
// executable region + variable map + integrity digest -> callable.
package jit

import (
	"rpnjit/codegen"
	"rpnjit/executable"
	"rpnjit/lexer"
	"rpnjit/postfix"
)

// Program is a compiled expression ready to be invoked with a set of
// variable bindings.
type Program struct {
	exe       *executable.Executable
	variables map[string]struct{}
}

// Compile runs the full pipeline over source: tokenize, convert to
// postfix, generate code, and install it into executable memory.
func Compile(source string) (*Program, error) {
	l := lexer.New(source)
	tokens, err := l.Scan()
	if err != nil {
		return nil, err
	}

	infix := tokens[:len(tokens)-1] // drop the trailing EOF marker
	pf, err := postfix.Convert(infix)
	if err != nil {
		return nil, err
	}

	result, err := codegen.Generate(pf)
	if err != nil {
		return nil, err
	}

	exe, err := executable.New(result.Code, result.Variables, result.Integrity)
	if err != nil {
		return nil, err
	}

	return &Program{exe: exe, variables: l.Variables()}, nil
}

// Run invokes the compiled program with the given variable bindings.
func (p *Program) Run(variables map[string]int64) (int64, error) {
	return p.exe.Run(variables)
}

// Integrity returns the compiled program's SHA-256 logic digest.
func (p *Program) Integrity() [32]byte {
	return p.exe.Integrity()
}

// Code returns the generated machine code, for diagnostics.
func (p *Program) Code() []byte {
	return p.exe.Code()
}

// Variables returns the set of variable names that appeared in source,
// for callers that want to prompt for values before calling Run.
func (p *Program) Variables() map[string]struct{} {
	return p.variables
}

// Close releases the program's executable memory.
func (p *Program) Close() error {
	return p.exe.Close()
}
