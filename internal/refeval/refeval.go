// Package refeval is a pure-Go stack evaluator for postfix token
// streams, used only from tests as an independent reference
// against which the JIT-compiled and -executed result is checked.
package refeval

import (
	"fmt"

	"rpnjit/token"
)

// Error reports a variable referenced by the expression that the
// caller did not supply a value for.
type Error struct {
	Name string
}

func (e Error) Error() string {
	return fmt.Sprintf("refeval: unknown variable %q", e.Name)
}

// Evaluate walks a postfix token stream against an explicit operand
// stack, the same discipline the generated machine code follows, using
// wrapping 64-bit arithmetic throughout to match codegen's semantics.
func Evaluate(postfix []token.Token, variables map[string]int64) (int64, error) {
	var stack []int64

	pop := func() int64 {
		n := len(stack) - 1
		v := stack[n]
		stack = stack[:n]
		return v
	}

	for _, tok := range postfix {
		switch tok.Kind {
		case token.Number:
			stack = append(stack, tok.IntValue)

		case token.Variable:
			v, ok := variables[tok.Name]
			if !ok {
				return 0, Error{Name: tok.Name}
			}
			stack = append(stack, v)

		case token.BinaryOp:
			b := pop()
			a := pop()
			switch tok.Operator {
			case token.Plus:
				stack = append(stack, a+b)
			case token.Minus:
				stack = append(stack, a-b)
			case token.Mult:
				stack = append(stack, a*b)
			case token.Div:
				stack = append(stack, a/b)
			case token.Pow:
				stack = append(stack, wrappingPow(a, b))
			}

		case token.UnaryOp:
			a := pop()
			switch tok.Operator {
			case token.Plus:
				stack = append(stack, a)
			case token.Minus:
				stack = append(stack, -a)
			case token.Fact:
				stack = append(stack, wrappingFactorial(a))
			}
		}
	}

	return stack[0], nil
}

func wrappingPow(base, exp int64) int64 {
	e := uint32(exp)
	result := int64(1)
	for e > 0 {
		if e&1 == 1 {
			result *= base
		}
		base *= base
		e >>= 1
	}
	return result
}

func wrappingFactorial(n int64) int64 {
	result := int64(1)
	for i := int64(1); i <= n; i++ {
		result *= i
	}
	return result
}
