// Package postfix converts a token stream in infix order into postfix
// (Reverse Polish) order via the shunting-yard algorithm, and verifies
// the result is structurally well-formed.
package postfix

import "rpnjit/token"

type associativity int

const (
	left associativity = iota
	right
	na
)

type precAssoc struct {
	prec  int
	assoc associativity
}

// precedenceOf returns the precedence and associativity of an operator
// token. Parens and leaf tokens are never queried; they carry no
// precedence and return the zero value.
func precedenceOf(t token.Token) precAssoc {
	switch t.Kind {
	case token.BinaryOp:
		switch t.Operator {
		case token.Plus, token.Minus:
			return precAssoc{1, left}
		case token.Mult, token.Div:
			return precAssoc{2, left}
		case token.Pow:
			return precAssoc{4, right}
		}
	case token.UnaryOp:
		switch t.Operator {
		case token.Plus, token.Minus:
			return precAssoc{3, na}
		case token.Fact:
			return precAssoc{5, na}
		}
	}
	return precAssoc{0, na}
}

// Convert runs the shunting-yard algorithm over tokens (which must not
// include a trailing EOF token) and returns them in postfix order.
func Convert(tokens []token.Token) ([]token.Token, error) {
	output := make([]token.Token, 0, len(tokens))
	var stack Stack[token.Token]

	for _, tok := range tokens {
		switch tok.Kind {
		case token.Number, token.Variable:
			output = append(output, tok)

		case token.UnaryOp:
			stack.Push(tok)

		case token.BinaryOp:
			pa1 := precedenceOf(tok)
			for {
				top, ok := stack.Peek()
				if !ok {
					break
				}
				pa2 := precedenceOf(top)
				if (pa1.assoc == left && pa1.prec <= pa2.prec) ||
					(pa1.assoc == right && pa1.prec < pa2.prec) {
					popped, _ := stack.Pop()
					output = append(output, popped)
					continue
				}
				break
			}
			stack.Push(tok)

		case token.LParen:
			stack.Push(tok)

		case token.RParen:
			found := false
			for {
				top, ok := stack.Pop()
				if !ok {
					break
				}
				if top.Kind == token.LParen {
					found = true
					break
				}
				output = append(output, top)
			}
			if !found {
				return nil, Error{Kind: MismatchedClosingParen}
			}
		}
	}

	for {
		top, ok := stack.Pop()
		if !ok {
			break
		}
		switch top.Kind {
		case token.BinaryOp, token.UnaryOp:
			output = append(output, top)
		case token.LParen:
			return nil, Error{Kind: MismatchedOpeningParen}
		}
	}

	if err := verify(output); err != nil {
		return nil, err
	}
	return output, nil
}

// verify walks a postfix token stream tracking the running operand
// balance, catching malformed expressions the shunting-yard pass alone
// would not (e.g. a lone binary operator, or two numbers with no
// operator between them).
func verify(tokens []token.Token) error {
	if len(tokens) == 0 {
		return Error{Kind: NotEnoughOperands}
	}

	operands := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.Number, token.Variable:
			operands++
		case token.BinaryOp:
			operands--
		case token.UnaryOp:
			// consumes and produces exactly one operand, net zero
		}
		if operands < 1 {
			return Error{Kind: NotEnoughOperands}
		}
	}
	if operands > 1 {
		return Error{Kind: TooManyOperands}
	}
	return nil
}
