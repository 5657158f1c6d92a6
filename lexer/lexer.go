// Package lexer turns a source string into a stream of tokens for the
// postfix converter, disambiguating unary and binary +/- by left context.
package lexer

import (
	"strconv"
	"strings"

	"rpnjit/token"
)

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isAlphaNumeric(c rune) bool {
	return isLetter(c) || isDigit(c)
}

// Lexer scans a rune stream into tokens. It mirrors the teacher's
// position-tracking shape (characters slice, read/peek cursor) narrowed
// to this grammar's six-token alphabet.
type Lexer struct {
	characters []rune
	total      int
	position   int
	readPos    int
	current    rune
	line       int32
	column     int
	lineStart  int

	tokens    []token.Token
	variables map[string]struct{}
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{
		characters: []rune(input),
		variables:  map[string]struct{}{},
	}
	l.total = len(l.characters)
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= l.total {
		l.current = 0
	} else {
		l.current = l.characters[l.readPos]
	}
	l.position = l.readPos
	l.column = l.readPos - l.lineStart
	l.readPos++
}

func (l *Lexer) peek() rune {
	if l.readPos >= l.total {
		return 0
	}
	return l.characters[l.readPos]
}

func (l *Lexer) isFinished() bool {
	return l.position >= l.total
}

func (l *Lexer) skipWhitespace() {
	for l.current == ' ' || l.current == '\t' || l.current == '\r' || l.current == '\n' {
		if l.current == '\n' {
			l.line++
			l.lineStart = l.readPos
		}
		l.readChar()
	}
}

// makesUnary reports whether the current left context forces a +/- to
// be treated as unary: true unless the previous token was a Number,
// Variable, or RParen.
func (l *Lexer) makesUnary() bool {
	if len(l.tokens) == 0 {
		return true
	}
	switch l.tokens[len(l.tokens)-1].Kind {
	case token.Number, token.Variable, token.RParen:
		return false
	default:
		return true
	}
}

func (l *Lexer) readIdentifier() token.Token {
	line, col := l.line, l.column
	start := l.position
	for isAlphaNumeric(l.current) {
		l.readChar()
	}
	name := string(l.characters[start:l.position])
	l.variables[name] = struct{}{}
	return token.NewVariable(name, line, col)
}

func (l *Lexer) readNumber() (token.Token, error) {
	line, col := l.line, l.column
	start := l.position

	base := 10
	if l.current == '0' && l.peek() == 'x' {
		l.readChar() // consume '0'
		l.readChar() // consume 'x'
		hexStart := l.position
		for isHexDigit(l.current) {
			l.readChar()
		}
		literal := string(l.characters[hexStart:l.position])
		value, err := strconv.ParseInt(literal, 16, 64)
		if err != nil {
			return token.Token{}, Error{Kind: IntegerOverflow, Message: string(l.characters[start:l.position]), Line: line, Column: col}
		}
		return token.NewNumber(value, line, col), nil
	}

	for isDigit(l.current) {
		l.readChar()
	}
	literal := string(l.characters[start:l.position])
	value, err := strconv.ParseInt(literal, base, 64)
	if err != nil {
		return token.Token{}, Error{Kind: IntegerOverflow, Message: literal, Line: line, Column: col}
	}
	return token.NewNumber(value, line, col), nil
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Scan tokenizes the entire input, returning a token stream terminated
// by an EOF token, or the first error encountered.
func (l *Lexer) Scan() ([]token.Token, error) {
	for {
		l.skipWhitespace()
		if l.isFinished() {
			break
		}

		line, col := l.line, l.column
		c := l.current

		switch {
		case isLetter(c):
			l.tokens = append(l.tokens, l.readIdentifier())
			continue
		case isDigit(c):
			tok, err := l.readNumber()
			if err != nil {
				return nil, err
			}
			l.tokens = append(l.tokens, tok)
			continue
		case c == '(':
			l.tokens = append(l.tokens, token.NewParen(token.LParen, line, col))
		case c == ')':
			l.tokens = append(l.tokens, token.NewParen(token.RParen, line, col))
		case c == '+':
			if l.makesUnary() {
				l.tokens = append(l.tokens, token.NewUnary(token.Plus, line, col))
			} else {
				l.tokens = append(l.tokens, token.NewBinary(token.Plus, line, col))
			}
		case c == '-':
			if l.makesUnary() {
				l.tokens = append(l.tokens, token.NewUnary(token.Minus, line, col))
			} else {
				l.tokens = append(l.tokens, token.NewBinary(token.Minus, line, col))
			}
		case c == '*':
			l.tokens = append(l.tokens, token.NewBinary(token.Mult, line, col))
		case c == '/':
			l.tokens = append(l.tokens, token.NewBinary(token.Div, line, col))
		case c == '^':
			l.tokens = append(l.tokens, token.NewBinary(token.Pow, line, col))
		case c == '!':
			l.tokens = append(l.tokens, token.NewUnary(token.Fact, line, col))
		default:
			return nil, Error{Kind: UnexpectedCharacter, Char: c, Line: line, Column: col}
		}
		l.readChar()
	}

	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Line: l.line, Column: l.column})
	return l.tokens, nil
}

// Variables returns the set of variable names encountered during
// scanning, for callers that want to prompt for values (spec.md §4.2).
func (l *Lexer) Variables() map[string]struct{} {
	return l.variables
}

// Pretty renders a token stream (without the trailing EOF) back into an
// infix source string, spacing every token. Used for the
// tokenize→pretty-print→re-tokenize round-trip property.
func Pretty(tokens []token.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.Kind == token.EOF {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	return b.String()
}
