package lexer

import (
	"testing"

	"rpnjit/token"
)

func TestScanTokenizerVector(t *testing.T) {
	src := "((17132123123 + 123123) * ( -1337 ^  - 4  )) / 5!"
	toks, err := New(src).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []token.Token{
		token.NewParen(token.LParen, 0, 0),
		token.NewParen(token.LParen, 0, 0),
		token.NewNumber(17132123123, 0, 0),
		token.NewBinary(token.Plus, 0, 0),
		token.NewNumber(123123, 0, 0),
		token.NewParen(token.RParen, 0, 0),
		token.NewBinary(token.Mult, 0, 0),
		token.NewParen(token.LParen, 0, 0),
		token.NewUnary(token.Minus, 0, 0),
		token.NewNumber(1337, 0, 0),
		token.NewBinary(token.Pow, 0, 0),
		token.NewUnary(token.Minus, 0, 0),
		token.NewNumber(4, 0, 0),
		token.NewParen(token.RParen, 0, 0),
		token.NewParen(token.RParen, 0, 0),
		token.NewBinary(token.Div, 0, 0),
		token.NewNumber(5, 0, 0),
		token.NewUnary(token.Fact, 0, 0),
		{Kind: token.EOF},
	}

	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i := range want {
		if toks[i].Kind != want[i].Kind || toks[i].Operator != want[i].Operator ||
			toks[i].IntValue != want[i].IntValue || toks[i].Name != want[i].Name {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], want[i])
		}
	}
}

func TestScanUnaryBinaryDisambiguation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind token.Kind
	}{
		{"leading minus is unary", "-5", token.UnaryOp},
		{"leading plus is unary", "+5", token.UnaryOp},
		{"minus after number is binary", "1-2", token.BinaryOp},
		{"plus after variable is binary", "x+2", token.BinaryOp},
		{"minus after rparen is binary", "(1)-2", token.BinaryOp},
		{"minus after lparen is unary", "(-2)", token.UnaryOp},
		{"minus after binary op is unary", "1*-2", token.UnaryOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := New(tt.src).Scan()
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			var found *token.Token
			for i := range toks {
				if (toks[i].Kind == token.UnaryOp || toks[i].Kind == token.BinaryOp) &&
					(toks[i].Operator == token.Minus || toks[i].Operator == token.Plus) {
					found = &toks[i]
					break
				}
			}
			if found == nil {
				t.Fatalf("no +/- token found in %+v", toks)
			}
			if found.Kind != tt.kind {
				t.Errorf("operator kind = %v, want %v", found.Kind, tt.kind)
			}
		})
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	_, err := New("1 + @").Scan()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	lexErr, ok := err.(Error)
	if !ok {
		t.Fatalf("error type = %T, want lexer.Error", err)
	}
	if lexErr.Kind != UnexpectedCharacter {
		t.Errorf("Kind = %v, want UnexpectedCharacter", lexErr.Kind)
	}
	if lexErr.Char != '@' {
		t.Errorf("Char = %q, want '@'", lexErr.Char)
	}
}

func TestScanIntegerOverflow(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"decimal overflow", "9223372036854775808"},
		{"hex overflow", "0xFFFFFFFFFFFFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.src).Scan()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			lexErr, ok := err.(Error)
			if !ok {
				t.Fatalf("error type = %T, want lexer.Error", err)
			}
			if lexErr.Kind != IntegerOverflow {
				t.Errorf("Kind = %v, want IntegerOverflow", lexErr.Kind)
			}
		})
	}
}

func TestScanHexLiteral(t *testing.T) {
	toks, err := New("0x1F").Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(toks) != 2 || toks[0].Kind != token.Number || toks[0].IntValue != 31 {
		t.Errorf("tokens = %+v, want single Number(31)", toks)
	}
}

func TestVariables(t *testing.T) {
	l := New("x + y * x")
	if _, err := l.Scan(); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	vars := l.Variables()
	if len(vars) != 2 {
		t.Fatalf("Variables() = %v, want 2 entries", vars)
	}
	if _, ok := vars["x"]; !ok {
		t.Error("missing variable x")
	}
	if _, ok := vars["y"]; !ok {
		t.Error("missing variable y")
	}
}

func TestPrettyRoundTrip(t *testing.T) {
	src := "( 1 + 2 ) * x - 3 ^ 4 !"
	toks, err := New(src).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	pretty := Pretty(toks)

	toks2, err := New(pretty).Scan()
	if err != nil {
		t.Fatalf("re-Scan() error = %v", err)
	}

	if len(toks) != len(toks2) {
		t.Fatalf("round trip token count mismatch: %d vs %d", len(toks), len(toks2))
	}
	for i := range toks {
		if toks[i].Kind != toks2[i].Kind || toks[i].Operator != toks2[i].Operator ||
			toks[i].IntValue != toks2[i].IntValue || toks[i].Name != toks2[i].Name {
			t.Errorf("token %d mismatch after round trip: %+v vs %+v", i, toks[i], toks2[i])
		}
	}
}
