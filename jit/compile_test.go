package jit

import (
	"testing"

	"rpnjit/internal/refeval"
	"rpnjit/lexer"
	"rpnjit/postfix"
)

func runExpr(t *testing.T, source string, variables map[string]int64) int64 {
	t.Helper()
	prog, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", source, err)
	}
	t.Cleanup(func() { prog.Close() })

	got, err := prog.Run(variables)
	if err != nil {
		t.Fatalf("Run(%q) error = %v", source, err)
	}
	return got
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		source string
		want   int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"-1 + 2 * 3", 5},
		{"3! + 5!", 126},
		{"2 ^ 3 ^ 2", 512},
		{"((123 * 6 + 123123) * (-1337 - -4)) * 5 / 120", -6879446},
		{"1 + 1 + 15 * 3 - 1 - -2", 48},
		{"((-2 ^ 3) ^ 4) * (3 ^ 2) - 1", 36863},
		{"(-19 + (7! + -1 * (9724 + 82402)) * (3 - 812 - (13 - 7)!)) / 4", 33288618},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got := runExpr(t, tt.source, nil)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVariableScenario(t *testing.T) {
	got := runExpr(t, "x * 2 + y", map[string]int64{"x": 3, "y": 4})
	if got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestVariableScenarioMissingValue(t *testing.T) {
	prog, err := Compile("x * 2 + y")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	defer prog.Close()

	_, err = prog.Run(map[string]int64{"x": 3})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestEmptyInputFailsValidation(t *testing.T) {
	_, err := Compile("")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLargePowerLiteralCompiles(t *testing.T) {
	got := runExpr(t, "2^63", nil)
	_ = got // wraps per the uniform wrapping-arithmetic policy; no overflow error expected
}

func TestOverWideLiteralFailsTokenization(t *testing.T) {
	_, err := Compile("9223372036854775808")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(lexer.Error); !ok {
		t.Errorf("error type = %T, want lexer.Error", err)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	a, err := Compile("(1 + 2) * 3 - 4!")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	defer a.Close()
	b, err := Compile("(1 + 2) * 3 - 4!")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	defer b.Close()

	if a.Integrity() != b.Integrity() {
		t.Errorf("integrity digests differ across identical compiles: %x vs %x", a.Integrity(), b.Integrity())
	}
}

func TestTokenizePrettyPrintRoundTrip(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"(-2 ^ 3) ^ 4 * (3 ^ 2) - 1",
		"x * 2 + y - 3!",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			toks, err := lexer.New(src).Scan()
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			pretty := lexer.Pretty(toks)
			toks2, err := lexer.New(pretty).Scan()
			if err != nil {
				t.Fatalf("re-Scan() error = %v", err)
			}
			if len(toks) != len(toks2) {
				t.Fatalf("round trip length mismatch: %d vs %d", len(toks), len(toks2))
			}
			for i := range toks {
				if toks[i].Kind != toks2[i].Kind || toks[i].Operator != toks2[i].Operator ||
					toks[i].IntValue != toks2[i].IntValue || toks[i].Name != toks2[i].Name {
					t.Errorf("token %d mismatch: %+v vs %+v", i, toks[i], toks2[i])
				}
			}
		})
	}
}

// TestDifferentialAgainstReferenceEvaluator checks that for expressions
// without variables, the native-compiled result matches a pure-Go
// stack evaluator over the same postfix stream.
func TestDifferentialAgainstReferenceEvaluator(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"-1 + 2 * 3",
		"3! + 5!",
		"2 ^ 3 ^ 2",
		"((123 * 6 + 123123) * (-1337 - -4)) * 5 / 120",
		"1 + 1 + 15 * 3 - 1 - -2",
		"((-2 ^ 3) ^ 4) * (3 ^ 2) - 1",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			toks, err := lexer.New(src).Scan()
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			pf, err := postfix.Convert(toks[:len(toks)-1])
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			want, err := refeval.Evaluate(pf, nil)
			if err != nil {
				t.Fatalf("refeval.Evaluate() error = %v", err)
			}

			got := runExpr(t, src, nil)
			if got != want {
				t.Errorf("native = %d, reference = %d", got, want)
			}
		})
	}
}
