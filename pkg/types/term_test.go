package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTermOperationNumeric(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		op   string
		want string
	}{
		{"addition", "2", "3", "+", "5"},
		{"subtraction", "2", "3", "-", "-1"},
		{"multiplication", "6", "7", "*", "42"},
		{"division rounds", "1", "3", "/", "0.3333333333"},
		{"power", "2", "10", "^", "1024"},
		{"negative power", "2", "-2", "^", "0.25"},
		{"zero power", "5", "0", "^", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromText(tt.a)
			b := FromText(tt.b)
			got, err := a.Operation(b, tt.op, 10)
			if err != nil {
				t.Fatalf("Operation(%s %s %s) error: %v", tt.a, tt.op, tt.b, err)
			}
			if got.String() != tt.want {
				t.Errorf("Operation(%s %s %s) = %q, want %q", tt.a, tt.op, tt.b, got, tt.want)
			}
		})
	}
}

func TestTermDivisionByZero(t *testing.T) {
	_, err := NumberFromInt(1).Operation(Zero, "/", 10)
	if err == nil {
		t.Fatal("expected division error")
	}
	var me *MathError
	if !errors.As(err, &me) || !me.HasTag(TagDivisionError) {
		t.Errorf("expected DivisionError tag, got %v", err)
	}
}

func TestTermZeroBaseNegativePower(t *testing.T) {
	_, err := Zero.Operation(FromText("-1"), "^", 10)
	if err == nil {
		t.Fatal("expected division error for 0^-1")
	}
	var me *MathError
	if !errors.As(err, &me) || !me.HasTag(TagDivisionError) {
		t.Errorf("expected DivisionError tag, got %v", err)
	}
}

func TestTermOperationSymbolic(t *testing.T) {
	tests := []struct {
		a, b string
		op   string
		want string
	}{
		{"x", "2", "^", "x^2"},
		{"x", "2", "/", "(x/2)"},
		{"x", "1", "+", "x+1"},
		{"x", "y", "-", "x-y"},
	}
	for _, tt := range tests {
		t.Run(tt.a+tt.op+tt.b, func(t *testing.T) {
			got, err := FromText(tt.a).Operation(FromText(tt.b), tt.op, 10)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTermFreeVariable(t *testing.T) {
	tests := []struct {
		input string
		want  string
		found bool
	}{
		{"(2)x^2", "x", true},
		{"3.5", "", false},
		{"1/2^k", "k", true},
		{"2+3*4", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Symbol(tt.input).FreeVariable()
			if ok != tt.found || got != tt.want {
				t.Errorf("FreeVariable(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestTermSign(t *testing.T) {
	tests := []struct {
		input string
		want  Sign
	}{
		{"-3x", Negative},
		{"3-x", Positive},
		{"x-3", Negative},
		{"-0.5", Negative},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Symbol(tt.input).Sign(); got != tt.want {
				t.Errorf("Sign(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTermExponent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x^2", "2"},
		{"x", "1"},
		{"2x^3+1", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Symbol(tt.input).Exponent(); got != tt.want {
				t.Errorf("Exponent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTermParens(t *testing.T) {
	if got := Symbol("x+1").Parenthesize().String(); got != "(x+1)" {
		t.Errorf("Parenthesize = %q, want (x+1)", got)
	}
	if got := Symbol("(x+1)").Parenthesize().String(); got != "(x+1)" {
		t.Errorf("Parenthesize on wrapped = %q, want (x+1)", got)
	}
	// (x+1)+(x-1) is not one enclosing pair and must be wrapped.
	if got := Symbol("(x+1)+(x-1)").Parenthesize().String(); got != "((x+1)+(x-1))" {
		t.Errorf("Parenthesize on split pair = %q", got)
	}
	if got := Symbol("((x))").StripParens().String(); got != "x" {
		t.Errorf("StripParens = %q, want x", got)
	}
	if got := Symbol("(x+1)+(x-1)").StripParens().String(); got != "(x+1)+(x-1)" {
		t.Errorf("StripParens removed non-redundant parens: %q", got)
	}
}

func TestTermNormalize(t *testing.T) {
	d, _ := decimal.NewFromString("1.23456789012345")
	got := Number(d).Normalize(5).String()
	if got != "1.23457" {
		t.Errorf("Normalize = %q, want 1.23457", got)
	}
	got = Number(decimal.RequireFromString("2.5000")).Normalize(10).String()
	if got != "2.5" {
		t.Errorf("Normalize trailing zeros = %q, want 2.5", got)
	}
}

func TestTermZeroAndEmpty(t *testing.T) {
	if !Zero.IsZero(1e-7) {
		t.Error("Zero is not zero")
	}
	if !NumberFromFloat(1e-9).IsZero(1e-7) {
		t.Error("value below epsilon should be zero")
	}
	if NumberFromFloat(0.001).IsZero(1e-7) {
		t.Error("0.001 should not be zero")
	}
	if !Symbol("").IsEmpty() {
		t.Error("empty symbolic term should report empty")
	}
	if Symbol("").String() != "0" {
		t.Error("empty symbolic term should render as 0")
	}
}
