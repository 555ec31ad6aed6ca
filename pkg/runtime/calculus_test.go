package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

// derivativeAt differentiates the expression, redefines the result as a
// function, and evaluates it at the given point.
func derivativeAt(t *testing.T, engine *Engine, input string, x float64) float64 {
	t.Helper()
	d, err := engine.Differentiate(input, "x")
	if err != nil {
		t.Fatalf("Differentiate(%q) error: %v", input, err)
	}
	fd, err := engine.DefineFunction("deriv_probe(x) = " + d.String())
	if err != nil {
		t.Fatalf("defining derivative %q: %v", d, err)
	}
	defer func() {
		engine.mu.Lock()
		engine.ctx.RemoveFunction(fd.Name)
		engine.mu.Unlock()
	}()
	v, err := engine.Evaluate("deriv_probe(" + decimal.NewFromFloat(x).String() + ")")
	if err != nil {
		t.Fatalf("evaluating derivative %q at %v: %v", d, x, err)
	}
	f, _ := v.Decimal().Float64()
	return f
}

func TestDerivativePolynomials(t *testing.T) {
	tests := []struct {
		input string
		x     float64
		want  float64
	}{
		{"x^2", 3, 6},
		{"x^3", 2, 12},
		{"3*x", 5, 3},
		{"x^2+3*x", 5, 13},
		{"x^2-x", 4, 7},
		{"2*x^2", 3, 12},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			engine := NewEngine(types.DefaultConfig())
			got := derivativeAt(t, engine, tt.input, tt.x)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("d/dx %s at %v = %v, want %v", tt.input, tt.x, got, tt.want)
			}
		})
	}
}

func TestDerivativeConstant(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	d, err := engine.Differentiate("5", "x")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "0" {
		t.Errorf("d/dx 5 = %q, want 0", d)
	}
	d, err = engine.Differentiate("y", "x")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "0" {
		t.Errorf("d/dx y = %q, want 0", d)
	}
}

func TestDerivativeTrig(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	d, err := engine.Differentiate("sin(x)", "x")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "cos(x)" {
		t.Errorf("d/dx sin(x) = %q, want cos(x)", d)
	}

	d, err = engine.Differentiate("cos(x)", "x")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "-sin(x)" {
		t.Errorf("d/dx cos(x) = %q, want -sin(x)", d)
	}
}

func TestDerivativeChainRule(t *testing.T) {
	// d/dx sin(2x) = 2*cos(2x); at x = 0 that is 2.
	engine := NewEngine(types.DefaultConfig())
	got := derivativeAt(t, engine, "sin(2x)", 0)
	if math.Abs(got-2) > 1e-6 {
		t.Errorf("d/dx sin(2x) at 0 = %v, want 2", got)
	}
}

func TestDerivativeQuotient(t *testing.T) {
	// d/dx (x/2) = 1/2 everywhere.
	engine := NewEngine(types.DefaultConfig())
	got := derivativeAt(t, engine, "x/2", 7)
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("d/dx x/2 at 7 = %v, want 0.5", got)
	}
}

func TestDerivativeUserFunction(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	if _, err := engine.DefineFunction("f(t) = t^2"); err != nil {
		t.Fatal(err)
	}
	// f(x) inlines to x^2 before differentiation.
	got := derivativeAt(t, engine, "f(x)", 3)
	if math.Abs(got-6) > 1e-6 {
		t.Errorf("d/dx f(x) at 3 = %v, want 6", got)
	}
}

func TestIntegratePowerRule(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	integral, err := engine.Integrate("x^2", "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.DefineFunction("int_probe(x) = " + integral.String()); err != nil {
		t.Fatalf("defining integral %q: %v", integral, err)
	}
	got, err := engine.Evaluate("int_probe(3)")
	if err != nil {
		t.Fatal(err)
	}
	f, _ := got.Decimal().Float64()
	if math.Abs(f-9) > 1e-6 {
		t.Errorf("integral of x^2 at 3 = %v, want 9", f)
	}
}

func TestFindRootsQuadratic(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	roots, err := engine.FindRoots("x^2-4", "x")
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, r := range roots {
		f, _ := r.Float64()
		if math.Abs(f-2) < 1e-3 {
			found["2"] = true
		}
		if math.Abs(f+2) < 1e-3 {
			found["-2"] = true
		}
	}
	if !found["2"] || !found["-2"] {
		t.Errorf("roots of x^2-4 = %v, want ±2", roots)
	}
}

func TestFindRootsLinear(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	roots, err := engine.FindRoots("2*x-6", "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) == 0 {
		t.Fatal("no roots found")
	}
	f, _ := roots[0].Float64()
	if math.Abs(f-3) > 1e-3 {
		t.Errorf("root of 2x-6 = %v, want 3", f)
	}
}

func TestFindRootsCubic(t *testing.T) {
	// x^3-x has three roots; the seed scan must surface all of them,
	// not just the first bracketed pair.
	engine := NewEngine(types.DefaultConfig())
	roots, err := engine.FindRoots("x^3-x", "x")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-1, 0, 1}
	found := make([]bool, len(want))
	for _, r := range roots {
		f, _ := r.Float64()
		for i, w := range want {
			if math.Abs(f-w) < 1e-3 {
				found[i] = true
			}
		}
	}
	for i, ok := range found {
		if !ok {
			t.Errorf("roots of x^3-x = %v, missing %v", roots, want[i])
		}
	}
}

func TestSumConverges(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	got, err := engine.Evaluate("sum(1/2^k)")
	if err != nil {
		t.Fatal(err)
	}
	f, _ := got.Decimal().Float64()
	if math.Abs(f-2) > 1e-5 {
		t.Errorf("sum(1/2^k) = %v, want 2", f)
	}
}

func TestSumDiverges(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	_, err := engine.Evaluate("sum(k+1)")
	var me *types.MathError
	if !errors.As(err, &me) || !me.HasTag(types.TagConvergenceError) {
		t.Errorf("divergent sum: expected ConvergenceError, got %v", err)
	}
}

func TestHiddenFunctionsAreCleanedUp(t *testing.T) {
	engine := NewEngine(types.DefaultConfig())
	if _, err := engine.FindRoots("x^2-4", "x"); err != nil {
		t.Fatal(err)
	}
	if n := len(engine.Functions()); n != 0 {
		t.Errorf("%d hidden functions left registered", n)
	}
}
