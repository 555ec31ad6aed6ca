package native

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

func callOne(t *testing.T, r *Registry, cfg types.Config, name string, args ...float64) decimal.Decimal {
	t.Helper()
	in := make([]decimal.Decimal, len(args))
	for i, a := range args {
		in[i] = decimal.NewFromFloat(a)
	}
	out, err := r.Call(name, cfg, in)
	if err != nil {
		t.Fatalf("Call(%s, %v) error: %v", name, args, err)
	}
	return out
}

func TestAlgebraicFunctions(t *testing.T) {
	r := NewRegistry()
	cfg := types.DefaultConfig()
	tests := []struct {
		name string
		args []float64
		want string
	}{
		{"sqrt", []float64{9}, "3"},
		{"cbrt", []float64{27}, "3"},
		{"abs", []float64{-4.5}, "4.5"},
		{"fac", []float64{5}, "120"},
		{"fac", []float64{0}, "1"},
		{"perm", []float64{5, 2}, "20"},
		{"comb", []float64{5, 2}, "10"},
		{"mod", []float64{7, 3}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := callOne(t, r, cfg, tt.name, tt.args...)
			if got.String() != tt.want {
				t.Errorf("%s(%v) = %s, want %s", tt.name, tt.args, got, tt.want)
			}
		})
	}
}

func TestDivIsQuotientMinusRemainder(t *testing.T) {
	r := NewRegistry()
	got := callOne(t, r, types.DefaultConfig(), "div", 7, 3)
	want := "1.3333333333" // 7/3 rounded to 10 places, minus mod(7,3)
	if got.String() != want {
		t.Errorf("div(7,3) = %s, want %s", got, want)
	}
}

func TestTrigonometricFunctions(t *testing.T) {
	r := NewRegistry()
	radians := types.DefaultConfig()
	degrees := radians
	degrees.Angle = types.Degrees

	tests := []struct {
		name string
		cfg  types.Config
		arg  float64
		want float64
	}{
		{"sin", radians, 0, 0},
		{"cos", radians, 0, 1},
		{"sin", degrees, 90, 1},
		{"cos", degrees, 180, -1},
		{"tan", degrees, 45, 1},
		{"sinh", radians, 0, 0},
		{"atan", radians, 1, math.Pi / 4},
		{"arctan", radians, 1, math.Pi / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.cfg.Angle.String(), func(t *testing.T) {
			got, _ := callOne(t, r, tt.cfg, tt.name, tt.arg).Float64()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s(%v) = %v, want %v", tt.name, tt.arg, got, tt.want)
			}
		})
	}
}

func TestLogarithms(t *testing.T) {
	r := NewRegistry()
	cfg := types.DefaultConfig()
	if got, _ := callOne(t, r, cfg, "ln", math.E).Float64(); math.Abs(got-1) > 1e-9 {
		t.Errorf("ln(e) = %v, want 1", got)
	}
	if got, _ := callOne(t, r, cfg, "log", 1000).Float64(); math.Abs(got-3) > 1e-9 {
		t.Errorf("log(1000) = %v, want 3", got)
	}
}

func TestTrigDomainError(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Call("asin", types.DefaultConfig(), []decimal.Decimal{decimal.NewFromInt(2)}); err == nil {
		t.Error("asin(2) should be undefined")
	}
	if _, err := r.Call("ln", types.DefaultConfig(), []decimal.Decimal{decimal.Zero}); err == nil {
		t.Error("ln(0) should be undefined")
	}
}

func TestCallErrors(t *testing.T) {
	r := NewRegistry()
	cfg := types.DefaultConfig()

	_, err := r.Call("nope", cfg, nil)
	var me *types.MathError
	if !errors.As(err, &me) || !me.HasTag(types.TagUnknownIdentifierError) {
		t.Errorf("unknown function: expected UnknownIdentifierError, got %v", err)
	}

	_, err = r.Call("sqrt", cfg, []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)})
	if !errors.As(err, &me) || !me.HasTag(types.TagArityError) {
		t.Errorf("wrong arity: expected ArityError, got %v", err)
	}

	_, err = r.Call("mod", cfg, []decimal.Decimal{decimal.NewFromInt(1), decimal.Zero})
	if !errors.As(err, &me) || !me.HasTag(types.TagDivisionError) {
		t.Errorf("mod by zero: expected DivisionError, got %v", err)
	}
}

func TestRegistryMembership(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"sin", "cos", "tan", "cot", "sec", "csc", "sinh", "asin", "arcsin"} {
		if !r.IsTrigonometric(name) {
			t.Errorf("%s should be trigonometric", name)
		}
	}
	for _, name := range []string{"sqrt", "fac", "sum"} {
		if !r.Contains(name) {
			t.Errorf("%s should be registered", name)
		}
		if r.IsTrigonometric(name) {
			t.Errorf("%s should not be trigonometric", name)
		}
	}
	if d, ok := r.Derivative("sin"); !ok || d != "cos(x)" {
		t.Errorf("Derivative(sin) = %q, %v", d, ok)
	}
	if _, ok := r.Derivative("sqrt"); ok {
		t.Error("sqrt should have no derivative table entry")
	}
}
