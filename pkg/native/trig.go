package native

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

// registerTrig registers the trigonometric family and its derivative
// table. Every entry respects the angle mode by scaling its input from
// degrees to radians when configured.
func (r *Registry) registerTrig() {
	entries := map[string]func(float64) float64{
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"cot":  func(x float64) float64 { return 1 / math.Tan(x) },
		"sec":  func(x float64) float64 { return 1 / math.Cos(x) },
		"csc":  func(x float64) float64 { return 1 / math.Sin(x) },
		"sinh": math.Sinh,
		"cosh": math.Cosh,
		"tanh": math.Tanh,
		"asin": math.Asin,
		"acos": math.Acos,
		"atan": math.Atan,
		"acot": func(x float64) float64 { return math.Atan(1 / x) },
		"asec": func(x float64) float64 { return math.Acos(1 / x) },
		"acsc": func(x float64) float64 { return math.Asin(1 / x) },
	}
	for name, impl := range entries {
		r.trig[name] = true
		r.Register(name, trigFunc(name, impl))
	}

	// Inverse functions answer to both spellings.
	for _, name := range []string{"asin", "acos", "atan", "acot", "asec", "acsc"} {
		arc := "arc" + name[1:]
		r.trig[arc] = true
		r.funcs[arc] = r.funcs[name]
	}

	r.derivatives = map[string]string{
		"sin":  "cos(x)",
		"cos":  "-sin(x)",
		"tan":  "sec(x)^2",
		"cot":  "-csc(x)^2",
		"sec":  "sec(x)*tan(x)",
		"csc":  "-csc(x)*cot(x)",
		"asin": "1/sqrt(1-x^2)",
		"acos": "-1/sqrt(1-x^2)",
		"atan": "1/(x^2+1)",
		"acot": "-1/(x^2+1)",
		"asec": "1/(abs(x)*sqrt(x^2-1))",
		"acsc": "-1/(abs(x)*sqrt(x^2-1))",
	}
	for _, name := range []string{"asin", "acos", "atan", "acot", "asec", "acsc"} {
		r.derivatives["arc"+name[1:]] = r.derivatives[name]
	}
}

// trigFunc wraps a float implementation with angle-mode scaling and a
// domain check.
func trigFunc(name string, impl func(float64) float64) Func {
	return func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs(name, args, 1, 1); err != nil {
			return decimal.Zero, err
		}
		x, _ := args[0].Float64()
		if cfg.Angle == types.Degrees {
			x = x * math.Pi / 180
		}
		v := impl(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, fmt.Errorf("%s(%s) is undefined", name, args[0])
		}
		return decimal.NewFromFloat(v), nil
	}
}
