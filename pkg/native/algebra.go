package native

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

func (r *Registry) registerAlgebra() {
	r.Register("sqrt", floatFunc("sqrt", math.Sqrt))
	r.Register("cbrt", floatFunc("cbrt", math.Cbrt))
	r.Register("ln", floatFunc("ln", math.Log))
	r.Register("log", floatFunc("log", math.Log10))

	r.Register("abs", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("abs", args, 1, 1); err != nil {
			return decimal.Zero, err
		}
		return args[0].Abs(), nil
	})

	r.Register("fac", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("fac", args, 1, 1); err != nil {
			return decimal.Zero, err
		}
		return factorial(args[0]), nil
	})

	r.Register("perm", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("perm", args, 2, 2); err != nil {
			return decimal.Zero, err
		}
		return permutations(cfg, args[0], args[1])
	})

	r.Register("comb", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("comb", args, 2, 2); err != nil {
			return decimal.Zero, err
		}
		p, err := permutations(cfg, args[0], args[1])
		if err != nil {
			return decimal.Zero, err
		}
		return divide(cfg, p, factorial(args[1]))
	})

	r.Register("mod", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("mod", args, 2, 2); err != nil {
			return decimal.Zero, err
		}
		if args[1].IsZero() {
			return decimal.Zero, types.NewDivisionError("mod by zero")
		}
		return args[0].Mod(args[1]), nil
	})

	r.Register("div", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs("div", args, 2, 2); err != nil {
			return decimal.Zero, err
		}
		if args[1].IsZero() {
			return decimal.Zero, types.NewDivisionError("div by zero")
		}
		q, err := divide(cfg, args[0], args[1])
		if err != nil {
			return decimal.Zero, err
		}
		return q.Sub(args[0].Mod(args[1])), nil
	})

	// sum needs the unevaluated expression and is handled by the
	// evaluator before native dispatch. Registered so that name lookups
	// recognize it.
	r.Register("sum", func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		return decimal.Zero, types.NewArityError("sum expects an expression argument")
	})
}

func floatFunc(name string, impl func(float64) float64) Func {
	return func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
		if err := requireArgs(name, args, 1, 1); err != nil {
			return decimal.Zero, err
		}
		x, _ := args[0].Float64()
		v := impl(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, fmt.Errorf("%s(%s) is undefined", name, args[0])
		}
		return decimal.NewFromFloat(v), nil
	}
}

// factorial multiplies n, n-1, ... while the factor stays positive, so
// fac(0) and negative inputs both produce 1.
func factorial(n decimal.Decimal) decimal.Decimal {
	result := decimal.New(1, 0)
	one := decimal.New(1, 0)
	for k := n; k.IsPositive(); k = k.Sub(one) {
		result = result.Mul(k)
	}
	return result
}

func permutations(cfg types.Config, n, k decimal.Decimal) (decimal.Decimal, error) {
	return divide(cfg, factorial(n), factorial(n.Sub(k)))
}

func divide(cfg types.Config, a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, types.NewDivisionError("division by zero")
	}
	return a.DivRound(b, int32(cfg.Precision)), nil
}
