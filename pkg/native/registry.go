// Package native implements the built-in function families: the
// trigonometric family (with hyperbolic and inverse variants) and the
// algebraic family (roots, logarithms, combinatorics, modular helpers).
package native

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

// Func is a native function implementation over already-evaluated
// numeric arguments. The configuration supplies the angle mode and the
// precision used for internal divisions.
type Func func(cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error)

// Registry holds all native functions, the trigonometric subset marker,
// and the trigonometric derivative table.
type Registry struct {
	funcs       map[string]Func
	trig        map[string]bool
	derivatives map[string]string
}

// NewRegistry creates a registry with all native functions registered.
func NewRegistry() *Registry {
	r := &Registry{
		funcs:       make(map[string]Func),
		trig:        make(map[string]bool),
		derivatives: make(map[string]string),
	}
	r.registerTrig()
	r.registerAlgebra()
	return r
}

// Register adds a function to the registry.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Contains reports whether name is a native function.
func (r *Registry) Contains(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// IsTrigonometric reports whether name belongs to the trigonometric
// family (including hyperbolic and inverse variants).
func (r *Registry) IsTrigonometric(name string) bool {
	return r.trig[name]
}

// Derivative returns the derivative template for a trigonometric
// function. Templates use x as the argument placeholder.
func (r *Registry) Derivative(name string) (string, bool) {
	d, ok := r.derivatives[name]
	return d, ok
}

// Call invokes a native function with the given arguments.
func (r *Registry) Call(name string, cfg types.Config, args []decimal.Decimal) (decimal.Decimal, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return decimal.Zero, types.NewUnknownIdentifierError(
			fmt.Sprintf("function %q not found", name))
	}
	return fn(cfg, args)
}

// requireArgs checks that the number of args is in range.
func requireArgs(name string, args []decimal.Decimal, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return types.NewArityError(
				fmt.Sprintf("%s expects %d argument(s), got %d", name, min, len(args)))
		}
		return types.NewArityError(
			fmt.Sprintf("%s expects %d-%d arguments, got %d", name, min, max, len(args)))
	}
	return nil
}
