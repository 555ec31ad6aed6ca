package runtime

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/matrix"
	"github.com/quillmath/quill/pkg/types"
)

// Engine is the top-level entry point: it owns the evaluation context
// and the configuration, and serializes access so concurrent callers
// never observe a half-applied configuration or function definition.
type Engine struct {
	mu   sync.Mutex
	cfg  types.Config
	ctx  *Context
	eval *Evaluator
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg types.Config) *Engine {
	e := &Engine{cfg: cfg, ctx: NewContext()}
	e.eval = NewEvaluator(&e.cfg)
	return e
}

// Evaluate parses and evaluates one input line. Blank input evaluates
// to zero, a function definition registers the function and echoes it
// back, and everything else goes through constant substitution,
// factoring, and evaluation.
func (e *Engine) Evaluate(input string) (types.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(input) == "" {
		return types.Zero, nil
	}
	node, err := expr.Parse(input)
	if err != nil {
		return types.Zero, err
	}
	if def, ok := node.(*expr.FuncDefNode); ok {
		if _, err := e.ctx.AddFunction(def); err != nil {
			return types.Zero, err
		}
		return types.Symbol(expr.Render(def)), nil
	}

	node = e.substituteConstants(node)
	node, err = Factor(node, e.cfg.Precision)
	if err != nil {
		return types.Zero, err
	}
	t, err := e.eval.Eval(e.ctx, node)
	if err != nil {
		return types.Zero, err
	}
	return e.finish(t), nil
}

// Differentiate parses the input and differentiates it with respect to
// the given variable.
func (e *Engine) Differentiate(input, wrt string) (types.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := expr.Parse(input)
	if err != nil {
		return types.Zero, err
	}
	node = e.substituteConstants(node)
	t, err := e.eval.Derivative(e.ctx, node, wrt)
	if err != nil {
		return types.Zero, err
	}
	if t.IsEmpty() {
		return types.Zero, nil
	}
	return t.StripParens(), nil
}

// Integrate parses the input and applies the antiderivative heuristic.
func (e *Engine) Integrate(input, wrt string) (types.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := expr.Parse(input)
	if err != nil {
		return types.Zero, err
	}
	node = e.substituteConstants(node)
	t, err := e.eval.Integrate(e.ctx, node, wrt)
	if err != nil {
		return types.Zero, err
	}
	if t.IsEmpty() {
		return types.Zero, nil
	}
	return t.StripParens(), nil
}

// FindRoots locates the real roots of the input expression in the
// given variable.
func (e *Engine) FindRoots(input, variable string) ([]decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := expr.Parse(input)
	if err != nil {
		return nil, err
	}
	node = e.substituteConstants(node)
	return e.eval.FindRoots(e.ctx, node, variable)
}

// DefineFunction registers a user function from its definition text.
func (e *Engine) DefineFunction(input string) (*FunctionDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := expr.Parse(input)
	if err != nil {
		return nil, err
	}
	def, ok := node.(*expr.FuncDefNode)
	if !ok {
		return nil, types.NewParseError("expected a function definition (name(params) = body)")
	}
	return e.ctx.AddFunction(def)
}

// Functions lists the user-defined functions.
func (e *Engine) Functions() []*FunctionDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.Functions()
}

// SetPrecision sets the number of decimal places used for division and
// result normalization.
func (e *Engine) SetPrecision(p int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Precision = p
}

// SetAngleMode switches trigonometric input between radians and
// degrees.
func (e *Engine) SetAngleMode(mode types.AngleMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Angle = mode
}

// Config returns a snapshot of the current configuration.
func (e *Engine) Config() types.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// ParseMatrix parses matrix literal text like [1 3 5][8 30 2][1 89 2].
func (e *Engine) ParseMatrix(input string) (*matrix.Matrix, error) {
	return matrix.Parse(input)
}

// RowReduce parses a matrix literal and reduces it to reduced
// row-echelon form.
func (e *Engine) RowReduce(input string) (*matrix.Matrix, error) {
	m, err := matrix.Parse(input)
	if err != nil {
		return nil, err
	}
	return m.RowReduce(), nil
}

// Echelon parses a matrix literal and reduces it to triangular form.
func (e *Engine) Echelon(input string) (*matrix.Matrix, error) {
	m, err := matrix.Parse(input)
	if err != nil {
		return nil, err
	}
	return m.Echelon(), nil
}

// Determinant parses a matrix literal and computes its determinant.
func (e *Engine) Determinant(input string) (types.Term, error) {
	m, err := matrix.Parse(input)
	if err != nil {
		return types.Zero, err
	}
	d, err := m.Determinant()
	if err != nil {
		return types.Zero, err
	}
	return e.finishLocked(d), nil
}

// Inverse parses a matrix literal and computes its inverse.
func (e *Engine) Inverse(input string) (*matrix.Matrix, error) {
	m, err := matrix.Parse(input)
	if err != nil {
		return nil, err
	}
	return m.Inverse()
}

// CharPoly parses a matrix literal and computes its characteristic
// polynomial as a symbolic term in x.
func (e *Engine) CharPoly(input string) (types.Term, error) {
	m, err := matrix.Parse(input)
	if err != nil {
		return types.Zero, err
	}
	return m.CharPoly("x")
}

// substituteConstants replaces references to the built-in constants
// with their literal values before evaluation.
func (e *Engine) substituteConstants(node expr.Node) expr.Node {
	bindings := make(map[string]expr.Node, 2)
	for _, name := range []string{"e", "pi"} {
		text, ok := e.ctx.Constant(name)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			continue
		}
		bindings[name] = &expr.LiteralNode{Value: d}
	}
	return substituteParams(node, bindings)
}

// finish normalizes an evaluated term for presentation: values inside
// the zero epsilon collapse to zero, numeric results round to the
// configured precision, symbolic results lose redundant outer parens.
func (e *Engine) finish(t types.Term) types.Term {
	if t.IsZero(e.cfg.ZeroEpsilon) {
		return types.Zero
	}
	if t.IsNumeric() {
		return t.Normalize(e.cfg.Precision)
	}
	return t.StripParens()
}

// finishLocked is finish behind the engine lock, for callers that have
// not taken it.
func (e *Engine) finishLocked(t types.Term) types.Term {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finish(t)
}
