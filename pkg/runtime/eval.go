package runtime

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/types"
)

// Evaluator walks an expression tree and produces a Term. It holds a
// pointer to the engine configuration so literal precision raising is
// visible to subsequent operations.
type Evaluator struct {
	cfg *types.Config
}

// NewEvaluator creates an evaluator over the given configuration.
func NewEvaluator(cfg *types.Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Eval evaluates a node in the given context.
func (e *Evaluator) Eval(ctx *Context, node expr.Node) (types.Term, error) {
	switch n := node.(type) {
	case *expr.LiteralNode:
		e.raisePrecision(n.Value)
		return types.Number(n.Value), nil

	case *expr.VariableNode:
		if t, ok := ctx.LookupVar(n.Name); ok {
			return t, nil
		}
		return types.Symbol(n.Name), nil

	case *expr.UnaryNode:
		child, err := e.Eval(ctx, n.Child)
		if err != nil {
			return types.Zero, err
		}
		if n.Sign == expr.SignNegative {
			return negate(child), nil
		}
		return child, nil

	case *expr.BinaryNode:
		left, err := e.Eval(ctx, n.Left)
		if err != nil {
			return types.Zero, err
		}
		right, err := e.Eval(ctx, n.Right)
		if err != nil {
			return types.Zero, err
		}
		return e.combine(left, right, n.Op)

	case *expr.CallNode:
		return e.evalCall(ctx, n)

	case *expr.SpaceNode:
		return types.Zero, nil

	case *expr.FuncDefNode:
		return types.Zero, types.NewParseError(
			"function definitions are not valid inside expressions")

	case *expr.VectorNode, *expr.MatrixNode:
		return types.Zero, types.NewParseError(
			"matrix literals are only valid in matrix operations")
	}
	return types.Zero, types.NewParseError(
		fmt.Sprintf("cannot evaluate node %T", node))
}

// raisePrecision widens the working precision when a literal carries
// more decimal places than the current setting, keeping two digits of
// headroom.
func (e *Evaluator) raisePrecision(d decimal.Decimal) {
	scale := 0
	if exp := d.Exponent(); exp < 0 {
		scale = int(-exp)
	}
	if scale+2 > e.cfg.Precision {
		e.cfg.Precision = scale + 2
	}
}

// combine applies a binary operator to two evaluated terms.
func (e *Evaluator) combine(left, right types.Term, op expr.Operator) (types.Term, error) {
	switch {
	case op == expr.OpPEqual:
		// a += b accumulates: the result is a + (a + b).
		inner, err := left.Operation(right, "+", e.cfg.Precision)
		if err != nil {
			return types.Zero, err
		}
		return left.Operation(inner, "+", e.cfg.Precision)
	case op.IsComparison():
		return compare(left, right, op)
	case op == expr.OpMult && !(left.IsNumeric() && right.IsNumeric()):
		return multiplySymbolic(left, right), nil
	}
	return left.Operation(right, op.String(), e.cfg.Precision)
}

// compare evaluates a comparison to the numeric term 1 or 0. Symbolic
// operands defer the comparison textually.
func compare(left, right types.Term, op expr.Operator) (types.Term, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return left.Combine(right, op.String()), nil
	}
	c := left.Decimal().Cmp(right.Decimal())
	var truth bool
	switch op {
	case expr.OpGT:
		truth = c > 0
	case expr.OpLT:
		truth = c < 0
	case expr.OpGTE:
		truth = c >= 0
	case expr.OpLTE:
		truth = c <= 0
	case expr.OpEqual:
		truth = c == 0
	case expr.OpNEQ:
		truth = c != 0
	}
	if truth {
		return types.NumberFromInt(1), nil
	}
	return types.Zero, nil
}

// multiplySymbolic writes a product involving a symbolic operand as
// plain adjacency, numeric coefficient first, so 2*x reads back as 2x.
func multiplySymbolic(left, right types.Term) types.Term {
	if right.IsNumeric() && !left.IsNumeric() {
		left, right = right, left
	}
	return types.Symbol(productText(left) + productText(right))
}

// productText renders a factor, wrapping it when adjacency would change
// how it reparses. Parenthesize leaves already-wrapped factors alone.
func productText(t types.Term) string {
	s := t.String()
	if strings.ContainsAny(s, "+-*/^ ") {
		return t.Parenthesize().String()
	}
	return s
}

// negate flips the sign of a term.
func negate(t types.Term) types.Term {
	if t.IsNumeric() {
		return types.Number(t.Decimal().Neg())
	}
	s := t.String()
	if strings.HasPrefix(s, "-") && !strings.ContainsAny(s[1:], "+-*/^ ") {
		return types.Symbol(s[1:])
	}
	if strings.ContainsAny(s, "+-*/^ ") {
		return types.Symbol("-" + t.Parenthesize().String())
	}
	return types.Symbol("-" + s)
}

// evalCall dispatches a call node: infinite sums first, then
// user-defined functions, then natives.
func (e *Evaluator) evalCall(ctx *Context, call *expr.CallNode) (types.Term, error) {
	if call.Name == "sum" {
		return e.evalSum(ctx, call)
	}

	if fd, ok := ctx.LookupFunction(call.Name); ok {
		return e.callUserFunction(ctx, fd, call.Args)
	}

	if !ctx.Natives().Contains(call.Name) {
		return types.Zero, types.NewUnknownIdentifierError(
			fmt.Sprintf("function %q not found", call.Name))
	}

	terms := make([]types.Term, len(call.Args))
	symbolic := false
	for i, arg := range call.Args {
		t, err := e.Eval(ctx, arg)
		if err != nil {
			return types.Zero, err
		}
		terms[i] = t
		if !t.IsNumeric() {
			symbolic = true
		}
	}
	if symbolic {
		// A native applied to a symbolic argument stays symbolic, so
		// fac(x) or sin(2x) round-trips through later evaluation.
		parts := make([]string, len(terms))
		for i, t := range terms {
			parts[i] = t.String()
		}
		return types.Symbol(call.Name + "(" + strings.Join(parts, ",") + ")"), nil
	}

	args := make([]decimal.Decimal, len(terms))
	for i, t := range terms {
		args[i] = t.Decimal()
	}
	d, err := ctx.Natives().Call(call.Name, *e.cfg, args)
	if err != nil {
		return types.Zero, err
	}
	return types.Number(d), nil
}

// callUserFunction evaluates a user function body in a child context
// with parameters bound to the evaluated arguments.
func (e *Evaluator) callUserFunction(ctx *Context, fd *FunctionDefinition, args []expr.Node) (types.Term, error) {
	if len(args) != len(fd.Params) {
		return types.Zero, types.NewArityError(
			fmt.Sprintf("%s expects %d argument(s), got %d",
				fd.Name, len(fd.Params), len(args)))
	}
	child := ctx.Child()
	for i, arg := range args {
		t, err := e.Eval(ctx, arg)
		if err != nil {
			return types.Zero, err
		}
		child.Bind(fd.Params[i], t)
	}
	return e.Eval(child, fd.Body)
}
