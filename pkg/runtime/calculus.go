package runtime

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/types"
)

// Iteration ceilings. Exceeding any of them is a convergence error
// rather than a hang.
const (
	maxSumIterations     = 10000
	maxNewtonIterations  = 100
	maxBracketIterations = 100
)

// newtonTolerance is the |f(x)| threshold at which Newton-Raphson
// accepts x as a root.
const newtonTolerance = 1e-6

// parentOp is the operator context a node is differentiated under. The
// literal and variable rules depend on whether the node sits inside a
// sum or a product, so the traversal passes the context down explicitly.
type parentOp int

const (
	parentNone parentOp = iota
	parentAdditive
	parentMultiplicative
)

// Derivative differentiates a parsed expression with respect to the
// given variable, producing a symbolic or numeric term.
func (e *Evaluator) Derivative(ctx *Context, node expr.Node, wrt string) (types.Term, error) {
	return e.deriv(ctx, node, wrt, parentNone)
}

func (e *Evaluator) deriv(ctx *Context, node expr.Node, wrt string, parent parentOp) (types.Term, error) {
	switch n := node.(type) {
	case *expr.LiteralNode:
		// Inside a product the constant factor survives so the
		// multiplication rule can pull it out.
		if parent == parentMultiplicative {
			return types.Number(n.Value), nil
		}
		return types.Zero, nil

	case *expr.VariableNode:
		if n.Name != wrt {
			return types.Zero, nil
		}
		// Inside a product the variable is returned as itself; the
		// multiplication rule recognizes it and collapses the pairing.
		if parent == parentMultiplicative {
			return types.Symbol(n.Name), nil
		}
		return types.NumberFromInt(1), nil

	case *expr.UnaryNode:
		d, err := e.deriv(ctx, n.Child, wrt, parentAdditive)
		if err != nil {
			return types.Zero, err
		}
		if n.Sign == expr.SignNegative {
			return negate(d), nil
		}
		return d, nil

	case *expr.BinaryNode:
		return e.derivBinary(ctx, n, wrt)

	case *expr.CallNode:
		return e.derivCall(ctx, n, wrt)
	}
	return types.Zero, types.NewParseError(
		fmt.Sprintf("cannot differentiate node %T", node))
}

func (e *Evaluator) derivBinary(ctx *Context, n *expr.BinaryNode, wrt string) (types.Term, error) {
	switch n.Op {
	case expr.OpPlus, expr.OpMinus:
		return e.derivAddSub(ctx, n, wrt)
	case expr.OpMult:
		return e.derivMult(ctx, n, wrt)
	case expr.OpExp:
		return e.derivPower(ctx, n, wrt)
	case expr.OpDiv:
		return e.derivQuotient(ctx, n, wrt)
	}
	return types.Zero, types.NewParseError(
		fmt.Sprintf("cannot differentiate operator %s", n.Op))
}

// derivAddSub differentiates each side and recombines with the same
// operator, substituting a literal zero for an empty contribution.
func (e *Evaluator) derivAddSub(ctx *Context, n *expr.BinaryNode, wrt string) (types.Term, error) {
	left, err := e.deriv(ctx, n.Left, wrt, parentAdditive)
	if err != nil {
		return types.Zero, err
	}
	right, err := e.deriv(ctx, n.Right, wrt, parentAdditive)
	if err != nil {
		return types.Zero, err
	}
	if left.IsEmpty() {
		left = types.Zero
	}
	if right.IsEmpty() {
		right = types.Zero
	}
	if left.IsZero(e.cfg.ZeroEpsilon) {
		if n.Op == expr.OpMinus {
			return negate(right), nil
		}
		return right, nil
	}
	if right.IsZero(e.cfg.ZeroEpsilon) {
		return left, nil
	}
	return left.Operation(right, n.Op.String(), e.cfg.Precision)
}

// derivMult applies the product rule, collapsing the pairings that
// reduce to a constant factor times the variable's derivative.
func (e *Evaluator) derivMult(ctx *Context, n *expr.BinaryNode, wrt string) (types.Term, error) {
	left, err := e.deriv(ctx, n.Left, wrt, parentMultiplicative)
	if err != nil {
		return types.Zero, err
	}
	right, err := e.deriv(ctx, n.Right, wrt, parentMultiplicative)
	if err != nil {
		return types.Zero, err
	}

	// The variable's own derivative comes back as the variable name:
	// the pairing collapses to the other side.
	if left.String() == wrt {
		return right, nil
	}
	if right.String() == wrt {
		return left, nil
	}
	if !strings.Contains(left.String(), wrt) && !strings.Contains(right.String(), wrt) {
		return types.Zero, nil
	}
	if left.String() == "1" || left.IsEmpty() {
		return right, nil
	}
	if right.String() == "1" || right.IsEmpty() {
		return left, nil
	}
	return e.combine(left, right, expr.OpMult)
}

// derivPower applies the power rule n*x^(n-1) over an evaluated base
// and exponent. A base without the variable differentiates to zero.
func (e *Evaluator) derivPower(ctx *Context, n *expr.BinaryNode, wrt string) (types.Term, error) {
	base, err := e.Eval(ctx, n.Left)
	if err != nil {
		return types.Zero, err
	}
	exp, err := e.Eval(ctx, n.Right)
	if err != nil {
		return types.Zero, err
	}
	if !strings.Contains(base.String(), wrt) {
		return types.Zero, nil
	}

	var reduced types.Term
	if exp.IsNumeric() {
		reduced = types.Number(exp.Decimal().Sub(decimal.New(1, 0)))
	} else {
		reduced = types.Symbol(exp.Parenthesize().String() + "-1")
	}
	if len(reduced.String()) > 1 {
		reduced = reduced.ForceParenthesize()
	}
	powered := base
	if reduced.String() != "1" {
		powered = base.Combine(reduced, "^")
	}
	return exp.ForceParenthesize().Combine(powered, "*"), nil
}

// derivQuotient applies the quotient rule (f'g - fg') / g^2 with every
// sub-term parenthesized before combination.
func (e *Evaluator) derivQuotient(ctx *Context, n *expr.BinaryNode, wrt string) (types.Term, error) {
	f, err := e.Eval(ctx, n.Left)
	if err != nil {
		return types.Zero, err
	}
	g, err := e.Eval(ctx, n.Right)
	if err != nil {
		return types.Zero, err
	}
	df, err := e.deriv(ctx, n.Left, wrt, parentAdditive)
	if err != nil {
		return types.Zero, err
	}
	dg, err := e.deriv(ctx, n.Right, wrt, parentAdditive)
	if err != nil {
		return types.Zero, err
	}
	if df.IsEmpty() {
		df = types.Zero
	}
	if dg.IsEmpty() {
		dg = types.Zero
	}

	fp := f.Parenthesize().String()
	gp := g.Parenthesize().String()
	top := "(" + df.Parenthesize().String() + "*" + gp +
		"-" + fp + "*" + dg.Parenthesize().String() + ")"
	bottom := "(" + gp + "^2)"
	return types.Symbol(top + "/" + bottom), nil
}

// derivCall differentiates a function call: user functions are inlined
// with their arguments substituted structurally, trigonometric natives
// go through the derivative table with the chain rule, other natives
// have no symbolic derivative here.
func (e *Evaluator) derivCall(ctx *Context, call *expr.CallNode, wrt string) (types.Term, error) {
	if fd, ok := ctx.LookupFunction(call.Name); ok {
		if len(call.Args) != len(fd.Params) {
			return types.Zero, types.NewArityError(
				fmt.Sprintf("%s expects %d argument(s), got %d",
					fd.Name, len(fd.Params), len(call.Args)))
		}
		bindings := make(map[string]expr.Node, len(fd.Params))
		for i, p := range fd.Params {
			bindings[p] = call.Args[i]
		}
		inlined := substituteParams(fd.Body, bindings)
		return e.deriv(ctx, inlined, wrt, parentNone)
	}

	template, ok := ctx.Natives().Derivative(call.Name)
	if !ok {
		return types.Zero, types.NewParseError(
			fmt.Sprintf("no symbolic derivative for %q", call.Name))
	}
	if len(call.Args) != 1 {
		return types.Zero, types.NewArityError(
			fmt.Sprintf("%s expects 1 argument, got %d", call.Name, len(call.Args)))
	}

	arg, err := e.Eval(ctx, call.Args[0])
	if err != nil {
		return types.Zero, err
	}
	outer := types.Symbol(substituteTemplate(template, arg.String()))

	inner, err := e.deriv(ctx, call.Args[0], wrt, parentMultiplicative)
	if err != nil {
		return types.Zero, err
	}
	switch {
	case inner.IsEmpty() || inner.String() == "1" || inner.String() == wrt:
		return outer, nil
	case inner.IsZero(e.cfg.ZeroEpsilon):
		return types.Zero, nil
	}
	return outer.Parenthesize().Combine(inner.Parenthesize(), "*"), nil
}

// substituteTemplate replaces each standalone x in a derivative table
// template with the rendered argument, wrapping multi-character
// arguments in parentheses.
func substituteTemplate(template, arg string) string {
	if len(arg) > 1 {
		arg = "(" + arg + ")"
	}
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == 'x' &&
			(i == 0 || !isLetter(template[i-1])) &&
			(i+1 == len(template) || !isLetter(template[i+1])) {
			sb.WriteString(arg)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// substituteParams returns a copy of node with every parameter
// reference replaced by its argument subtree.
func substituteParams(node expr.Node, bindings map[string]expr.Node) expr.Node {
	switch n := node.(type) {
	case *expr.VariableNode:
		if arg, ok := bindings[n.Name]; ok {
			return arg
		}
		return &expr.VariableNode{Name: n.Name}
	case *expr.UnaryNode:
		return &expr.UnaryNode{Sign: n.Sign, Child: substituteParams(n.Child, bindings)}
	case *expr.BinaryNode:
		return &expr.BinaryNode{
			Op:            n.Op,
			Left:          substituteParams(n.Left, bindings),
			Right:         substituteParams(n.Right, bindings),
			AttachedToVar: n.AttachedToVar,
		}
	case *expr.CallNode:
		args := make([]expr.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteParams(a, bindings)
		}
		return &expr.CallNode{Name: n.Name, Args: args}
	}
	return node
}

// Integrate applies the narrow antiderivative heuristic: the power rule
// for ^, termwise recursion through +, -, and *. It is not a general
// integration engine.
func (e *Evaluator) Integrate(ctx *Context, node expr.Node, wrt string) (types.Term, error) {
	switch n := node.(type) {
	case *expr.BinaryNode:
		switch n.Op {
		case expr.OpExp:
			return e.integratePower(ctx, n)
		case expr.OpPlus, expr.OpMinus:
			left, err := e.Integrate(ctx, n.Left, wrt)
			if err != nil {
				return types.Zero, err
			}
			right, err := e.Integrate(ctx, n.Right, wrt)
			if err != nil {
				return types.Zero, err
			}
			if left.IsEmpty() {
				return right, nil
			}
			if right.IsEmpty() {
				return left, nil
			}
			return left.Combine(right, n.Op.String()), nil
		case expr.OpMult:
			left, err := e.Integrate(ctx, n.Left, wrt)
			if err != nil {
				return types.Zero, err
			}
			right, err := e.Integrate(ctx, n.Right, wrt)
			if err != nil {
				return types.Zero, err
			}
			if left.IsEmpty() {
				left, err = e.Eval(ctx, n.Left)
				if err != nil {
					return types.Zero, err
				}
			}
			if right.IsEmpty() {
				right, err = e.Eval(ctx, n.Right)
				if err != nil {
					return types.Zero, err
				}
			}
			return left.Parenthesize().Combine(right.Parenthesize(), "*"), nil
		}
	case *expr.VariableNode:
		if n.Name == wrt {
			return types.Symbol("(" + n.Name + "^2)/2"), nil
		}
	case *expr.UnaryNode:
		inner, err := e.Integrate(ctx, n.Child, wrt)
		if err != nil {
			return types.Zero, err
		}
		if n.Sign == expr.SignNegative {
			return negate(inner), nil
		}
		return inner, nil
	}
	return types.Symbol(""), nil
}

// integratePower rewrites base^n as base^(n+1)/(n+1).
func (e *Evaluator) integratePower(ctx *Context, n *expr.BinaryNode) (types.Term, error) {
	base, err := e.Eval(ctx, n.Left)
	if err != nil {
		return types.Zero, err
	}
	exp, err := e.Eval(ctx, n.Right)
	if err != nil {
		return types.Zero, err
	}
	var raised types.Term
	if exp.IsNumeric() {
		raised = types.Number(exp.Decimal().Add(decimal.New(1, 0)))
	} else {
		raised = types.Symbol(exp.String() + "+1").Parenthesize()
	}
	body := "(" + base.String() + "^" + raised.String() + ")"
	return types.Symbol(body + "/" + raised.Parenthesize().String()), nil
}

// evalSum accumulates consecutive integer evaluations of a series
// expression from k = 0 until a term falls under the zero epsilon.
func (e *Evaluator) evalSum(ctx *Context, call *expr.CallNode) (types.Term, error) {
	if len(call.Args) != 1 {
		return types.Zero, types.NewArityError(
			fmt.Sprintf("sum expects 1 argument, got %d", len(call.Args)))
	}
	t, err := e.Eval(ctx, call.Args[0])
	if err != nil {
		return types.Zero, err
	}
	variable, ok := t.FreeVariable()
	if !ok {
		// A constant series only converges when every term is zero.
		if t.IsZero(e.cfg.ZeroEpsilon) {
			return types.Zero, nil
		}
		return types.Zero, types.NewConvergenceError(
			fmt.Sprintf("series %q does not converge", t))
	}

	name, err := e.synthesize(ctx, t.String(), variable)
	if err != nil {
		return types.Zero, err
	}
	defer ctx.RemoveFunction(name)

	sum := decimal.Zero
	for k := int64(0); k <= maxSumIterations; k++ {
		term, err := e.callAt(ctx, name, decimal.NewFromInt(k))
		if err != nil {
			return types.Zero, err
		}
		if types.Number(term).IsZero(e.cfg.ZeroEpsilon) {
			return types.Number(sum), nil
		}
		sum = sum.Add(term)
	}
	return types.Zero, types.NewConvergenceError(
		fmt.Sprintf("series did not converge within %d terms", maxSumIterations))
}

// FindRoots locates real roots of an expression in the given variable
// by Newton-Raphson iteration, seeded from a grid scan over a search
// interval that doubles outward from [-1, 1].
func (e *Evaluator) FindRoots(ctx *Context, node expr.Node, variable string) ([]decimal.Decimal, error) {
	body, err := e.Eval(ctx, node)
	if err != nil {
		return nil, err
	}
	dt, err := e.Derivative(ctx, node, variable)
	if err != nil {
		return nil, err
	}
	if dt.IsEmpty() || dt.IsZero(e.cfg.ZeroEpsilon) {
		return nil, types.NewConvergenceError("expression has a zero derivative everywhere")
	}

	fName, err := e.synthesize(ctx, body.String(), variable)
	if err != nil {
		return nil, err
	}
	defer ctx.RemoveFunction(fName)
	dfName, err := e.synthesize(ctx, dt.String(), variable)
	if err != nil {
		return nil, err
	}
	defer ctx.RemoveFunction(dfName)

	degree := polynomialDegree(node)
	seeds, err := e.bracketSeeds(ctx, fName, degree)
	if err != nil {
		return nil, err
	}

	var roots []decimal.Decimal
	for _, seed := range seeds {
		root, ok := e.newton(ctx, fName, dfName, seed)
		if !ok {
			continue
		}
		if !containsRoot(roots, root) {
			roots = append(roots, root)
		}
		if len(roots) >= degree {
			break
		}
	}
	if len(roots) == 0 {
		return nil, types.NewConvergenceError(
			fmt.Sprintf("no root found within %d iterations", maxNewtonIterations))
	}
	return roots, nil
}

// bracketSeeds doubles a symmetric search interval outward from
// [-1, 1], scanning a grid across it each time, until at least one
// probe sits on a root or the function changes sign between neighbors.
// Every such point contributes a seed, so a polynomial with several
// roots inside the interval yields a seed near each of them.
func (e *Evaluator) bracketSeeds(ctx *Context, fName string, degree int) ([]decimal.Decimal, error) {
	two := decimal.New(2, 0)
	limit := decimal.New(1, 0)
	for i := 0; i < maxBracketIterations; i++ {
		seeds, err := e.scanForSeeds(ctx, fName, limit, degree)
		if err != nil {
			return nil, err
		}
		if len(seeds) > 0 {
			return seeds, nil
		}
		limit = limit.Mul(two)
	}
	return nil, types.NewConvergenceError(
		fmt.Sprintf("no sign change found within %d bracket doublings", maxBracketIterations))
}

// scanForSeeds samples the function on an even grid across
// [-limit, limit]. A grid point within tolerance of a root becomes a
// seed directly; a sign change between neighbors seeds the midpoint.
func (e *Evaluator) scanForSeeds(ctx *Context, fName string, limit decimal.Decimal, degree int) ([]decimal.Decimal, error) {
	two := decimal.New(2, 0)
	steps := 8 * degree
	if steps < 16 {
		steps = 16
	}
	width := limit.Mul(two).DivRound(decimal.NewFromInt(int64(steps)), int32(e.cfg.Precision))

	var seeds []decimal.Decimal
	var prevX, prevF decimal.Decimal
	havePrev := false
	x := limit.Neg()
	for k := 0; k <= steps; k++ {
		fx, err := e.callAt(ctx, fName, x)
		if err != nil {
			return nil, err
		}
		switch {
		case withinTolerance(fx):
			seeds = append(seeds, x)
		case havePrev && prevF.Sign() != fx.Sign():
			seeds = append(seeds, prevX.Add(x).DivRound(two, int32(e.cfg.Precision)))
		}
		prevX, prevF, havePrev = x, fx, true
		x = x.Add(width)
	}
	return seeds, nil
}

// newton iterates x - f(x)/f'(x) from the seed until |f(x)| is within
// tolerance.
func (e *Evaluator) newton(ctx *Context, fName, dfName string, seed decimal.Decimal) (decimal.Decimal, bool) {
	x := seed
	for i := 0; i < maxNewtonIterations; i++ {
		fx, err := e.callAt(ctx, fName, x)
		if err != nil {
			return decimal.Zero, false
		}
		if withinTolerance(fx) {
			return x, true
		}
		dfx, err := e.callAt(ctx, dfName, x)
		if err != nil || dfx.IsZero() {
			return decimal.Zero, false
		}
		x = x.Sub(fx.DivRound(dfx, int32(e.cfg.Precision)))
	}
	return decimal.Zero, false
}

// synthesize registers a hidden single-parameter function over the
// given body text and returns its generated name.
func (e *Evaluator) synthesize(ctx *Context, body, variable string) (string, error) {
	if body == "" {
		body = "0"
	}
	name := ctx.NextHiddenName()
	node, err := expr.Parse(name + "(" + variable + ")=" + body)
	if err != nil {
		return "", err
	}
	def, ok := node.(*expr.FuncDefNode)
	if !ok {
		return "", types.NewParseError(
			fmt.Sprintf("cannot synthesize function from %q", body))
	}
	if _, err := ctx.AddFunction(def); err != nil {
		return "", err
	}
	return name, nil
}

// callAt evaluates a synthesized function at a numeric point.
func (e *Evaluator) callAt(ctx *Context, name string, x decimal.Decimal) (decimal.Decimal, error) {
	t, err := e.Eval(ctx, &expr.CallNode{
		Name: name,
		Args: []expr.Node{&expr.LiteralNode{Value: x}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !t.IsNumeric() {
		return decimal.Zero, types.NewConvergenceError(
			fmt.Sprintf("%s(%s) did not evaluate numerically", name, x))
	}
	return t.Decimal(), nil
}

func withinTolerance(v decimal.Decimal) bool {
	f, _ := v.Float64()
	if f < 0 {
		f = -f
	}
	return f < newtonTolerance
}

func containsRoot(roots []decimal.Decimal, candidate decimal.Decimal) bool {
	for _, r := range roots {
		d, _ := r.Sub(candidate).Float64()
		if d < 0 {
			d = -d
		}
		if d < 1e-4 {
			return true
		}
	}
	return false
}

// polynomialDegree walks the tree for the maximum literal exponent on a
// non-literal base. Expressions without such an exponent count as
// degree one.
func polynomialDegree(node expr.Node) int {
	degree := 1
	switch n := node.(type) {
	case *expr.BinaryNode:
		if n.Op == expr.OpExp {
			_, leftLiteral := n.Left.(*expr.LiteralNode)
			if lit, ok := n.Right.(*expr.LiteralNode); ok && !leftLiteral {
				if d := int(lit.Value.IntPart()); d > degree {
					degree = d
				}
			}
		}
		if d := polynomialDegree(n.Left); d > degree {
			degree = d
		}
		if d := polynomialDegree(n.Right); d > degree {
			degree = d
		}
	case *expr.UnaryNode:
		if d := polynomialDegree(n.Child); d > degree {
			degree = d
		}
	case *expr.CallNode:
		for _, a := range n.Args {
			if d := polynomialDegree(a); d > degree {
				degree = d
			}
		}
	}
	return degree
}
