package runtime

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/types"
)

// signedLeaf is one additive term with its accumulated sign.
type signedLeaf struct {
	node     expr.Node
	negative bool
}

// collectAdditive flattens a chain of + and - into signed leaves,
// pushing signs through subtraction and unary minus.
func collectAdditive(n expr.Node, neg bool, out []signedLeaf) []signedLeaf {
	switch v := n.(type) {
	case *expr.BinaryNode:
		if v.Op == expr.OpPlus || v.Op == expr.OpMinus {
			out = collectAdditive(v.Left, neg, out)
			rightNeg := neg
			if v.Op == expr.OpMinus {
				rightNeg = !neg
			}
			return collectAdditive(v.Right, rightNeg, out)
		}
	case *expr.UnaryNode:
		if v.Sign == expr.SignNegative {
			return collectAdditive(v.Child, !neg, out)
		}
		return collectAdditive(v.Child, neg, out)
	}
	return append(out, signedLeaf{node: n, negative: neg})
}

// Simplify folds all numeric leaves of an additive chain into a single
// literal and rebuilds the chain left-associatively. When every leaf
// cancels the result is the zero literal. Subtrees below other
// operators are simplified in place.
func Simplify(node expr.Node) expr.Node {
	switch n := node.(type) {
	case *expr.BinaryNode:
		if n.Op == expr.OpPlus || n.Op == expr.OpMinus {
			leaves := collectAdditive(n, false, nil)
			sum := decimal.Zero
			var rest []signedLeaf
			for _, l := range leaves {
				if lit, ok := l.node.(*expr.LiteralNode); ok {
					if l.negative {
						sum = sum.Sub(lit.Value)
					} else {
						sum = sum.Add(lit.Value)
					}
					continue
				}
				l.node = Simplify(l.node)
				rest = append(rest, l)
			}
			return rebuildAdditive(rest, sum)
		}
		return &expr.BinaryNode{
			Op:            n.Op,
			Left:          Simplify(n.Left),
			Right:         Simplify(n.Right),
			AttachedToVar: n.AttachedToVar,
		}
	case *expr.UnaryNode:
		return &expr.UnaryNode{Sign: n.Sign, Child: Simplify(n.Child)}
	case *expr.CallNode:
		args := make([]expr.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = Simplify(a)
		}
		return &expr.CallNode{Name: n.Name, Args: args}
	}
	return node
}

// rebuildAdditive joins the surviving leaves left-associatively and
// appends the folded numeric remainder.
func rebuildAdditive(rest []signedLeaf, sum decimal.Decimal) expr.Node {
	var root expr.Node
	for _, l := range rest {
		if root == nil {
			if l.negative {
				root = &expr.UnaryNode{Sign: expr.SignNegative, Child: l.node}
			} else {
				root = l.node
			}
			continue
		}
		op := expr.OpPlus
		if l.negative {
			op = expr.OpMinus
		}
		root = &expr.BinaryNode{Op: op, Left: root, Right: l.node}
	}
	if root == nil {
		return &expr.LiteralNode{Value: sum}
	}
	if !sum.IsZero() {
		if sum.IsNegative() {
			root = &expr.BinaryNode{Op: expr.OpMinus, Left: root, Right: &expr.LiteralNode{Value: sum.Neg()}}
		} else {
			root = &expr.BinaryNode{Op: expr.OpPlus, Left: root, Right: &expr.LiteralNode{Value: sum}}
		}
	}
	return root
}

// Factor distributes a top-level product of additive groups into a sum
// of pairwise term products, combining like bases as it goes, and
// reparses the expanded text. Anything that is not such a product just
// gets simplified.
func Factor(node expr.Node, precision int) (expr.Node, error) {
	b, ok := node.(*expr.BinaryNode)
	if !ok || b.Op != expr.OpMult {
		return Simplify(node), nil
	}
	left := collectAdditive(b.Left, false, nil)
	right := collectAdditive(b.Right, false, nil)
	if len(left) == 1 && len(right) == 1 {
		if combined, ok, err := combineSingle(left[0], right[0]); ok || err != nil {
			return combined, err
		}
		return Simplify(node), nil
	}

	var sb strings.Builder
	first := true
	for _, l := range left {
		for _, r := range right {
			t, err := multiplyLeaves(l.node, r.node, precision)
			if err != nil {
				return nil, err
			}
			s := t.String()
			negative := l.negative != r.negative
			if strings.HasPrefix(s, "-") {
				s = s[1:]
				negative = !negative
			}
			switch {
			case negative:
				sb.WriteString("-")
			case !first:
				sb.WriteString("+")
			}
			sb.WriteString(s)
			first = false
		}
	}
	expanded, err := expr.Parse(sb.String())
	if err != nil {
		return nil, err
	}
	return Simplify(expanded), nil
}

// combineSingle handles a product of two lone leaves: plain numbers
// multiply exactly and monomials over the same variable add exponents.
// Products that would only combine by adjacency are left alone.
func combineSingle(l, r signedLeaf) (expr.Node, bool, error) {
	ta := types.FromText(expr.Render(l.node))
	tb := types.FromText(expr.Render(r.node))
	negative := l.negative != r.negative

	if ta.IsNumeric() && tb.IsNumeric() {
		prod := ta.Decimal().Mul(tb.Decimal())
		if negative {
			prod = prod.Neg()
		}
		var node expr.Node = &expr.LiteralNode{Value: prod.Abs()}
		if prod.IsNegative() {
			node = &expr.UnaryNode{Sign: expr.SignNegative, Child: node}
		}
		return node, true, nil
	}

	ma, okA := parseMonomial(ta)
	mb, okB := parseMonomial(tb)
	var combined monomial
	switch {
	case okA && okB && ma.variable == mb.variable:
		combined = ma.mul(mb)
	case okA && tb.IsNumeric():
		ma.coef = ma.coef.Mul(tb.Decimal())
		combined = ma
	case okB && ta.IsNumeric():
		mb.coef = mb.coef.Mul(ta.Decimal())
		combined = mb
	default:
		return nil, false, nil
	}
	if negative {
		combined.coef = combined.coef.Neg()
	}
	node, err := expr.Parse(combined.term().String())
	return node, true, err
}

// multiplyLeaves multiplies two additive leaves. Numbers multiply
// exactly, monomials over the same variable add exponents, and
// everything else combines by adjacency with the numeric factor first.
func multiplyLeaves(a, b expr.Node, precision int) (types.Term, error) {
	ta := types.FromText(expr.Render(a))
	tb := types.FromText(expr.Render(b))
	if ta.IsNumeric() && tb.IsNumeric() {
		return types.Number(ta.Decimal().Mul(tb.Decimal())), nil
	}

	ma, okA := parseMonomial(ta)
	mb, okB := parseMonomial(tb)
	switch {
	case okA && okB && ma.variable == mb.variable:
		return ma.mul(mb).term(), nil
	case okA && tb.IsNumeric():
		ma.coef = ma.coef.Mul(tb.Decimal())
		return ma.term(), nil
	case okB && ta.IsNumeric():
		mb.coef = mb.coef.Mul(ta.Decimal())
		return mb.term(), nil
	}
	return multiplySymbolic(ta, tb), nil
}

// monomial is a coefficient times a single-letter variable raised to an
// integer power.
type monomial struct {
	coef     decimal.Decimal
	variable byte
	exp      int64
}

func (m monomial) mul(other monomial) monomial {
	return monomial{
		coef:     m.coef.Mul(other.coef),
		variable: m.variable,
		exp:      m.exp + other.exp,
	}
}

func (m monomial) term() types.Term {
	var sb strings.Builder
	one := decimal.New(1, 0)
	switch {
	case m.coef.Equal(one.Neg()):
		sb.WriteString("-")
	case !m.coef.Equal(one):
		sb.WriteString(m.coef.String())
	}
	sb.WriteByte(m.variable)
	if m.exp != 1 {
		fmt.Fprintf(&sb, "^%d", m.exp)
	}
	return types.Symbol(sb.String())
}

// parseMonomial recognizes forms like x, 2x, -3.5x^2. Anything else
// reports false.
func parseMonomial(t types.Term) (monomial, bool) {
	s := t.String()
	m := monomial{coef: decimal.New(1, 0), exp: 1}
	i := 0
	if i < len(s) && s[i] == '-' {
		m.coef = m.coef.Neg()
		i++
	}
	start := i
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i > start {
		c, err := decimal.NewFromString(s[start:i])
		if err != nil {
			return monomial{}, false
		}
		m.coef = m.coef.Mul(c)
	}
	if i >= len(s) || !isLetter(s[i]) {
		return monomial{}, false
	}
	m.variable = s[i]
	i++
	if i == len(s) {
		return m, true
	}
	if s[i] != '^' {
		return monomial{}, false
	}
	i++
	expStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i != len(s) || i == expStart {
		return monomial{}, false
	}
	e, err := decimal.NewFromString(s[expStart:i])
	if err != nil {
		return monomial{}, false
	}
	m.exp = e.IntPart()
	return m, true
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
