package expr

import "strings"

// Render serializes an AST back to expression text. Implicit
// multiplications (attached flag) render without a '*' so a rendered
// tree reparses to the same shape.
func Render(n Node) string {
	switch node := n.(type) {
	case *LiteralNode:
		return node.Value.String()
	case *VariableNode:
		return node.Name
	case *UnaryNode:
		child := Render(node.Child)
		if _, ok := node.Child.(*BinaryNode); ok {
			child = "(" + child + ")"
		}
		if node.Sign == SignNegative {
			return "-" + child
		}
		return child
	case *BinaryNode:
		left := renderChild(node.Left, node.Op)
		right := renderChild(node.Right, node.Op)
		if node.Op == OpMult && node.AttachedToVar {
			return left + right
		}
		return left + node.Op.String() + right
	case *CallNode:
		args := make([]string, len(node.Args))
		for i, arg := range node.Args {
			args[i] = Render(arg)
		}
		return node.Name + "(" + strings.Join(args, ",") + ")"
	case *FuncDefNode:
		return node.Name + "(" + strings.Join(node.Params, ",") + ") = " + Render(node.Body)
	case *VectorNode:
		elems := make([]string, len(node.Elements))
		for i, e := range node.Elements {
			elems[i] = Render(e)
		}
		return "[" + strings.Join(elems, " ") + "]"
	case *MatrixNode:
		var sb strings.Builder
		for _, row := range node.Rows {
			sb.WriteString(Render(row))
		}
		return sb.String()
	case *SpaceNode:
		return " "
	default:
		return ""
	}
}

// renderChild parenthesizes a binary child whose operator binds looser
// than its parent, so precedence survives the round trip.
func renderChild(n Node, parent Operator) string {
	s := Render(n)
	if bin, ok := n.(*BinaryNode); ok && bin.Op.Precedence() < parent.Precedence() {
		return "(" + s + ")"
	}
	return s
}
