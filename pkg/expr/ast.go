package expr

import "github.com/shopspring/decimal"

// Node is the interface for all expression AST nodes. The node set is
// closed: every consumer switches exhaustively over these types.
type Node interface {
	nodeType() string
}

// LiteralNode represents a numeric literal.
type LiteralNode struct {
	Value decimal.Decimal
}

func (n *LiteralNode) nodeType() string { return "Literal" }

// VariableNode represents a named variable reference.
type VariableNode struct {
	Name string
}

func (n *VariableNode) nodeType() string { return "Variable" }

// UnarySign is the sign symbol of a unary node.
type UnarySign int

const (
	SignPositive UnarySign = iota
	SignNegative
)

// UnaryNode represents a leading sign (e.g. -x).
type UnaryNode struct {
	Sign  UnarySign
	Child Node
}

func (n *UnaryNode) nodeType() string { return "Unary" }

// BinaryNode represents a binary operation. AttachedToVar records that
// the multiplication was written implicitly (no literal '*' between the
// operands), so re-serialization does not insert a spurious sign.
type BinaryNode struct {
	Op            Operator
	Left          Node
	Right         Node
	AttachedToVar bool
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// CallNode represents a function call (e.g. sin(x), f(2,3)).
type CallNode struct {
	Name string
	Args []Node
}

func (n *CallNode) nodeType() string { return "Call" }

// FuncDefNode represents a function definition: name(params) = body.
type FuncDefNode struct {
	Name   string
	Params []string
	Body   Node
	Source string // original definition text
}

func (n *FuncDefNode) nodeType() string { return "FuncDef" }

// VectorNode represents one bracketed, comma/space-separated group.
type VectorNode struct {
	Elements []Node
}

func (n *VectorNode) nodeType() string { return "Vector" }

// MatrixNode represents consecutive bracket groups read row-by-row.
type MatrixNode struct {
	Rows []*VectorNode
}

func (n *MatrixNode) nodeType() string { return "Matrix" }

// SpaceNode represents a formatting gap. It evaluates to zero.
type SpaceNode struct{}

func (n *SpaceNode) nodeType() string { return "Space" }
