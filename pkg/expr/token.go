// Package expr implements the expression language: tokenizer, operator
// table, AST node set, recursive-descent parser, and renderer.
package expr

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenNumber TokenType = iota // numeric literal
	TokenIdent                   // identifier (function/variable name)
	TokenOp                      // binary operator
	TokenLParen                  // (
	TokenRParen                  // )
	TokenLBracket                // [
	TokenRBracket                // ]
	TokenComma                   // ,
	TokenAssign                  // = (function definition)
	TokenSpace                   // whitespace, retained for adjacency
	TokenEOF                     // end of input
)

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "NUMBER"
	case TokenIdent:
		return "IDENT"
	case TokenOp:
		return "OP"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	case TokenComma:
		return "COMMA"
	case TokenAssign:
		return "ASSIGN"
	case TokenSpace:
		return "SPACE"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Value string   // raw text
	Op    Operator // operator (for TokenOp)
	Pos   int      // position in source
}

// Operator is one of the fixed set of binary operators.
type Operator int

const (
	OpPlus   Operator = iota // +
	OpMinus                  // -
	OpMult                   // *
	OpDiv                    // /
	OpExp                    // ^
	OpGT                     // >
	OpLT                     // <
	OpGTE                    // >=
	OpLTE                    // <=
	OpNEQ                    // !=
	OpEqual                  // ==
	OpPEqual                 // +=
)

// String returns the canonical rendering of the operator.
func (o Operator) String() string {
	switch o {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMult:
		return "*"
	case OpDiv:
		return "/"
	case OpExp:
		return "^"
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGTE:
		return ">="
	case OpLTE:
		return "<="
	case OpNEQ:
		return "!="
	case OpEqual:
		return "=="
	case OpPEqual:
		return "+="
	default:
		return "?"
	}
}

// Precedence tiers: comparisons (lowest) < + - < * / < ^ (highest).
// Unary negation binds between the additive and exponent tiers.
func (o Operator) Precedence() int {
	switch o {
	case OpGT, OpLT, OpGTE, OpLTE, OpNEQ, OpEqual, OpPEqual:
		return 1
	case OpPlus, OpMinus:
		return 2
	case OpMult, OpDiv:
		return 3
	case OpExp:
		return 4
	default:
		return 0
	}
}

// IsComparison reports whether the operator is in the comparison tier
// (including the accumulate operator).
func (o Operator) IsComparison() bool {
	return o.Precedence() == 1
}

// OperatorFromString maps a canonical rendering back to its operator.
func OperatorFromString(s string) (Operator, bool) {
	switch s {
	case "+":
		return OpPlus, true
	case "-":
		return OpMinus, true
	case "*":
		return OpMult, true
	case "/":
		return OpDiv, true
	case "^":
		return OpExp, true
	case ">":
		return OpGT, true
	case "<":
		return OpLT, true
	case ">=":
		return OpGTE, true
	case "<=":
		return OpLTE, true
	case "!=":
		return OpNEQ, true
	case "==":
		return OpEqual, true
	case "+=":
		return OpPEqual, true
	}
	return OpPlus, false
}
