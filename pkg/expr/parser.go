package expr

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quillmath/quill/pkg/types"
)

// Parser is a recursive descent parser over the token sequence.
type Parser struct {
	input  string
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a complete expression string into one AST
// root. Empty or whitespace-only input parses to a SpaceNode.
func Parse(input string) (Node, error) {
	lexer := NewLexer(input)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &Parser{input: input, tokens: tokens}
	p.skipSpaces()
	if p.current().Type == TokenEOF {
		return &SpaceNode{}, nil
	}

	node, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if p.current().Type != TokenEOF {
		tok := p.current()
		return nil, types.NewParseError(
			fmt.Sprintf("unexpected token %s (%q) at position %d", tok.Type, tok.Value, tok.Pos))
	}
	return node, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes a token of the expected type or returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, types.NewParseError(
			fmt.Sprintf("expected %s, got %s at position %d", tt, tok.Type, tok.Pos))
	}
	p.advance()
	return tok, nil
}

// skipSpaces advances past SPACE tokens and reports whether any were
// consumed. Adjacency (no space) is what licenses implicit
// multiplication below.
func (p *Parser) skipSpaces() bool {
	skipped := false
	for p.current().Type == TokenSpace {
		p.advance()
		skipped = true
	}
	return skipped
}

// parseStatement parses an expression or a function definition
// (name(params) = body).
func (p *Parser) parseStatement() (Node, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	save := p.pos
	p.skipSpaces()
	if p.current().Type != TokenAssign {
		p.pos = save
		return left, nil
	}
	p.advance() // consume '='

	call, ok := left.(*CallNode)
	if !ok {
		return nil, types.NewParseError("left side of a definition must be name(params)")
	}
	params := make([]string, len(call.Args))
	for i, arg := range call.Args {
		v, ok := arg.(*VariableNode)
		if !ok {
			return nil, types.NewParseError(
				fmt.Sprintf("parameter %d of %s is not a name", i+1, call.Name))
		}
		params[i] = v.Name
	}

	p.skipSpaces()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &FuncDefNode{Name: call.Name, Params: params, Body: body, Source: p.input}, nil
}

// parseExpression is the entry point: handles the lowest precedence
// tier (comparisons and the accumulate operator).
func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for {
		save := p.pos
		p.skipSpaces()
		tok := p.current()
		if tok.Type != TokenOp || !tok.Op.IsComparison() {
			p.pos = save
			return left, nil
		}
		p.advance()
		p.skipSpaces()
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: tok.Op, Left: left, Right: right}
	}
}

func (p *Parser) parseAddition() (Node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for {
		save := p.pos
		p.skipSpaces()
		tok := p.current()
		if tok.Type != TokenOp || (tok.Op != OpPlus && tok.Op != OpMinus) {
			p.pos = save
			return left, nil
		}
		p.advance()
		p.skipSpaces()
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: tok.Op, Left: left, Right: right}
	}
}

// parseMultiplication handles explicit * and / as well as implicit
// multiplication: two operands written adjacently with no operator
// (3x, 2(x+1), (x+1)(x-1)) parse as MULT with the attached flag set.
func (p *Parser) parseMultiplication() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		save := p.pos
		hadSpace := p.skipSpaces()
		tok := p.current()

		if tok.Type == TokenOp && (tok.Op == OpMult || tok.Op == OpDiv) {
			p.advance()
			p.skipSpaces()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &BinaryNode{Op: tok.Op, Left: left, Right: right}
			continue
		}

		// Implicit multiplication requires immediate adjacency; a space
		// between operands is a formatting gap, not an operator.
		if !hadSpace && (tok.Type == TokenNumber || tok.Type == TokenIdent || tok.Type == TokenLParen) {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &BinaryNode{Op: OpMult, Left: left, Right: right, AttachedToVar: true}
			continue
		}

		p.pos = save
		return left, nil
	}
}

// parseUnary handles leading signs. Negation binds tighter than + and -
// but looser than ^, so -x^2 parses as -(x^2).
func (p *Parser) parseUnary() (Node, error) {
	p.skipSpaces()
	tok := p.current()
	if tok.Type == TokenOp && (tok.Op == OpMinus || tok.Op == OpPlus) {
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		sign := SignPositive
		if tok.Op == OpMinus {
			sign = SignNegative
		}
		return &UnaryNode{Sign: sign, Child: child}, nil
	}
	return p.parsePower()
}

// parsePower handles the right-associative exponent tier.
func (p *Parser) parsePower() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	save := p.pos
	p.skipSpaces()
	tok := p.current()
	if tok.Type == TokenOp && tok.Op == OpExp {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: OpExp, Left: left, Right: right}, nil
	}
	p.pos = save
	return left, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	p.skipSpaces()
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, types.NewParseError(
				fmt.Sprintf("invalid number %q at position %d", tok.Value, tok.Pos))
		}
		return &LiteralNode{Value: d}, nil

	case TokenIdent:
		p.advance()
		// A call requires the paren to be immediately adjacent.
		if p.current().Type == TokenLParen {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			return &CallNode{Name: tok.Value, Args: args}, nil
		}
		return &VariableNode{Name: tok.Value}, nil

	case TokenLParen:
		p.advance()
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, types.NewParseError(fmt.Sprintf("unbalanced parentheses: %v", err))
		}
		return node, nil

	case TokenLBracket:
		return p.parseVectorOrMatrix()

	default:
		return nil, types.NewParseError(
			fmt.Sprintf("unexpected token %s (%q) at position %d", tok.Type, tok.Value, tok.Pos))
	}
}

// parseVectorOrMatrix parses one or more bracket groups. A single group
// is a vector literal; consecutive groups are matrix rows read in order.
func (p *Parser) parseVectorOrMatrix() (Node, error) {
	first, err := p.parseVector()
	if err != nil {
		return nil, err
	}

	rows := []*VectorNode{first}
	for {
		save := p.pos
		p.skipSpaces()
		if p.current().Type != TokenLBracket {
			p.pos = save
			break
		}
		row, err := p.parseVector()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 1 {
		return first, nil
	}
	return &MatrixNode{Rows: rows}, nil
}

// parseVector parses one bracketed, comma/space-separated element group.
func (p *Parser) parseVector() (*VectorNode, error) {
	if _, err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}

	var elements []Node
	for {
		p.skipSpaces()
		switch p.current().Type {
		case TokenRBracket:
			p.advance()
			return &VectorNode{Elements: elements}, nil
		case TokenComma:
			p.advance()
		case TokenEOF:
			return nil, types.NewParseError("unbalanced brackets in vector literal")
		default:
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)
		}
	}
}

// parseArgList parses (expr, expr, ...).
func (p *Parser) parseArgList() ([]Node, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var args []Node
	for {
		p.skipSpaces()
		if p.current().Type == TokenRParen {
			p.advance()
			return args, nil
		}
		if len(args) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, types.NewParseError(fmt.Sprintf("expected ',' in arguments: %v", err))
			}
			p.skipSpaces()
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}
