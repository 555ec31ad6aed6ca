package expr

import (
	"fmt"

	"github.com/quillmath/quill/pkg/types"
)

// Lexer tokenizes an expression string. Whitespace is retained as SPACE
// tokens because adjacency of tokens carries implicit-multiplication
// meaning to the parser.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, nil
}

// next returns the next token from the input.
func (l *Lexer) next() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]

	if ch == ' ' || ch == '\t' {
		return l.readSpace(), nil
	}

	if ch >= '0' && ch <= '9' || ch == '.' {
		return l.readNumber()
	}

	// Two-character operators, longest match first.
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		switch two {
		case ">=", "<=", "!=", "==", "+=":
			op, _ := OperatorFromString(two)
			l.pos += 2
			return Token{Type: TokenOp, Value: two, Op: op, Pos: l.pos - 2}, nil
		}
	}

	switch ch {
	case '+', '-', '*', '/', '^', '>', '<':
		op, _ := OperatorFromString(string(ch))
		l.pos++
		return Token{Type: TokenOp, Value: string(ch), Op: op, Pos: l.pos - 1}, nil
	case '=':
		l.pos++
		return Token{Type: TokenAssign, Value: "=", Pos: l.pos - 1}, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: l.pos - 1}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: l.pos - 1}, nil
	case '[':
		l.pos++
		return Token{Type: TokenLBracket, Value: "[", Pos: l.pos - 1}, nil
	case ']':
		l.pos++
		return Token{Type: TokenRBracket, Value: "]", Pos: l.pos - 1}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: l.pos - 1}, nil
	}

	if isIdentStart(ch) {
		return l.readIdentifier(), nil
	}

	return Token{}, types.NewLexicalError(
		fmt.Sprintf("unexpected character %q at position %d", string(ch), l.pos))
}

// readSpace collapses a run of whitespace into one SPACE token.
func (l *Lexer) readSpace() Token {
	start := l.pos
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
	return Token{Type: TokenSpace, Value: l.input[start:l.pos], Pos: start}
}

// readNumber reads a multi-digit or decimal numeric literal.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch >= '0' && ch <= '9' {
			l.pos++
		} else if ch == '.' && !seenDot {
			seenDot = true
			l.pos++
		} else {
			break
		}
	}
	raw := l.input[start:l.pos]
	if raw == "." {
		return Token{}, types.NewLexicalError(
			fmt.Sprintf("invalid number %q at position %d", raw, start))
	}
	return Token{Type: TokenNumber, Value: raw, Pos: start}, nil
}

// readIdentifier reads a case-sensitive identifier.
func (l *Lexer) readIdentifier() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
