// Package types defines the core value types used throughout the engine:
// the dual-mode Term produced by evaluation, the engine configuration, and
// the typed error taxonomy.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TermKind tags which half of the Term variant is authoritative.
type TermKind int

const (
	TermNumeric  TermKind = iota // exact decimal value
	TermSymbolic                 // symbolic text expression
)

// Sign is the rendered sign of a term.
type Sign int

const (
	Positive Sign = iota
	Negative
)

// Term is the dual-mode value produced by evaluation: exactly one of the
// exact decimal value or the symbolic text is authoritative, never both.
type Term struct {
	kind TermKind
	dec  decimal.Decimal
	text string
}

// Zero is the exact numeric zero term.
var Zero = Term{kind: TermNumeric, dec: decimal.Zero}

// Number creates a numeric term from an exact decimal.
func Number(d decimal.Decimal) Term {
	return Term{kind: TermNumeric, dec: d}
}

// NumberFromInt creates a numeric term from an integer.
func NumberFromInt(v int64) Term {
	return Term{kind: TermNumeric, dec: decimal.NewFromInt(v)}
}

// NumberFromFloat creates a numeric term from a float64.
func NumberFromFloat(v float64) Term {
	return Term{kind: TermNumeric, dec: decimal.NewFromFloat(v)}
}

// Symbol creates a symbolic term carrying the given text verbatim.
func Symbol(text string) Term {
	return Term{kind: TermSymbolic, text: text}
}

// FromText creates a numeric term when the text parses as a number,
// otherwise a symbolic term.
func FromText(text string) Term {
	if d, err := decimal.NewFromString(text); err == nil && text != "" {
		return Number(d)
	}
	return Symbol(text)
}

// Kind returns which variant is authoritative.
func (t Term) Kind() TermKind { return t.kind }

// IsNumeric returns true when the term holds an exact decimal value.
func (t Term) IsNumeric() bool { return t.kind == TermNumeric }

// Decimal returns the exact decimal value. Zero for symbolic terms.
func (t Term) Decimal() decimal.Decimal {
	if t.kind != TermNumeric {
		return decimal.Zero
	}
	return t.dec
}

// String renders the term: the symbolic text when present, else the
// decimal value, else a literal zero.
func (t Term) String() string {
	if t.kind == TermSymbolic {
		if t.text == "" {
			return "0"
		}
		return t.text
	}
	return normalizeString(t.dec)
}

// IsEmpty reports a symbolic term with no text (the zero-contribution
// marker used by the calculus engine).
func (t Term) IsEmpty() bool {
	return t.kind == TermSymbolic && t.text == ""
}

// IsZero reports whether the term should be treated as zero: a numeric
// value within eps of zero, or an empty symbolic term.
func (t Term) IsZero(eps float64) bool {
	if t.kind == TermNumeric {
		f, _ := t.dec.Float64()
		if f < 0 {
			f = -f
		}
		return f <= eps
	}
	return t.text == ""
}

// Sign scans the rendered text for a leading minus preceding a digit.
func (t Term) Sign() Sign {
	s := t.String()
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			return Negative
		}
		if s[i] >= '0' && s[i] <= '9' {
			return Positive
		}
	}
	return Positive
}

// operator and grouping characters excluded by FreeVariable.
const nonVariableChars = "0123456789.+-*/^><=!() ,"

// FreeVariable extracts the single free variable of the rendered text:
// the first character that is not a digit, decimal point, operator, or
// parenthesis. Returns false when the term is purely numeric.
func (t Term) FreeVariable() (string, bool) {
	s := t.String()
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(nonVariableChars, rune(s[i])) {
			return string(s[i]), true
		}
	}
	return "", false
}

// Exponent returns the character immediately after the first '^' in the
// rendered text, defaulting to "1" when no exponent is written.
func (t Term) Exponent() string {
	s := t.String()
	if i := strings.IndexByte(s, '^'); i >= 0 && i+1 < len(s) {
		return string(s[i+1])
	}
	return "1"
}

// Parenthesize wraps the rendered form in a single paren pair unless it
// is already surrounded by one matching pair.
func (t Term) Parenthesize() Term {
	s := t.String()
	if s == "" {
		return t
	}
	if surroundedBySinglePair(s) {
		return Symbol(s)
	}
	return Symbol("(" + s + ")")
}

// ForceParenthesize wraps the rendered form unconditionally.
func (t Term) ForceParenthesize() Term {
	return Symbol("(" + t.String() + ")")
}

// StripParens removes redundant outer paren pairs, determined by
// bracket-depth matching. Numeric terms are returned unchanged.
func (t Term) StripParens() Term {
	if t.kind != TermSymbolic {
		return t
	}
	s := t.text
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && surroundedBySinglePair(s) {
		s = s[1 : len(s)-1]
	}
	return Symbol(s)
}

// surroundedBySinglePair reports whether the outermost parens of s form
// one matching pair enclosing the whole string.
func surroundedBySinglePair(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// Combine concatenates the rendered forms of two terms with the given
// operator text in between (empty text yields plain adjacency).
func (t Term) Combine(other Term, op string) Term {
	return Symbol(t.String() + op + other.String())
}

// Operation combines two terms through the generic arithmetic path.
// When both sides are numeric the result is exact decimal arithmetic
// (division rounded to precision decimal places, exponentiation via
// repeated multiplication); otherwise the rendered forms are joined
// textually with the operator symbol.
func (t Term) Operation(other Term, op string, precision int) (Term, error) {
	if t.kind == TermNumeric && other.kind == TermNumeric {
		a, b := t.dec, other.dec
		switch op {
		case "+":
			return Number(a.Add(b)), nil
		case "-":
			return Number(a.Sub(b)), nil
		case "*":
			return Number(a.Mul(b)), nil
		case "/":
			if b.IsZero() {
				return Zero, NewDivisionError("division by zero")
			}
			return Number(a.DivRound(b, int32(precision))), nil
		case "^":
			d, err := powByMultiplication(a, b, precision)
			if err != nil {
				return Zero, err
			}
			return Number(d), nil
		}
		return Zero, NewParseError("unsupported operator " + op)
	}

	combined := t.Combine(other, op)
	// Division by a symbolic divisor and symbolic products need a
	// protecting paren pair so re-rendered text reparses with the same
	// precedence.
	if op == "/" || op == "*" {
		combined = combined.Parenthesize()
	}
	return combined, nil
}

// powByMultiplication raises a to an integer power by repeated
// multiplication. A negative exponent divides into 1 at the configured
// precision.
func powByMultiplication(a, b decimal.Decimal, precision int) (decimal.Decimal, error) {
	n := b.IntPart()
	if n == 0 {
		return decimal.NewFromInt(1), nil
	}
	neg := n < 0
	if neg {
		n = -n
	}
	val := a
	for i := int64(1); i < n; i++ {
		val = val.Mul(a)
	}
	if neg {
		if val.IsZero() {
			return decimal.Zero, NewDivisionError("zero base with negative exponent")
		}
		return decimal.NewFromInt(1).DivRound(val, int32(precision)), nil
	}
	return val, nil
}

// Normalize rounds a numeric term to precision decimal places and strips
// trailing zeros. Symbolic terms are returned unchanged.
func (t Term) Normalize(precision int) Term {
	if t.kind != TermNumeric {
		return t
	}
	return Number(t.dec.Round(int32(precision)))
}

// normalizeString renders a decimal without trailing fraction zeros.
func normalizeString(d decimal.Decimal) string {
	s := d.String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
