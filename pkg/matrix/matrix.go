// Package matrix implements the matrix algebra engine: echelon and
// reduced row-echelon reduction, determinants, inversion, and
// characteristic polynomials over column-vector-backed matrices.
package matrix

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/types"
)

// pivotEpsilon is the zero test for pivot entries. It is deliberately
// looser than the scalar zero epsilon used by the evaluator.
const pivotEpsilon = 1e-5

// displayPlaces is the number of decimal places used when rendering
// entries. The stored values keep full precision.
const displayPlaces = 5

// Matrix is backed by column vectors: cols[j][i] is the entry at row i,
// column j. Operations never mutate their receiver; they copy first.
type Matrix struct {
	cols [][]float64
}

// New creates a matrix from column vectors. Every column must have the
// same length.
func New(cols [][]float64) (*Matrix, error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, fmt.Errorf("matrix must have at least one entry")
	}
	rows := len(cols[0])
	for j, c := range cols {
		if len(c) != rows {
			return nil, fmt.Errorf("column %d has %d entries, want %d", j, len(c), rows)
		}
	}
	return &Matrix{cols: cols}, nil
}

// FromRows creates a matrix from row vectors.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("matrix must have at least one entry")
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d entries, want %d", i, len(r), width)
		}
	}
	cols := make([][]float64, width)
	for j := range cols {
		cols[j] = make([]float64, len(rows))
		for i := range rows {
			cols[j][i] = rows[i][j]
		}
	}
	return &Matrix{cols: cols}, nil
}

// Parse reads matrix literal text such as [1 3 5][8 30 2][1 89 2],
// where each bracket group is one row.
func Parse(input string) (*Matrix, error) {
	node, err := expr.Parse(input)
	if err != nil {
		return nil, err
	}
	var groups []*expr.VectorNode
	switch n := node.(type) {
	case *expr.MatrixNode:
		groups = n.Rows
	case *expr.VectorNode:
		groups = []*expr.VectorNode{n}
	default:
		return nil, types.NewParseError("expected a matrix literal")
	}

	rows := make([][]float64, len(groups))
	for i, g := range groups {
		rows[i] = make([]float64, len(g.Elements))
		for j, el := range g.Elements {
			v, err := elementValue(el)
			if err != nil {
				return nil, err
			}
			rows[i][j] = v
		}
	}
	return FromRows(rows)
}

// elementValue extracts a numeric matrix entry: a literal, optionally
// under a unary sign.
func elementValue(node expr.Node) (float64, error) {
	switch n := node.(type) {
	case *expr.LiteralNode:
		f, _ := n.Value.Float64()
		return f, nil
	case *expr.UnaryNode:
		v, err := elementValue(n.Child)
		if err != nil {
			return 0, err
		}
		if n.Sign == expr.SignNegative {
			return -v, nil
		}
		return v, nil
	}
	return 0, types.NewParseError("matrix entries must be numeric literals")
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return len(m.cols[0]) }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return len(m.cols) }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.cols[j][i] }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	cols := make([][]float64, len(m.cols))
	for j, c := range m.cols {
		cols[j] = make([]float64, len(c))
		copy(cols[j], c)
	}
	return &Matrix{cols: cols}
}

// Identity returns the n-by-n identity matrix.
func Identity(n int) *Matrix {
	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = make([]float64, n)
		cols[j][j] = 1
	}
	return &Matrix{cols: cols}
}

// Mul returns the product m * other.
func (m *Matrix) Mul(other *Matrix) (*Matrix, error) {
	if m.Cols() != other.Rows() {
		return nil, fmt.Errorf("cannot multiply %dx%d by %dx%d",
			m.Rows(), m.Cols(), other.Rows(), other.Cols())
	}
	cols := make([][]float64, other.Cols())
	for j := range cols {
		cols[j] = make([]float64, m.Rows())
		for i := 0; i < m.Rows(); i++ {
			var sum float64
			for k := 0; k < m.Cols(); k++ {
				sum += m.At(i, k) * other.At(k, j)
			}
			cols[j][i] = sum
		}
	}
	return &Matrix{cols: cols}, nil
}

// Equal reports whether two matrices have the same shape and entries
// within eps.
func (m *Matrix) Equal(other *Matrix, eps float64) bool {
	if m.Rows() != other.Rows() || m.Cols() != other.Cols() {
		return false
	}
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if math.Abs(m.At(i, j)-other.At(i, j)) > eps {
				return false
			}
		}
	}
	return true
}

// String renders the matrix row by row, entries rounded for display.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.Rows(); i++ {
		sb.WriteString("[")
		for j := 0; j < m.Cols(); j++ {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(formatEntry(m.At(i, j)))
		}
		sb.WriteString("]")
		if i < m.Rows()-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// formatEntry rounds for display and trims trailing zeros. Values under
// the pivot epsilon render as a plain zero so eliminated entries do not
// show as -0.00000.
func formatEntry(v float64) string {
	if math.Abs(v) < pivotEpsilon {
		return "0"
	}
	shift := math.Pow(10, displayPlaces)
	rounded := math.Round(v*shift) / shift
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
