package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/quillmath/quill/pkg/types"
)

// Echelon returns a copy reduced to upper-triangular form: pivots are
// found by scanning down and right with row swaps, then every entry
// below a pivot is eliminated.
func (m *Matrix) Echelon() *Matrix {
	out := m.Clone()
	out.triangularize()
	return out
}

// RowReduce returns a copy in reduced row-echelon form: pivot rows are
// scaled to 1 and all other entries in a pivot column are eliminated.
func (m *Matrix) RowReduce() *Matrix {
	out := m.Clone()
	pivotRow := 0
	for col := 0; col < out.Cols() && pivotRow < out.Rows(); col++ {
		row, ok := out.findPivot(pivotRow, col)
		if !ok {
			continue
		}
		out.swapRows(pivotRow, row)
		out.scaleRow(pivotRow, 1/out.At(pivotRow, col))
		for r := 0; r < out.Rows(); r++ {
			if r == pivotRow {
				continue
			}
			out.addScaledRow(r, pivotRow, -out.At(r, col))
		}
		pivotRow++
	}
	return out
}

// Determinant computes the determinant by triangularization, tracking
// the sign across row swaps.
func (m *Matrix) Determinant() (types.Term, error) {
	if m.Rows() != m.Cols() {
		return types.Zero, fmt.Errorf("determinant requires a square matrix, got %dx%d",
			m.Rows(), m.Cols())
	}
	out := m.Clone()
	swaps := out.triangularize()
	det := 1.0
	for i := 0; i < out.Rows(); i++ {
		det *= out.At(i, i)
	}
	if swaps%2 == 1 {
		det = -det
	}
	if math.Abs(det) < pivotEpsilon {
		return types.Zero, nil
	}
	return types.NumberFromFloat(det), nil
}

// Inverse computes the inverse by augmenting with the identity and row
// reducing. A pivot that cannot be resolved by swapping signals a
// singular matrix.
func (m *Matrix) Inverse() (*Matrix, error) {
	if m.Rows() != m.Cols() {
		return nil, fmt.Errorf("inverse requires a square matrix, got %dx%d",
			m.Rows(), m.Cols())
	}
	n := m.Rows()
	aug := m.Clone()
	aug.cols = append(aug.cols, Identity(n).cols...)

	for col := 0; col < n; col++ {
		row, ok := aug.findPivot(col, col)
		if !ok {
			return nil, types.NewSingularMatrixError(
				fmt.Sprintf("matrix is singular: no pivot in column %d", col))
		}
		aug.swapRows(col, row)
		aug.scaleRow(col, 1/aug.At(col, col))
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			aug.addScaledRow(r, col, -aug.At(r, col))
		}
	}
	return &Matrix{cols: aug.cols[n:]}, nil
}

// CharPoly computes the characteristic polynomial det(xI - A) by the
// Faddeev-LeVerrier recurrence, rendered as a symbolic term in the
// given variable.
func (m *Matrix) CharPoly(variable string) (types.Term, error) {
	if m.Rows() != m.Cols() {
		return types.Zero, fmt.Errorf("characteristic polynomial requires a square matrix, got %dx%d",
			m.Rows(), m.Cols())
	}
	n := m.Rows()
	coeffs := make([]float64, n+1)
	coeffs[n] = 1

	work := Identity(n)
	for k := 1; k <= n; k++ {
		prod, err := m.Mul(work)
		if err != nil {
			return types.Zero, err
		}
		c := -prod.trace() / float64(k)
		coeffs[n-k] = c
		for i := 0; i < n; i++ {
			prod.cols[i][i] += c
		}
		work = prod
	}
	return polynomialTerm(coeffs, variable), nil
}

// polynomialTerm renders coefficient-indexed powers as a symbolic term,
// skipping near-zero coefficients and the redundant 1 coefficient.
func polynomialTerm(coeffs []float64, variable string) types.Term {
	var sb strings.Builder
	for p := len(coeffs) - 1; p >= 0; p-- {
		c := coeffs[p]
		if math.Abs(c) < pivotEpsilon {
			continue
		}
		switch {
		case sb.Len() == 0 && c < 0:
			sb.WriteString("-")
		case sb.Len() > 0 && c < 0:
			sb.WriteString("-")
		case sb.Len() > 0:
			sb.WriteString("+")
		}
		abs := math.Abs(c)
		if p == 0 || math.Abs(abs-1) >= pivotEpsilon {
			sb.WriteString(formatEntry(abs))
		}
		switch {
		case p == 1:
			sb.WriteString(variable)
		case p > 1:
			fmt.Fprintf(&sb, "%s^%d", variable, p)
		}
	}
	if sb.Len() == 0 {
		return types.Zero
	}
	return types.Symbol(sb.String())
}

// triangularize reduces the receiver in place to upper-triangular form
// and returns the number of row swaps performed.
func (m *Matrix) triangularize() int {
	swaps := 0
	pivotRow := 0
	for col := 0; col < m.Cols() && pivotRow < m.Rows(); col++ {
		row, ok := m.findPivot(pivotRow, col)
		if !ok {
			continue
		}
		if row != pivotRow {
			m.swapRows(pivotRow, row)
			swaps++
		}
		for r := pivotRow + 1; r < m.Rows(); r++ {
			m.addScaledRow(r, pivotRow, -m.At(r, col)/m.At(pivotRow, col))
		}
		pivotRow++
	}
	return swaps
}

// findPivot scans downward from startRow for a non-zero entry in col.
func (m *Matrix) findPivot(startRow, col int) (int, bool) {
	for r := startRow; r < m.Rows(); r++ {
		if math.Abs(m.At(r, col)) >= pivotEpsilon {
			return r, true
		}
	}
	return 0, false
}

func (m *Matrix) swapRows(a, b int) {
	if a == b {
		return
	}
	for j := range m.cols {
		m.cols[j][a], m.cols[j][b] = m.cols[j][b], m.cols[j][a]
	}
}

func (m *Matrix) scaleRow(row int, factor float64) {
	for j := range m.cols {
		m.cols[j][row] *= factor
	}
}

// addScaledRow adds factor times the source row into the target row.
func (m *Matrix) addScaledRow(target, source int, factor float64) {
	for j := range m.cols {
		m.cols[j][target] += factor * m.cols[j][source]
	}
}

func (m *Matrix) trace() float64 {
	var t float64
	for i := 0; i < m.Rows(); i++ {
		t += m.At(i, i)
	}
	return t
}
