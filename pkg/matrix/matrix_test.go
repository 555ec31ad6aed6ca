package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/quillmath/quill/pkg/types"
)

func mustParse(t *testing.T, input string) *Matrix {
	t.Helper()
	m, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return m
}

func mustFromRows(t *testing.T, rows [][]float64) *Matrix {
	t.Helper()
	m, err := FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows(%v): %v", rows, err)
	}
	return m
}

func TestParseBracketGroups(t *testing.T) {
	m := mustParse(t, "[1 3 5][8 30 2][1 89 2]")
	if m.Rows() != 3 || m.Cols() != 3 {
		t.Fatalf("got %dx%d, want 3x3", m.Rows(), m.Cols())
	}
	if m.At(1, 1) != 30 {
		t.Errorf("At(1,1) = %v, want 30", m.At(1, 1))
	}
	if m.At(2, 1) != 89 {
		t.Errorf("At(2,1) = %v, want 89", m.At(2, 1))
	}
}

func TestParseSingleVector(t *testing.T) {
	m := mustParse(t, "[4 5 6]")
	if m.Rows() != 1 || m.Cols() != 3 {
		t.Fatalf("got %dx%d, want 1x3", m.Rows(), m.Cols())
	}
	if m.At(0, 2) != 6 {
		t.Errorf("At(0,2) = %v, want 6", m.At(0, 2))
	}
}

func TestParseRejectsRaggedRows(t *testing.T) {
	if _, err := Parse("[1 2][3]"); err == nil {
		t.Fatal("expected error for ragged rows")
	}
}

func TestRowReduceInvertible(t *testing.T) {
	m := mustParse(t, "[1 3 5][8 30 2][1 89 2]")
	got := m.RowReduce()
	if !got.Equal(Identity(3), 1e-9) {
		t.Errorf("RowReduce =\n%s\nwant identity", got)
	}
}

func TestRowReduceDoesNotMutateReceiver(t *testing.T) {
	m := mustFromRows(t, [][]float64{{1, 2}, {3, 4}})
	m.RowReduce()
	if m.At(1, 0) != 3 {
		t.Errorf("receiver mutated: At(1,0) = %v, want 3", m.At(1, 0))
	}
}

func TestEchelonUpperTriangular(t *testing.T) {
	m := mustFromRows(t, [][]float64{{1, 2}, {3, 4}})
	got := m.Echelon()
	want := mustFromRows(t, [][]float64{{1, 2}, {0, -2}})
	if !got.Equal(want, 1e-9) {
		t.Errorf("Echelon =\n%s\nwant\n%s", got, want)
	}
}

func TestDeterminant(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		want string
	}{
		{"diagonal", [][]float64{{2, 0}, {0, 3}}, "6"},
		{"swap flips sign", [][]float64{{0, 1}, {1, 0}}, "-1"},
		{"singular", [][]float64{{1, 2}, {2, 4}}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustFromRows(t, tt.rows)
			det, err := m.Determinant()
			if err != nil {
				t.Fatalf("Determinant: %v", err)
			}
			if det.String() != tt.want {
				t.Errorf("Determinant = %q, want %q", det, tt.want)
			}
		})
	}
}

func TestDeterminantNonSquare(t *testing.T) {
	m := mustFromRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	if _, err := m.Determinant(); err == nil {
		t.Fatal("expected error for non-square matrix")
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := mustFromRows(t, [][]float64{{4, 7}, {2, 6}})
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	prod, err := m.Mul(inv)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !prod.Equal(Identity(2), 1e-9) {
		t.Errorf("m * m^-1 =\n%s\nwant identity", prod)
	}
}

func TestInverseSingular(t *testing.T) {
	m := mustFromRows(t, [][]float64{{1, 2}, {2, 4}})
	_, err := m.Inverse()
	if err == nil {
		t.Fatal("expected singular matrix error")
	}
	var mathErr *types.MathError
	if !errors.As(err, &mathErr) || !mathErr.HasTag(types.TagSingularMatrixError) {
		t.Errorf("error = %v, want tag %s", err, types.TagSingularMatrixError)
	}
}

func TestMulDimensionMismatch(t *testing.T) {
	a := mustFromRows(t, [][]float64{{1, 2}})
	b := mustFromRows(t, [][]float64{{1, 2}})
	if _, err := a.Mul(b); err == nil {
		t.Fatal("expected dimension error for 1x2 * 1x2")
	}
}

func TestCharPoly(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		want string
	}{
		{"diagonal", [][]float64{{2, 0}, {0, 3}}, "x^2-5x+6"},
		{"identity", [][]float64{{1, 0}, {0, 1}}, "x^2-2x+1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustFromRows(t, tt.rows)
			got, err := m.CharPoly("x")
			if err != nil {
				t.Fatalf("CharPoly: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("CharPoly = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCharPolyEigenvalueCheck(t *testing.T) {
	// [[2,1],[1,2]] has eigenvalues 1 and 3; the polynomial is
	// x^2-4x+3, which must vanish at both.
	m := mustFromRows(t, [][]float64{{2, 1}, {1, 2}})
	got, err := m.CharPoly("x")
	if err != nil {
		t.Fatalf("CharPoly: %v", err)
	}
	if got.String() != "x^2-4x+3" {
		t.Errorf("CharPoly = %q, want %q", got, "x^2-4x+3")
	}
	for _, ev := range []float64{1, 3} {
		if v := ev*ev - 4*ev + 3; math.Abs(v) > 1e-9 {
			t.Errorf("polynomial at %v = %v, want 0", ev, v)
		}
	}
}

func TestStringFormatting(t *testing.T) {
	m := mustFromRows(t, [][]float64{{1.0 / 3.0, 0}, {2, 1e-7}})
	got := m.String()
	want := "[0.33333 0]\n[2 0]"
	if got != want {
		t.Errorf("String =\n%s\nwant\n%s", got, want)
	}
}
