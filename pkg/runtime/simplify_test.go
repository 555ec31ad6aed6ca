package runtime

import (
	"fmt"
	"math"
	"testing"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/types"
)

func mustParse(t *testing.T, input string) expr.Node {
	t.Helper()
	node, err := expr.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return node
}

func TestSimplifyFoldsNumericLeaves(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1+2+3", "6"},
		{"10-4-3", "3"},
		{"1+x+2", "x+3"},
		{"x-1+y+1", "x+y"},
		{"5-5", "0"},
		{"-2+2", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := expr.Render(Simplify(mustParse(t, tt.input)))
			if got != tt.want {
				t.Errorf("Simplify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFactorCombinesLikeBases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x^2*x^3", "x^5"},
		{"2*3", "6"},
		{"(x+1)*2", "2x+2"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Factor(mustParse(t, tt.input), 10)
			if err != nil {
				t.Fatal(err)
			}
			if got := expr.Render(node); got != tt.want {
				t.Errorf("Factor(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFactorExpandsProducts(t *testing.T) {
	// (x+1)(x+2) expands to pairwise products; evaluating the expansion
	// at x = 3 must match (3+1)(3+2) = 20.
	node, err := Factor(mustParse(t, "(x+1)*(x+2)"), 10)
	if err != nil {
		t.Fatal(err)
	}
	engineCheck(t, expr.Render(node), 3, 20)
}

func TestFactorExpandsDifference(t *testing.T) {
	node, err := Factor(mustParse(t, "(x+2)*(x-2)"), 10)
	if err != nil {
		t.Fatal(err)
	}
	engineCheck(t, expr.Render(node), 4, 12)
}

// engineCheck defines the rendered expansion as a probe function and
// checks its value at x.
func engineCheck(t *testing.T, rendered string, x int64, want float64) {
	t.Helper()
	engine := NewEngine(types.DefaultConfig())
	if _, err := engine.DefineFunction("probe(x) = " + rendered); err != nil {
		t.Fatalf("defining %q: %v", rendered, err)
	}
	got, err := engine.Evaluate(fmt.Sprintf("probe(%d)", x))
	if err != nil {
		t.Fatalf("evaluating %q at %v: %v", rendered, x, err)
	}
	f, _ := got.Decimal().Float64()
	if math.Abs(f-want) > 1e-9 {
		t.Errorf("%q at x=%d evaluates to %v, want %v", rendered, x, f, want)
	}
}
