package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "fraction", in: `\frac{1}{2}`, want: "(1)/(2)"},
		{name: "power", in: "x^{2}", want: "x^2"},
		{name: "braced base power", in: "{a}^{b}", want: "a^b"},
		{name: "subscript", in: "x_{1}", want: "x_1"},
		{name: "greek with spaced operator", in: `\alpha + \beta`, want: "α + β"},
		{name: "times gets padded", in: `a\times b`, want: "a × b"},
		{name: "comparison", in: `x\leq 5`, want: "x ≤ 5"},
		{name: "cdot is not padded", in: `2\cdot3`, want: "2·3"},
		{name: "sqrt keeps its argument", in: `\sqrt{16}`, want: "√16"},
		{name: "in does not eat infty", in: `\infty \int \in \notin`, want: "∞ ∫ ∈ ∉"},
		{name: "structural commands stripped", in: `\left(x\right)`, want: "(x)"},
		{name: "unknown command stripped", in: `a \unknown b`, want: "a b"},
		{name: "spaces collapsed", in: "a \t  b", want: "a b"},
		{name: "newlines preserved", in: "x+1\ny=2", want: "x + 1\ny = 2"},
		{name: "spaces inside parens removed", in: "( a+b )", want: "(a + b)"},
		{name: "malformed fraction left partial", in: `\frac{1}{2`, want: "12"},
		{name: "plain text untouched", in: "Ответ: пять яблок", want: "Ответ: пять яблок"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

// Соседние операторы дают двойной пробел, который не схлопывается.
func TestNormalize_AdjacentOperatorsKeepDoubleSpace(t *testing.T) {
	assert.Equal(t, "a +  - b", Normalize("a+-b"))
}

func TestNormalize_NotIdempotent(t *testing.T) {
	once := Normalize("a+-b")
	twice := Normalize(once)
	assert.Equal(t, "a + - b", twice)
	assert.NotEqual(t, once, twice)
}

func TestNormalize_EverySymbolReplaced(t *testing.T) {
	for name, sym := range Symbols {
		got := Normalize(`\` + name)
		assert.Contains(t, got, sym, name)
		assert.NotContains(t, got, `\`, name)
	}
}
