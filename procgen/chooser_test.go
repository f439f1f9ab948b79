package procgen

import (
	"testing"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestChooserDeterministic(t *testing.T) {
	a, b := NewChooser(99), NewChooser(99)
	weights := []float64{1, 2, 3, 0.5}
	for i := 0; i < 1000; i++ {
		if x, y := a.Pick(weights), b.Pick(weights); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestChooserPickEdgeCases(t *testing.T) {
	ch := NewChooser(1)
	tests := []struct {
		name    string
		weights []float64
		want    int
	}{
		{"empty", nil, -1},
		{"all zero", []float64{0, 0, 0}, -1},
		{"negative ignored", []float64{-5, 0, 2}, 2},
		{"single", []float64{0, 3, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				if got := ch.Pick(tt.weights); got != tt.want {
					t.Fatalf("Pick(%v) = %d, want %d", tt.weights, got, tt.want)
				}
			}
		})
	}
}

func TestChooserPickKeyStable(t *testing.T) {
	weights := map[string]float64{"a": 1, "b": 1, "c": 1, "d": 0}
	first := make([]string, 0, 100)
	ch := NewChooser(5)
	for i := 0; i < 100; i++ {
		k, ok := ch.PickKey(weights)
		if !ok || k == "d" {
			t.Fatalf("PickKey = %q, %v", k, ok)
		}
		first = append(first, k)
	}
	ch = NewChooser(5)
	for i := 0; i < 100; i++ {
		if k, _ := ch.PickKey(weights); k != first[i] {
			t.Fatalf("draw %d: %q != %q", i, k, first[i])
		}
	}
}

func TestChooserMatchesWeights(t *testing.T) {
	weights := []float64{0.55, 0.20, 0.20, 0.05}
	const n = 20000
	ch := NewChooser(2024)
	obs := make([]float64, len(weights))
	for i := 0; i < n; i++ {
		obs[ch.Pick(weights)]++
	}
	exp := make([]float64, len(weights))
	for i, w := range weights {
		exp[i] = w * n
	}
	x := stat.ChiSquare(obs, exp)
	p := distuv.ChiSquared{K: float64(len(weights) - 1)}.Survival(x)
	if p < 0.001 {
		t.Errorf("chi-square %.2f, p=%.5f; observed %v expected %v", x, p, obs, exp)
	}
}
