package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		want     float64
	}{
		{"regular", 6, 8, 0.75},
		{"zero denominator", 6, 0, 0},
		{"zero over zero", 0, 0, 0},
		{"infinite numerator", math.Inf(1), 2, 0},
		{"above one", 10, 8, 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeDiv(tt.num, tt.den)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestMeanMedian(t *testing.T) {
	_, ok := Mean(nil)
	assert.False(t, ok)
	_, ok = Median(nil)
	assert.False(t, ok)

	values := []float64{9, 1, 4, 2}
	m, _ := Mean(values)
	assert.Equal(t, 4.0, m)
	med, _ := Median(values)
	assert.Equal(t, 3.0, med)
	assert.Equal(t, []float64{9, 1, 4, 2}, values, "input order is kept")

	med, _ = Median([]float64{5, 1, 3})
	assert.Equal(t, 3.0, med)
}

func TestPearson(t *testing.T) {
	series := []float64{0.6, 0.72, 0.81, 0.55}

	r, ok := Pearson(series, series)
	assert.True(t, ok)
	assert.Equal(t, 1.0, r)

	inverse := []float64{-0.6, -0.72, -0.81, -0.55}
	r, ok = Pearson(series, inverse)
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]float64{0.5}, []float64{0.7})
	assert.False(t, ok, "a single point has no correlation")

	_, ok = Pearson([]float64{0.5, 0.5, 0.5}, []float64{0.1, 0.2, 0.3})
	assert.False(t, ok, "a flat series has no correlation")

	_, ok = Pearson([]float64{1, 2}, []float64{1})
	assert.False(t, ok)
}
