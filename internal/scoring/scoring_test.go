package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingBreakpoints(t *testing.T) {
	tests := []struct {
		actual, guess int
		score         int
		difference    float64
	}{
		{1500, 1500, 1000, 0},
		{1500, 1525, 900, 25},
		{1500, 1550, 800, 50},
		{1500, 1575, 700, 75},
		{1500, 1600, 600, 100},
		{1500, 1650, 500, 150},
		{1500, 1700, 400, 200},
		{1500, 1800, 333, 300},
		{1500, 2000, 199, 500},
		{1500, 2100, 180, 600},
		{1500, 3000, 0, 1500},
		{2000, 500, 0, 1500},
	}
	for _, tt := range tests {
		score, diff := Rating(tt.actual, tt.guess)
		assert.Equal(t, tt.score, score, "Rating(%d, %d)", tt.actual, tt.guess)
		assert.Equal(t, tt.difference, diff)
	}
}

func TestRatingSymmetric(t *testing.T) {
	a, _ := Rating(1500, 1700)
	b, _ := Rating(1700, 1500)
	assert.Equal(t, a, b)
}

// The scale must be non-increasing in the difference and bounded by
// [0, 1000] over the whole domain.
func TestRatingMonotone(t *testing.T) {
	prev := 1001
	for d := 0; d <= 2000; d++ {
		score, _ := Rating(1500, 1500+d)
		assert.GreaterOrEqual(t, prev, score, "difference %d", d)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 1000)
		prev = score
	}
}

func TestEvaluationBreakpoints(t *testing.T) {
	tests := []struct {
		actual, guess float64
		score         int
	}{
		{1.5, 1.5, 1000},
		{1.5, 1.75, 900},
		{0.0, 0.5, 800},
		{0.0, 0.75, 700},
		{0.0, 1.0, 600},
		{0.0, 2.0, 400},
		{0.0, 3.5, 299},
		{0.0, 5.0, 199},
		{0.0, 7.5, 100},
		{0.0, 10.0, 0},
		{-3.0, 3.0, 160},
	}
	for _, tt := range tests {
		score, _ := Evaluation(tt.actual, tt.guess)
		assert.Equal(t, tt.score, score, "Evaluation(%v, %v)", tt.actual, tt.guess)
	}
}

func TestEvaluationMonotone(t *testing.T) {
	prev := 1001
	for i := 0; i <= 1200; i++ {
		d := float64(i) / 100
		score, diff := Evaluation(0, d)
		assert.GreaterOrEqual(t, prev, score, "difference %v", d)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 1000)
		assert.InDelta(t, d, diff, 1e-9)
		prev = score
	}
}
