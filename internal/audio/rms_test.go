package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"empty", nil, 0},
		{"silence", []float64{0, 0, 0}, 0},
		{"constant", []float64{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"alternating sign", []float64{0.1, -0.1, 0.1, -0.1}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RMS(tt.x), 1e-12)
		})
	}
}

func TestRMSSine(t *testing.T) {
	// Full-scale sine over whole periods has RMS 1/sqrt(2).
	x := make([]float64, 1000)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 10 * float64(i) / 1000)
	}
	assert.InDelta(t, 1/math.Sqrt2, RMS(x), 1e-9)
}

func TestMaxWindowedRMSFindsBurst(t *testing.T) {
	// Mostly silence with a short loud burst: whole-file RMS dilutes the
	// burst, the windowed maximum does not.
	x := make([]float64, 4410)
	for i := 2000; i < 2100; i++ {
		x[i] = 0.8
	}
	win := 100

	assert.InDelta(t, 0.8, MaxWindowedRMS(x, win), 1e-9)
	assert.Less(t, RMS(x), 0.2)
}

func TestMaxWindowedRMSDegradesToWholeFile(t *testing.T) {
	x := []float64{0.02, -0.02, 0.015}
	assert.Equal(t, RMS(x), MaxWindowedRMS(x, 441))
	assert.Equal(t, RMS(x), MaxWindowedRMS(x, 0))
}
