package audio

import "math"

// RMS computes the root-mean-square amplitude of a channel.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// MaxWindowedRMS computes the maximum RMS over a sliding window of win
// samples. A window longer than the channel degrades to whole-file RMS.
func MaxWindowedRMS(x []float64, win int) float64 {
	if win <= 0 || win >= len(x) {
		return RMS(x)
	}

	// Running sum of squares over the window.
	var sum float64
	for i := 0; i < win; i++ {
		sum += x[i] * x[i]
	}
	maxSum := sum
	for i := win; i < len(x); i++ {
		sum += x[i]*x[i] - x[i-win]*x[i-win]
		if sum > maxSum {
			maxSum = sum
		}
	}
	if maxSum < 0 {
		maxSum = 0 // float cancellation
	}
	return math.Sqrt(maxSum / float64(win))
}
