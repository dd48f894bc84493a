package audio

import (
	"github.com/mjibson/go-dsp/fft"
)

// Resample converts x to m samples using Fourier-domain band-limited
// interpolation with a flat (boxcar) spectral window: the retained band
// is carried over untouched and everything above the smaller Nyquist is
// discarded. Output length is exactly m.
func Resample(x []float64, m int) []float64 {
	n := len(x)
	if m == n || n == 0 || m <= 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	spec := fft.FFTReal(x)
	out := make([]complex128, m)

	nmin := n
	if m < nmin {
		nmin = m
	}
	half := nmin / 2

	out[0] = spec[0]
	for k := 1; k < half; k++ {
		out[k] = spec[k]
		out[m-k] = spec[n-k]
	}

	if nmin%2 == 1 {
		// Odd band: one extra positive-frequency bin, no Nyquist bin.
		out[half] = spec[half]
		if half > 0 {
			out[m-half] = spec[n-half]
		}
	} else if half > 0 {
		if m < n {
			// Downsampling: fold the energy at the new Nyquist.
			out[half] = spec[half] + spec[n-half]
		} else {
			// Upsampling: split the old Nyquist bin symmetrically.
			out[half] = spec[half] / 2
			out[m-half] = spec[half] / 2
		}
	}

	inv := fft.IFFT(out)
	scale := float64(m) / float64(n)
	y := make([]float64, m)
	for i, c := range inv {
		y[i] = real(c) * scale
	}
	return y
}

// ResampledLength returns the output length for converting n samples
// from one rate to another, rounded to the nearest sample.
func ResampledLength(n, fromRate, toRate int) int {
	return int(float64(n)*float64(toRate)/float64(fromRate) + 0.5)
}
