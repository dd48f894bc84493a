package audio

// Buffer is the canonical playback buffer: two-channel interleaved
// float64 samples (L, R, L, R, ...) in [-1, 1] at the device sample
// rate, beginning with one silent lead-in frame. The lead-in absorbs
// the buffer-position reset latency some hardware exhibits on play.
type Buffer struct {
	Data       []float64
	SampleRate int
}

// Frames returns the number of stereo frames in the buffer, including
// the lead-in frame.
func (b *Buffer) Frames() int {
	return len(b.Data) / 2
}

// Duration returns the playback duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Channels splits the interleaved data back into two channel slices.
// Used by re-validation and tests; playback consumes Data directly.
func (b *Buffer) Channels() ([]float64, []float64) {
	n := b.Frames()
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = b.Data[2*i]
		right[i] = b.Data[2*i+1]
	}
	return left, right
}

// interleave packs two equal-length channels into canonical form.
func interleave(left, right []float64) []float64 {
	out := make([]float64, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}
