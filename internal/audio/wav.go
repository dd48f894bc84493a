package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// LoadWAV reads a PCM WAV stimulus file into channel-major float64
// samples scaled to [-1, 1], returning the file's sample rate. Only
// mono and stereo files are usable downstream; further shape and level
// checks are the validator's job.
func LoadWAV(path string) ([][]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open stimulus file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("%s has no channels", path)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = pcm.SourceBitDepth
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(pcm.Data) / channels
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, frames)
		for t := 0; t < frames; t++ {
			out[c][t] = float64(pcm.Data[t*channels+c]) / scale
		}
	}
	return out, pcm.Format.SampleRate, nil
}
