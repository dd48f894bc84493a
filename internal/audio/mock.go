package audio

import (
	"sync"
	"time"

	"github.com/zsiec/pulse/internal/errors"
)

// MockDevice is an in-memory audio backend for tests and headless
// diagnostic runs. It records every call so tests can assert the
// load/play/level sequence the controller produced.
type MockDevice struct {
	mu         sync.Mutex
	sampleRate int
	class      string

	loaded    *Buffer
	stimGain  float64
	noiseGain float64

	playing      bool
	noiseRunning bool
	closed       bool

	PlayTimes []time.Time
	StopTimes []time.Time
	LoadCount int
}

// NewMockDevice creates a mock backend reporting the given native rate
// and device class.
func NewMockDevice(sampleRate int, class string) *MockDevice {
	return &MockDevice{sampleRate: sampleRate, class: class, stimGain: 1, noiseGain: 0}
}

// Load stores the buffer, applying the stimulus gain the way real
// hardware does at transfer time.
func (d *MockDevice) Load(buf *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("mock device is closed")
	}
	scaled := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		scaled[i] = s * d.stimGain
	}
	d.loaded = &Buffer{Data: scaled, SampleRate: buf.SampleRate}
	d.LoadCount++
	return nil
}

// Play starts stimulus playback.
func (d *MockDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("mock device is closed")
	}
	if d.loaded == nil {
		return errors.NewUnavailableError("no buffer loaded")
	}
	d.playing = true
	d.PlayTimes = append(d.PlayTimes, time.Now())
	return nil
}

// Stop halts playback and resets the cursor to the buffer start.
func (d *MockDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.StopTimes = append(d.StopTimes, time.Now())
	return nil
}

// StartNoise starts the continuous masker stream.
func (d *MockDevice) StartNoise() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("mock device is closed")
	}
	d.noiseRunning = true
	return nil
}

// StopNoise stops the masker stream.
func (d *MockDevice) StopNoise() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.noiseRunning = false
	return nil
}

// SetLevel sets the linear gain for a stream.
func (d *MockDevice) SetLevel(stream Stream, gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch stream {
	case StreamStimulus:
		d.stimGain = gain
	case StreamNoise:
		d.noiseGain = gain
	default:
		return errors.NewConfigurationError("unknown stream")
	}
	return nil
}

// SampleRate returns the native playback rate.
func (d *MockDevice) SampleRate() int { return d.sampleRate }

// Class returns the configured device class.
func (d *MockDevice) Class() string { return d.class }

// Close marks the device unusable.
func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.playing = false
	d.noiseRunning = false
	return nil
}

// Loaded returns the buffer as transferred to the device, with the
// stimulus gain already applied.
func (d *MockDevice) Loaded() *Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Playing reports whether stimulus playback is active.
func (d *MockDevice) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// NoiseRunning reports whether the masker stream is active.
func (d *MockDevice) NoiseRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.noiseRunning
}

// StimGain returns the current stimulus gain.
func (d *MockDevice) StimGain() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stimGain
}

// NoiseGain returns the current noise gain.
func (d *MockDevice) NoiseGain() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.noiseGain
}
