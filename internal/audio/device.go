package audio

import (
	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// Stream identifies one of the device's two independent output streams.
type Stream int

const (
	// StreamStimulus carries the loaded stimulus buffer.
	StreamStimulus Stream = iota
	// StreamNoise carries the continuous background masker.
	StreamNoise
)

// Device is the audio output backend. One variant is selected at
// controller construction; call sites never re-dispatch on backend
// names.
//
// The stimulus gain set via SetLevel is applied when a buffer is
// loaded. Changing it later does not rescale an already-loaded buffer;
// the caller must reload. The noise gain applies to the masker stream
// immediately.
type Device interface {
	Load(buf *Buffer) error
	Play() error
	Stop() error
	StartNoise() error
	StopNoise() error
	SetLevel(stream Stream, gain float64) error
	SampleRate() int
	Class() string
	Close() error
}

// NewDevice constructs the configured audio backend.
func NewDevice(cfg *config.AudioConfig, log logger.Logger) (Device, error) {
	class := cfg.DeviceClass
	if class == "" {
		class = cfg.Backend
	}
	switch cfg.Backend {
	case "oto":
		return newOtoDevice(cfg.SampleRate, class, log)
	case "mock":
		return NewMockDevice(cfg.SampleRate, class), nil
	default:
		return nil, errors.NewConfigurationError("unknown audio backend: " + cfg.Backend)
	}
}
