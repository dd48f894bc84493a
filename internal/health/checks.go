package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zsiec/pulse/internal/audio"
	"github.com/zsiec/pulse/internal/trigger"
)

// AudioDeviceChecker verifies the audio backend still answers.
type AudioDeviceChecker struct {
	device audio.Device
}

// NewAudioDeviceChecker creates a checker for the given device.
func NewAudioDeviceChecker(device audio.Device) *AudioDeviceChecker {
	return &AudioDeviceChecker{device: device}
}

// Name implements Checker.
func (c *AudioDeviceChecker) Name() string { return "audio_device" }

// Check implements Checker.
func (c *AudioDeviceChecker) Check(ctx context.Context) error {
	if c.device == nil {
		return fmt.Errorf("no audio device configured")
	}
	if c.device.SampleRate() <= 0 {
		return fmt.Errorf("audio device reports invalid sample rate %d", c.device.SampleRate())
	}
	return nil
}

// TriggerChecker verifies the trigger channel accepts a code. It sends
// a zero code, the conventional no-op on trigger hardware.
type TriggerChecker struct {
	channel trigger.Channel
}

// NewTriggerChecker creates a checker for the given channel.
func NewTriggerChecker(channel trigger.Channel) *TriggerChecker {
	return &TriggerChecker{channel: channel}
}

// Name implements Checker.
func (c *TriggerChecker) Name() string { return "trigger_channel" }

// Check implements Checker.
func (c *TriggerChecker) Check(ctx context.Context) error {
	if c.channel == nil {
		return fmt.Errorf("no trigger channel configured")
	}
	return c.channel.Send(0)
}

// DataSinkChecker verifies the output directory is writable.
type DataSinkChecker struct {
	dir string
}

// NewDataSinkChecker creates a checker probing the given directory.
func NewDataSinkChecker(dir string) *DataSinkChecker {
	return &DataSinkChecker{dir: dir}
}

// Name implements Checker.
func (c *DataSinkChecker) Name() string { return "data_sink" }

// Check implements Checker.
func (c *DataSinkChecker) Check(ctx context.Context) error {
	if c.dir == "" {
		return fmt.Errorf("no output directory configured")
	}
	probe := filepath.Join(c.dir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	return os.Remove(probe)
}
