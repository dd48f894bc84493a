package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "untitled", cfg.Experiment.Name)
	assert.Equal(t, 0.01, cfg.Experiment.StimRMS)
	assert.Equal(t, 44100, cfg.Experiment.StimRate)
	assert.Equal(t, 65.0, cfg.Experiment.StimDB)
	assert.Equal(t, 45.0, cfg.Experiment.NoiseDB)
	assert.Equal(t, "windowed", cfg.Experiment.CheckRMS)
	assert.False(t, cfg.Experiment.SuppressResample)

	assert.Equal(t, "oto", cfg.Audio.Backend)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)

	assert.Equal(t, "dummy", cfg.Trigger.Backend)
	assert.Equal(t, 30*time.Millisecond, cfg.Trigger.Delay)

	assert.Equal(t, "keyboard", cfg.Response.Device)
	assert.Equal(t, []string{"lctrl", "rctrl"}, cfg.Response.ForceQuit)
	assert.Equal(t, 500*time.Microsecond, cfg.Response.PollInterval)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
experiment:
  name: tone_detection
  participant: p01
  session: "2"
  stim_db: 70
  check_rms: wholefile
audio:
  backend: mock
  sample_rate: 24414
  device_class: RM1
  calibration:
    RM1: 110
trigger:
  backend: dummy
  delay: 10ms
logging:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tone_detection", cfg.Experiment.Name)
	assert.Equal(t, "p01", cfg.Experiment.Participant)
	assert.Equal(t, "2", cfg.Experiment.Session)
	assert.Equal(t, 70.0, cfg.Experiment.StimDB)
	assert.Equal(t, "wholefile", cfg.Experiment.CheckRMS)

	assert.Equal(t, "mock", cfg.Audio.Backend)
	assert.Equal(t, 24414, cfg.Audio.SampleRate)
	assert.Equal(t, "RM1", cfg.Audio.DeviceClass)
	assert.Equal(t, 110.0, cfg.Audio.Calibration["RM1"])

	assert.Equal(t, 10*time.Millisecond, cfg.Trigger.Delay)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.01, cfg.Experiment.StimRMS)
	assert.Equal(t, "keyboard", cfg.Response.Device)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown audio backend", "audio:\n  backend: asio\n"},
		{"unknown trigger backend", "trigger:\n  backend: morse\n"},
		{"parallel without address", "trigger:\n  backend: parallel\n"},
		{"bad check_rms", "experiment:\n  check_rms: sometimes\n"},
		{"zero stim_rms", "experiment:\n  stim_rms: 0\n"},
		{"negative trigger delay", "trigger:\n  delay: -5ms\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"calibration out of range", "audio:\n  calibration:\n    RM1: 300\n"},
		{"bad metrics port", "metrics:\n  enabled: true\n  port: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidateSections(t *testing.T) {
	cfg := Default()
	cfg.Response.Device = "joystick"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Window.Width = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Experiment.Name = ""
	assert.Error(t, cfg.Validate())
}
