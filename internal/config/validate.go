package config

import (
	"fmt"
)

// Validate checks the configuration for correctness. Selection of an
// unknown backend fails here, before any hardware is touched.
func (c *Config) Validate() error {
	if err := c.Experiment.validate(); err != nil {
		return err
	}
	if err := c.Audio.validate(); err != nil {
		return err
	}
	if err := c.Trigger.validate(); err != nil {
		return err
	}
	if err := c.Response.validate(); err != nil {
		return err
	}
	if err := c.Window.validate(); err != nil {
		return err
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
	}
	if c.Health.Enabled {
		if c.Health.Port < 1 || c.Health.Port > 65535 {
			return fmt.Errorf("invalid health port: %d", c.Health.Port)
		}
	}
	return nil
}

func (c *ExperimentConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("experiment name must not be empty")
	}
	if c.StimRMS <= 0 {
		return fmt.Errorf("stim_rms must be positive, got %g", c.StimRMS)
	}
	if c.StimRate <= 0 {
		return fmt.Errorf("stim_rate must be positive, got %d", c.StimRate)
	}
	switch c.CheckRMS {
	case "none", "wholefile", "windowed":
	default:
		return fmt.Errorf("check_rms must be one of none, wholefile or windowed, got %q", c.CheckRMS)
	}
	return nil
}

func (c *AudioConfig) validate() error {
	switch c.Backend {
	case "oto", "mock":
	default:
		return fmt.Errorf("audio backend must be oto or mock, got %q", c.Backend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("audio sample_rate must be positive, got %d", c.SampleRate)
	}
	for class, db := range c.Calibration {
		if db <= 0 || db > 200 {
			return fmt.Errorf("calibration for %q out of range: %g dB", class, db)
		}
	}
	return nil
}

func (c *TriggerConfig) validate() error {
	switch c.Backend {
	case "dummy", "parallel":
	default:
		return fmt.Errorf("trigger backend must be dummy or parallel, got %q", c.Backend)
	}
	if c.Backend == "parallel" && c.Address == "" {
		return fmt.Errorf("parallel trigger backend requires an address")
	}
	if c.Delay < 0 {
		return fmt.Errorf("trigger delay must not be negative")
	}
	return nil
}

func (c *ResponseConfig) validate() error {
	if c.Device != "keyboard" {
		return fmt.Errorf("response device must be keyboard, got %q", c.Device)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("response poll_interval must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("response queue_size must be positive")
	}
	return nil
}

func (c *WindowConfig) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Screen < 0 {
		return fmt.Errorf("window screen must not be negative, got %d", c.Screen)
	}
	return nil
}

func (c *LoggingConfig) validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", c.Format)
	}
	return nil
}
