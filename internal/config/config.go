package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Experiment ExperimentConfig `mapstructure:"experiment"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Trigger    TriggerConfig    `mapstructure:"trigger"`
	Response   ResponseConfig   `mapstructure:"response"`
	Window     WindowConfig     `mapstructure:"window"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
}

// ExperimentConfig describes the session being run and the stimulus
// parameters the calibration pipeline needs.
type ExperimentConfig struct {
	Name        string `mapstructure:"name"`
	Participant string `mapstructure:"participant"`
	Session     string `mapstructure:"session"`
	OutputDir   string `mapstructure:"output_dir"` // empty disables the data file

	StimRMS  float64 `mapstructure:"stim_rms"`  // RMS the stimuli were generated at
	StimRate int     `mapstructure:"stim_rate"` // sample rate stimuli were generated at
	StimDB   float64 `mapstructure:"stim_db"`   // desired stimulus level (dB SPL)
	NoiseDB  float64 `mapstructure:"noise_db"`  // desired masker noise level (dB SPL)

	// CheckRMS selects amplitude validation: none, wholefile or windowed.
	CheckRMS         string `mapstructure:"check_rms"`
	SuppressResample bool   `mapstructure:"suppress_resample"`
}

type AudioConfig struct {
	Backend    string `mapstructure:"backend"`     // oto or mock
	SampleRate int    `mapstructure:"sample_rate"` // device playback rate
	// DeviceClass keys into the calibration profile. Empty means use the
	// backend name.
	DeviceClass string             `mapstructure:"device_class"`
	Calibration map[string]float64 `mapstructure:"calibration"` // class -> full-scale dB SPL
}

type TriggerConfig struct {
	Backend string        `mapstructure:"backend"` // dummy or parallel
	Address string        `mapstructure:"address"` // e.g. /dev/parport0
	Delay   time.Duration `mapstructure:"delay"`   // inter-code delay
}

type ResponseConfig struct {
	Device       string        `mapstructure:"device"` // keyboard
	ForceQuit    []string      `mapstructure:"force_quit"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	QueueSize    int           `mapstructure:"queue_size"`
}

type WindowConfig struct {
	Width      int  `mapstructure:"width"`
	Height     int  `mapstructure:"height"`
	FullScreen bool `mapstructure:"full_screen"`
	Screen     int  `mapstructure:"screen"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads configuration from the given file path with env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without reading a file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Experiment
	v.SetDefault("experiment.name", "untitled")
	v.SetDefault("experiment.output_dir", "rawData")
	v.SetDefault("experiment.stim_rms", 0.01)
	v.SetDefault("experiment.stim_rate", 44100)
	v.SetDefault("experiment.stim_db", 65.0)
	v.SetDefault("experiment.noise_db", 45.0)
	v.SetDefault("experiment.check_rms", "windowed")
	v.SetDefault("experiment.suppress_resample", false)

	// Audio
	v.SetDefault("audio.backend", "oto")
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.calibration", map[string]float64{})

	// Trigger
	v.SetDefault("trigger.backend", "dummy")
	v.SetDefault("trigger.delay", 30*time.Millisecond)

	// Response
	v.SetDefault("response.device", "keyboard")
	v.SetDefault("response.force_quit", []string{"lctrl", "rctrl"})
	v.SetDefault("response.poll_interval", 500*time.Microsecond)
	v.SetDefault("response.queue_size", 256)

	// Window
	v.SetDefault("window.width", 1920)
	v.SetDefault("window.height", 1080)
	v.SetDefault("window.full_screen", true)
	v.SetDefault("window.screen", 0)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)

	// Health
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}
