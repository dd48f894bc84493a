// Package controller wires the timing, calibration, scheduling and
// stamping components into one experiment session. A Controller is the
// single explicitly constructed context object owning the master
// clock, the device buffer, the drift table and the flip callback
// lists; nothing here is a hidden singleton, and none of it is designed
// for concurrent mutation outside the timing-critical thread.
package controller

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/pulse/internal/audio"
	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/event"
	"github.com/zsiec/pulse/internal/input"
	"github.com/zsiec/pulse/internal/logger"
	"github.com/zsiec/pulse/internal/sched"
	"github.com/zsiec/pulse/internal/trigger"
)

// Options injects the external collaborators the core does not create
// itself. Nil fields fall back to config-selected backends, a headless
// display and a mock input listener.
type Options struct {
	Graphics sched.Graphics
	Listener input.Listener
	Device   audio.Device
	Trigger  trigger.Channel
}

// Controller owns one experiment session end to end.
type Controller struct {
	cfg    *config.Config
	logger logger.Logger
	report *errors.Report

	clock      *clock.Clock
	reconciler *clock.Reconciler

	device    audio.Device
	validator *audio.Validator
	profile   audio.CalibrationProfile

	graphics  sched.Graphics
	scheduler *sched.FlipScheduler
	stamper   *trigger.Stamper
	channel   trigger.Channel
	keyboard  *input.Keyboard
	events    event.Sink

	meta event.Metadata

	stimDB   float64
	noiseDB  float64
	stimGain float64

	closed bool
}

// New constructs a controller from configuration. Selection errors
// (unknown backends, bad levels) fail here, before any hardware is
// opened, so a broken setup never gets as far as an experiment window.
func New(cfg *config.Config, log *logrus.Logger, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "invalid configuration")
	}

	clg := logger.NewLogrusAdapter(logger.WithComponent(log, "controller"))
	c := &Controller{
		cfg:    cfg,
		logger: clg,
		report: errors.NewReport(),
		clock:  clock.New(),
	}
	c.report.Subscribe(func(w errors.Warning) {
		clg.WithField("warning_type", string(w.Type)).Warn(w.Message)
	})
	c.reconciler = clock.NewReconciler(c.clock, c.report, clg)

	c.meta = event.Metadata{
		SessionID:   uuid.New().String(),
		Experiment:  cfg.Experiment.Name,
		Participant: cfg.Experiment.Participant,
		Session:     cfg.Experiment.Session,
		Date:        c.clock.Start().UTC().Format("2006-01-02T15-04-05"),
	}

	if cfg.Experiment.OutputDir != "" {
		name := fmt.Sprintf("%s_%s.tab", c.meta.Participant, c.meta.Date)
		w, err := event.Open(filepath.Join(cfg.Experiment.OutputDir, name), c.meta)
		if err != nil {
			return nil, err
		}
		c.events = w
	} else {
		clg.Warn("No output directory configured: data will not be saved (testing only)")
		c.events = event.Nop{}
	}

	// Audio device and calibration.
	if opts.Device != nil {
		c.device = opts.Device
	} else {
		dev, err := audio.NewDevice(&cfg.Audio, clg)
		if err != nil {
			c.events.Close()
			return nil, err
		}
		c.device = dev
	}
	c.profile = audio.DefaultProfile().Merge(cfg.Audio.Calibration)

	c.validator = audio.NewValidator(
		c.device.SampleRate(),
		cfg.Experiment.StimRate,
		cfg.Experiment.StimRMS,
		audio.CheckMode(cfg.Experiment.CheckRMS),
		cfg.Experiment.SuppressResample,
		c.report, clg,
	)
	if c.validator.RateMismatch() {
		if cfg.Experiment.SuppressResample {
			c.report.Add(errors.WarningTypeDeviceMismatch,
				"stimulus rate %d != device rate %d; suppress_resample is set, nothing will be done about it",
				cfg.Experiment.StimRate, c.device.SampleRate())
		} else {
			c.report.Add(errors.WarningTypeDeviceMismatch,
				"stimulus rate %d != device rate %d; buffers will be resampled at load time",
				cfg.Experiment.StimRate, c.device.SampleRate())
		}
	}

	if err := c.SetStimDB(cfg.Experiment.StimDB); err != nil {
		return nil, c.closeWith(err)
	}
	if err := c.SetNoiseDB(cfg.Experiment.NoiseDB); err != nil {
		return nil, c.closeWith(err)
	}

	// Display.
	c.graphics = opts.Graphics
	if c.graphics == nil {
		c.graphics = sched.NewHeadless(0)
	}
	c.scheduler = sched.NewFlipScheduler(c.graphics, c.clock, c.events, clg)

	// Response device.
	listener := opts.Listener
	if listener == nil {
		listener = input.NewMockListener(c.clock)
	}
	c.keyboard = input.NewKeyboard(listener, c.clock, &cfg.Response, clg)
	if err := c.keyboard.Start(); err != nil {
		return nil, c.closeWith(err)
	}

	// Trigger channel.
	if opts.Trigger != nil {
		c.channel = opts.Trigger
	} else {
		ch, err := trigger.NewChannel(&cfg.Trigger, clg)
		if err != nil {
			return nil, c.closeWith(err)
		}
		c.channel = ch
	}
	c.stamper = trigger.NewStamper(c.channel, c.clock, c.events, clg)

	clg.WithFields(map[string]interface{}{
		"session_id":  c.meta.SessionID,
		"experiment":  c.meta.Experiment,
		"participant": c.meta.Participant,
		"session":     c.meta.Session,
	}).Info("Initialization complete")
	return c, nil
}

// closeWith tears the partially built controller down and returns err.
func (c *Controller) closeWith(err error) error {
	_ = c.Close()
	return err
}

// Clock returns the master clock all session events are logged against.
func (c *Controller) Clock() *clock.Clock { return c.clock }

// Device returns the audio backend, for health checks.
func (c *Controller) Device() audio.Device { return c.device }

// TriggerChannel returns the trigger backend, for health checks.
func (c *Controller) TriggerChannel() trigger.Channel { return c.channel }

// CurrentTime returns the master-clock timestamp.
func (c *Controller) CurrentTime() time.Duration { return c.clock.Now() }

// Report returns the session's warning report.
func (c *Controller) Report() *errors.Report { return c.report }

// Reconcile measures the offset of an auxiliary hardware clock against
// the master clock, monitoring drift from the frozen baseline.
func (c *Controller) Reconcile(clockID string, aux func() time.Duration) time.Duration {
	return c.reconciler.Reconcile(clockID, aux)
}

// Correction returns the drift record for an auxiliary clock, or nil if
// it has never been reconciled.
func (c *Controller) Correction(clockID string) *clock.Correction {
	return c.reconciler.Correction(clockID)
}
