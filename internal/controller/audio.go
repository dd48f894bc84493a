package controller

import (
	"github.com/zsiec/pulse/internal/audio"
)

// LoadBuffer validates raw samples and transfers the canonical buffer
// to the audio device. The current stimulus gain is applied during the
// transfer; a later SetStimDB does not rescale what is already loaded.
func (c *Controller) LoadBuffer(samples [][]float64) error {
	buf, err := c.validator.Validate(samples)
	if err != nil {
		return err
	}
	c.logger.WithField("frames", buf.Frames()).Info("Loading buffer to device")
	return c.device.Load(buf)
}

// LoadBufferMono is LoadBuffer for one-dimensional sample data.
func (c *Controller) LoadBufferMono(samples []float64) error {
	return c.LoadBuffer([][]float64{samples})
}

// LoadBufferFromWAV reads a stimulus WAV file and loads it. The file's
// sample rate overrides the configured stimulus rate for this load.
func (c *Controller) LoadBufferFromWAV(path string) error {
	samples, rate, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}
	if rate != c.validator.StimRate {
		saved := c.validator.StimRate
		c.validator.StimRate = rate
		defer func() { c.validator.StimRate = saved }()
	}
	return c.LoadBuffer(samples)
}

// play starts device playback and logs the event. It is queued first in
// a flip-and-play sequence.
func (c *Controller) play() error {
	c.logger.Debug("Playing audio")
	if err := c.device.Play(); err != nil {
		return err
	}
	return c.events.Append("play", "", c.clock.Now())
}

// Stop halts playback and resets the cursor to the buffer beginning.
func (c *Controller) Stop() error {
	if err := c.device.Stop(); err != nil {
		return err
	}
	if err := c.events.Append("stop", "", c.clock.Now()); err != nil {
		return err
	}
	c.logger.Info("Audio stopped and reset")
	return nil
}

// StartNoise starts the continuous background masker.
func (c *Controller) StartNoise() error {
	return c.device.StartNoise()
}

// StopNoise stops the background masker.
func (c *Controller) StopNoise() error {
	return c.device.StopNoise()
}

// SetStimDB sets the stimulus level. The gain derives from the declared
// stimulus RMS and the device's calibration reference; it takes effect
// on the next LoadBuffer, not retroactively.
func (c *Controller) SetStimDB(db float64) error {
	ref := c.profile.ReferenceDB(c.device.Class(), c.report)
	gain := audio.ComputeGain(db, ref, c.cfg.Experiment.StimRMS)
	if err := c.device.SetLevel(audio.StreamStimulus, gain); err != nil {
		return err
	}
	c.stimDB = db
	c.stimGain = gain
	return nil
}

// SetNoiseDB sets the masker level. Noise is always generated at an RMS
// of 1, so its gain assumes a full-scale source. Takes effect
// immediately on the noise stream.
func (c *Controller) SetNoiseDB(db float64) error {
	ref := c.profile.ReferenceDB(c.device.Class(), c.report)
	gain := audio.ComputeGain(db, ref, audio.NoiseSourceRMS)
	if err := c.device.SetLevel(audio.StreamNoise, gain); err != nil {
		return err
	}
	c.noiseDB = db
	return nil
}

// StimDB returns the current stimulus level in dB SPL.
func (c *Controller) StimDB() float64 { return c.stimDB }

// NoiseDB returns the current masker level in dB SPL.
func (c *Controller) NoiseDB() float64 { return c.noiseDB }

// StimGain returns the linear gain applied at the last buffer load.
func (c *Controller) StimGain() float64 { return c.stimGain }

// SampleRate returns the playback rate of the audio device.
func (c *Controller) SampleRate() int { return c.device.SampleRate() }
