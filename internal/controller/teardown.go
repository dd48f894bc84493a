package controller

import (
	"github.com/zsiec/pulse/internal/errors"
)

// Close tears the session down. Every cleanup action is attempted
// independently: a failure in one never prevents the rest from
// running. All failures are collected and reported as one
// TeardownFailure; none aborts the teardown.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Debug("Closing session")

	var report errors.TeardownReport
	attempt := func(action string, fn func() error) {
		if fn == nil {
			return
		}
		if err := fn(); err != nil {
			c.logger.WithError(err).WithField("action", action).Error("Cleanup action failed")
			report.Record(action, err)
		}
	}

	if c.device != nil {
		attempt("stop_noise", c.device.StopNoise)
		attempt("stop_playback", c.device.Stop)
		attempt("halt_device", c.device.Close)
	}
	if c.graphics != nil {
		attempt("close_window", c.graphics.Close)
	}
	if c.channel != nil {
		attempt("close_trigger", c.channel.Close)
	}
	if c.keyboard != nil {
		// Joins the input pump and waits until it has fully quiesced, so
		// no callback can fire after teardown.
		attempt("close_keyboard", c.keyboard.Close)
	}
	if c.events != nil {
		attempt("close_data_file", c.events.Close)
	}

	return report.Err()
}

// CloseWithError runs the full teardown after a session error. The
// teardown report is logged, and the original error is returned last so
// callers see the root cause, not the cleanup fallout.
func (c *Controller) CloseWithError(orig error) error {
	if err := c.Close(); err != nil {
		c.logger.WithError(err).Error("Teardown failures after session error")
	}
	return orig
}
