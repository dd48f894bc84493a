package controller

import (
	"time"

	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/input"
	"github.com/zsiec/pulse/internal/sched"
)

// spinWindow is how long before a wait deadline the coarse sleep hands
// over to a tight clock poll.
const spinWindow = 200 * time.Microsecond

// Flip executes one flip sequence and returns its master-clock
// timestamp, the authoritative onset time for everything it ran.
func (c *Controller) Flip() (time.Duration, error) {
	c.logger.Debug("Flipping screen")
	return c.scheduler.Flip()
}

// FlipAndPlay queues the audio start ahead of all one-shot callbacks
// and flips. Order within the flip: swap barrier, timestamp, audio
// start, one-shot callbacks, persistent callbacks.
func (c *Controller) FlipAndPlay() (time.Duration, error) {
	c.logger.Info("Flipping screen and playing audio")
	c.scheduler.QueuePlay(c.play)
	return c.scheduler.Flip()
}

// OnNextFlip registers a callback consumed by the next flip only.
func (c *Controller) OnNextFlip(cb sched.Callback) {
	c.scheduler.OnNextFlip(cb)
}

// OnEveryFlip registers a callback that runs on every flip until
// cleared.
func (c *Controller) OnEveryFlip(cb sched.Callback) {
	c.scheduler.OnEveryFlip(cb)
}

// ClearNextFlip drops pending one-shot callbacks.
func (c *Controller) ClearNextFlip() { c.scheduler.ClearNextFlip() }

// ClearEveryFlip drops persistent callbacks.
func (c *Controller) ClearEveryFlip() { c.scheduler.ClearEveryFlip() }

// StampTriggers transmits the codes with the configured inter-code
// delay, blocking until the batch is complete.
func (c *Controller) StampTriggers(codes []int) error {
	return c.stamper.Stamp(codes, c.cfg.Trigger.Delay)
}

// StampTriggersWithDelay transmits the codes with an explicit delay.
func (c *Controller) StampTriggersWithDelay(codes []int, delay time.Duration) error {
	return c.stamper.Stamp(codes, delay)
}

// WaitSecs waits the given duration against the master clock, sleeping
// coarsely and spinning through the final stretch to keep the return
// close to the target.
func (c *Controller) WaitSecs(d time.Duration) {
	c.waitUntilClock(c.clock.Now() + d)
}

// WaitUntil waits until the given master-clock timestamp and returns
// how far away the target was when the call was made. A target already
// in the past is reported as a timing warning, not an error.
func (c *Controller) WaitUntil(target time.Duration) time.Duration {
	remaining := target - c.clock.Now()
	if remaining < 0 {
		c.report.Add(errors.WarningTypeTiming,
			"wait_until target had already passed %v prior", -remaining)
		return remaining
	}
	c.waitUntilClock(target)
	return remaining
}

func (c *Controller) waitUntilClock(target time.Duration) {
	for {
		left := target - c.clock.Now()
		if left <= 0 {
			return
		}
		if left > spinWindow {
			time.Sleep(left - spinWindow)
		}
		// tight poll through the final stretch
	}
}

// WriteDataLine appends an event line stamped now to the data file.
func (c *Controller) WriteDataLine(eventType, value string) error {
	return c.events.Append(eventType, value, c.clock.Now())
}

// WriteDataLineAt appends an event line with an explicit timestamp.
func (c *Controller) WriteDataLineAt(eventType, value string, ts time.Duration) error {
	return c.events.Append(eventType, value, ts)
}

// ListenPresses starts a fresh response window.
func (c *Controller) ListenPresses() {
	c.keyboard.ListenPresses()
}

// GetPresses drains the response buffer, logging each press to the
// data file.
func (c *Controller) GetPresses(liveKeys []string) ([]input.KeyEvent, error) {
	presses, err := c.keyboard.GetPresses(liveKeys, input.RelativeToCall)
	c.logPresses(presses)
	return presses, err
}

// WaitOnePress blocks for the first acceptable press between minWait
// and maxWait.
func (c *Controller) WaitOnePress(maxWait, minWait time.Duration, liveKeys []string) (input.KeyEvent, bool, error) {
	ev, ok, err := c.keyboard.WaitOnePress(maxWait, minWait, liveKeys, input.RelativeToCall)
	if ok {
		c.logPresses([]input.KeyEvent{ev})
	}
	return ev, ok, err
}

// WaitForPresses collects all acceptable presses between minWait and
// maxWait.
func (c *Controller) WaitForPresses(maxWait, minWait time.Duration, liveKeys []string) ([]input.KeyEvent, error) {
	presses, err := c.keyboard.WaitForPresses(maxWait, minWait, liveKeys, input.RelativeToCall)
	c.logPresses(presses)
	return presses, err
}

func (c *Controller) logPresses(presses []input.KeyEvent) {
	for _, p := range presses {
		if err := c.events.Append("keypress", p.Key, p.Timestamp); err != nil {
			c.logger.WithError(err).Error("Failed to log keypress")
		}
	}
}
